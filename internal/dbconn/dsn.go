package dbconn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/smartretail/hanaproxy/internal/config"
)

// BuildDSN returns the database/sql driver name and DSN for the configured
// backend. The certificate-validation policy and the login timeout are baked
// into the DSN, so the driver enforces both without further plumbing.
//
// The DSN embeds the password; it must never be logged verbatim.
func BuildDSN(cfg *config.Config) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case config.DriverHDB:
		return "hdb", hdbDSN(cfg), nil
	case config.DriverPostgres:
		return "pgx", postgresDSN(cfg), nil
	case config.DriverMySQL:
		return "mysql", mysqlDSN(cfg), nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func hdbDSN(cfg *config.Config) string {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(cfg.LoginTimeout.Seconds())))
	// Setting TLSServerName switches the driver to an encrypted session.
	q.Set("TLSServerName", cfg.Host)
	if !cfg.ValidateCertificate {
		q.Set("TLSInsecureSkipVerify", "true")
	}
	u := url.URL{
		Scheme:   "hdb",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func postgresDSN(cfg *config.Config) string {
	q := url.Values{}
	q.Set("connect_timeout", strconv.Itoa(int(cfg.LoginTimeout.Seconds())))
	if cfg.ValidateCertificate {
		q.Set("sslmode", "verify-full")
	} else {
		q.Set("sslmode", "require")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/postgres",
		RawQuery: q.Encode(),
	}
	return u.String()
}

func mysqlDSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.Timeout = cfg.LoginTimeout
	if cfg.ValidateCertificate {
		mc.TLSConfig = "true"
	} else {
		mc.TLSConfig = "skip-verify"
	}
	return mc.FormatDSN()
}
