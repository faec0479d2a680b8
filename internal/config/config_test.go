package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFrom(envMap(map[string]string{
		"HANA_HOST": "db.example.com",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 443 {
		t.Errorf("Port = %d, expected 443", cfg.Port)
	}
	if cfg.Schema != "SMART_RETAIL1" {
		t.Errorf("Schema = %q, expected default", cfg.Schema)
	}
	if cfg.Driver != DriverHDB {
		t.Errorf("Driver = %q, expected hdb", cfg.Driver)
	}
	if cfg.ValidateCertificate {
		t.Error("ValidateCertificate = true, expected default false")
	}
	if cfg.PrecheckTimeout != 8*time.Second {
		t.Errorf("PrecheckTimeout = %s, expected 8s", cfg.PrecheckTimeout)
	}
	if cfg.ListenPort != "8080" {
		t.Errorf("ListenPort = %q, expected 8080", cfg.ListenPort)
	}
}

func TestLoad_HostAlias(t *testing.T) {
	cfg, err := loadFrom(envMap(map[string]string{
		"HANA_ADDRESS": "alias.example.com",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "alias.example.com" {
		t.Errorf("Host = %q, expected HANA_ADDRESS fallback", cfg.Host)
	}
}

func TestLoad_SSLValidateForms(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		cfg, err := loadFrom(envMap(map[string]string{"HANA_SSL_VALIDATE": v}))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", v, err)
		}
		if !cfg.ValidateCertificate {
			t.Errorf("HANA_SSL_VALIDATE=%q: expected true", v)
		}
	}
	cfg, _ := loadFrom(envMap(map[string]string{"HANA_SSL_VALIDATE": "no"}))
	if cfg.ValidateCertificate {
		t.Error("HANA_SSL_VALIDATE=no: expected false")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	if _, err := loadFrom(envMap(map[string]string{"HANA_PORT": "not-a-port"})); err == nil {
		t.Error("expected error for invalid HANA_PORT")
	}
	if _, err := loadFrom(envMap(map[string]string{"HANA_PORT": "70000"})); err == nil {
		t.Error("expected error for out-of-range HANA_PORT")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	if _, err := loadFrom(envMap(map[string]string{"HANA_DRIVER": "oracle"})); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestLoad_TimeoutSecondsForm(t *testing.T) {
	cfg, err := loadFrom(envMap(map[string]string{
		"PRECHECK_TIMEOUT": "2.5",
		"LOGIN_TIMEOUT":    "30s",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PrecheckTimeout != 2500*time.Millisecond {
		t.Errorf("PrecheckTimeout = %s, expected 2.5s", cfg.PrecheckTimeout)
	}
	if cfg.LoginTimeout != 30*time.Second {
		t.Errorf("LoginTimeout = %s, expected 30s", cfg.LoginTimeout)
	}
}

const vcapDoc = `{
  "user-provided": [
    {"label": "user-provided", "name": "audit-log", "credentials": {"url": "https://logs"}}
  ],
  "hana": [
    {
      "label": "hana",
      "name": "smart-retail-db",
      "credentials": {
        "host": "bound.example.com",
        "port": "30015",
        "user": "BOUND_USER",
        "password": "bound-pass",
        "schema": "RETAIL"
      }
    }
  ]
}`

func TestLoad_VCAPBinding(t *testing.T) {
	cfg, err := loadFrom(envMap(map[string]string{"VCAP_SERVICES": vcapDoc}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "bound.example.com" {
		t.Errorf("Host = %q, expected binding host", cfg.Host)
	}
	if cfg.Port != 30015 {
		t.Errorf("Port = %d, expected binding port", cfg.Port)
	}
	if cfg.User != "BOUND_USER" || cfg.Password != "bound-pass" {
		t.Error("expected credentials from binding")
	}
	if cfg.Schema != "RETAIL" {
		t.Errorf("Schema = %q, expected binding schema", cfg.Schema)
	}
}

func TestLoad_EnvWinsOverBinding(t *testing.T) {
	cfg, err := loadFrom(envMap(map[string]string{
		"VCAP_SERVICES": vcapDoc,
		"HANA_HOST":     "explicit.example.com",
		"HANA_USER":     "EXPLICIT",
		"HANA_PORT":     "443",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "explicit.example.com" {
		t.Errorf("Host = %q, expected explicit env value", cfg.Host)
	}
	if cfg.User != "EXPLICIT" {
		t.Errorf("User = %q, expected explicit env value", cfg.User)
	}
	if cfg.Port != 443 {
		t.Errorf("Port = %d, expected explicit env value", cfg.Port)
	}
	// Password has no env override here, so the binding still supplies it.
	if cfg.Password != "bound-pass" {
		t.Errorf("Password not taken from binding")
	}
}

func TestLoad_InvalidVCAP(t *testing.T) {
	if _, err := loadFrom(envMap(map[string]string{"VCAP_SERVICES": "{broken"})); err == nil {
		t.Error("expected error for malformed VCAP_SERVICES")
	}
}

func TestBindingFromVCAP_NumericPort(t *testing.T) {
	b, err := bindingFromVCAP(`{"hana":[{"label":"hana","name":"db","credentials":{"host":"h","port":30015,"user":"u","password":"p"}}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b == nil || b.Port != 30015 {
		t.Fatalf("expected numeric port 30015, got %+v", b)
	}
}

func TestBindingFromVCAP_NoMatch(t *testing.T) {
	b, err := bindingFromVCAP(`{"postgres":[{"label":"postgres","name":"other","credentials":{}}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Errorf("expected nil binding, got %+v", b)
	}
}
