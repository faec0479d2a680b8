package config

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// binding is the credential set extracted from one service instance of a
// VCAP_SERVICES document.
type binding struct {
	Host     string
	Port     int
	User     string
	Password string
	Schema   string
}

// vcapService is one instance inside a VCAP_SERVICES service list.
type vcapService struct {
	Label       string          `json:"label"`
	Name        string          `json:"name"`
	Credentials vcapCredentials `json:"credentials"`
}

type vcapCredentials struct {
	Host     string     `json:"host"`
	Port     flexString `json:"port"`
	User     string     `json:"user"`
	Password string     `json:"password"`
	Schema   string     `json:"schema"`
}

// flexString tolerates both string and numeric JSON values; platform
// bindings are inconsistent about the port type.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// bindingFromVCAP parses a VCAP_SERVICES document and returns the
// credentials of the first service instance whose label or name indicates a
// HANA backend. Returns nil when no such instance exists.
func bindingFromVCAP(raw string) (*binding, error) {
	var services map[string][]vcapService
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, err
	}

	// Map iteration order is random; keep instance selection stable.
	keys := make([]string, 0, len(services))
	for k := range services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, svc := range services[k] {
			if !isHANA(svc) {
				continue
			}
			b := &binding{
				Host:     svc.Credentials.Host,
				User:     svc.Credentials.User,
				Password: svc.Credentials.Password,
				Schema:   svc.Credentials.Schema,
			}
			if p, err := strconv.Atoi(string(svc.Credentials.Port)); err == nil {
				b.Port = p
			}
			return b, nil
		}
	}
	return nil, nil
}

func isHANA(svc vcapService) bool {
	return strings.Contains(strings.ToLower(svc.Label), "hana") ||
		strings.Contains(strings.ToLower(svc.Name), "hana")
}
