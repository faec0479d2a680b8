// Package proxyerr defines the closed set of error variants produced by the
// proxy core, plus the credential redaction applied before any message
// crosses the log or HTTP boundary.
package proxyerr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Stage identifies the precheck stage that produced a reachability failure.
type Stage string

const (
	StageDNS Stage = "dns"
	StageTCP Stage = "tcp"
	StageTLS Stage = "tls"
)

// ErrUnauthorized indicates a missing or incorrect API key.
var ErrUnauthorized = errors.New("unauthorized")

// ReachabilityError is a network-level failure surfaced by the precheck,
// before any database login was attempted.
type ReachabilityError struct {
	Stage  Stage
	Reason string
}

func (e *ReachabilityError) Error() string {
	return fmt.Sprintf("precheck %s failed: %s", e.Stage, e.Reason)
}

// LoginError is an authentication or connection failure at the database
// layer. Message carries the driver's error text, already redacted.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string {
	return "database login failed: " + e.Message
}

// QueryError is a statement execution failure after a successful login.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return "query failed: " + e.Message
}

// ValidationError is malformed or missing caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigError is an invalid or incomplete process configuration detected at
// use, such as an unset target host. Unlike ValidationError it is a server
// fault, not a caller fault.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

const redacted = "<redacted>"

// Redact replaces every occurrence of each non-empty secret in msg with a
// placeholder. URL-escaped forms are scrubbed too, since driver errors may
// echo a DSN.
func Redact(msg string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, s, redacted)
		if esc := url.QueryEscape(s); esc != s {
			msg = strings.ReplaceAll(msg, esc, redacted)
		}
	}
	return msg
}
