package proxyerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestReachabilityError_Message(t *testing.T) {
	err := &ReachabilityError{Stage: StageTLS, Reason: "x509: certificate signed by unknown authority"}
	want := "precheck tls failed: x509: certificate signed by unknown authority"
	if err.Error() != want {
		t.Errorf("Error() = %q, expected %q", err.Error(), want)
	}
}

func TestReachabilityError_As(t *testing.T) {
	wrapped := fmt.Errorf("connect: %w", &ReachabilityError{Stage: StageDNS, Reason: "no such host"})
	var re *ReachabilityError
	if !errors.As(wrapped, &re) {
		t.Fatal("errors.As failed to unwrap ReachabilityError")
	}
	if re.Stage != StageDNS {
		t.Errorf("Stage = %q, expected %q", re.Stage, StageDNS)
	}
}

func TestRedact_RemovesSecret(t *testing.T) {
	msg := Redact("authentication failed for user bob with password s3cr3t!", "s3cr3t!")
	if strings.Contains(msg, "s3cr3t!") {
		t.Errorf("secret survived redaction: %q", msg)
	}
	if !strings.Contains(msg, "<redacted>") {
		t.Errorf("expected placeholder in %q", msg)
	}
}

func TestRedact_URLEscapedSecret(t *testing.T) {
	// Driver errors can echo the DSN, where the password is percent-encoded.
	msg := Redact(`parse "hdb://bob:p%40ss@db:443": invalid port`, "p@ss")
	if strings.Contains(msg, "p%40ss") || strings.Contains(msg, "p@ss") {
		t.Errorf("escaped secret survived redaction: %q", msg)
	}
}

func TestRedact_EmptySecretIsNoop(t *testing.T) {
	in := "connection refused"
	if got := Redact(in, ""); got != in {
		t.Errorf("Redact with empty secret changed message: %q", got)
	}
}

func TestRedact_MultipleSecrets(t *testing.T) {
	msg := Redact("user=admin password=hunter2", "admin", "hunter2")
	if strings.Contains(msg, "admin") || strings.Contains(msg, "hunter2") {
		t.Errorf("secret survived redaction: %q", msg)
	}
}
