package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestCheckError(t *testing.T) {
	err := New(ErrorTypeValidation, "test error")
	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, err.Type)
	}
	if err.Message != "test error" {
		t.Errorf("Expected message 'test error', got '%s'", err.Message)
	}

	cause := fmt.Errorf("dial tcp: connection refused")
	wrapped := Wrap(cause, ErrorTypeNetwork, "request failed")
	if wrapped.Cause != cause {
		t.Errorf("Expected cause to be preserved")
	}
	if !stderrors.Is(wrapped, cause) {
		t.Errorf("Expected errors.Is to find the cause")
	}

	err.WithContext("field", "base_url")
	if err.Context["field"] != "base_url" {
		t.Errorf("Expected context to be set")
	}

	expected := "request failed: dial tcp: connection refused"
	if wrapped.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, wrapped.Error())
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeAssertion, "status mismatch")

	if !IsType(err, ErrorTypeAssertion) {
		t.Errorf("Expected IsType to return true for correct type")
	}
	if IsType(err, ErrorTypeNetwork) {
		t.Errorf("Expected IsType to return false for incorrect type")
	}

	// Wrapped by fmt.Errorf
	outer := fmt.Errorf("case failed: %w", New(ErrorTypeMalformedResponse, "not json"))
	if !IsType(outer, ErrorTypeMalformedResponse) {
		t.Errorf("Expected IsType to see through fmt.Errorf wrapping")
	}

	if IsType(fmt.Errorf("standard error"), ErrorTypeNetwork) {
		t.Errorf("Expected IsType to return false for standard error")
	}
}

func TestGetType(t *testing.T) {
	if GetType(New(ErrorTypeConfig, "config error")) != ErrorTypeConfig {
		t.Errorf("Expected config type")
	}
	if GetType(fmt.Errorf("standard error")) != ErrorTypeInternal {
		t.Errorf("Expected internal type for standard error")
	}

	wrapped := fmt.Errorf("lint: %w", New(ErrorTypeValidation, "bad spec").WithContext("field", "openapi"))
	if GetType(wrapped) != ErrorTypeValidation {
		t.Errorf("Expected GetType to see through fmt.Errorf wrapping, got %s", GetType(wrapped))
	}
	if GetContext(wrapped)["field"] != "openapi" {
		t.Errorf("Expected GetContext to see through fmt.Errorf wrapping")
	}
}

func TestErrorsIsMatchesByType(t *testing.T) {
	err := Wrap(fmt.Errorf("timeout"), ErrorTypeNetwork, "request failed")
	if !stderrors.Is(err, New(ErrorTypeNetwork, "")) {
		t.Errorf("Expected errors.Is to match on type")
	}
	if stderrors.Is(err, New(ErrorTypeAssertion, "")) {
		t.Errorf("Expected errors.Is not to match a different type")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrorTypeAssertion, "status code").
		WithContext("expected", 200).
		WithContext("actual", 404)
	msg := UserMessage(err)
	if msg != "status code: expected 200, got 404" {
		t.Errorf("unexpected message %q", msg)
	}

	netErr := Wrap(fmt.Errorf("no such host"), ErrorTypeNetwork, "request failed").
		WithContext("url", "https://example.invalid/api")
	if !strings.Contains(UserMessage(netErr), "https://example.invalid/api") {
		t.Errorf("expected network message to include url, got %q", UserMessage(netErr))
	}
}

func TestDebugInfo(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: refused"), ErrorTypeNetwork, "request failed").
		WithContext("url", "http://localhost:1/api")

	info := DebugInfo(err)
	if info["type"] != "network" {
		t.Errorf("type: got %v", info["type"])
	}
	if info["cause"] != "dial tcp: refused" {
		t.Errorf("cause: got %v", info["cause"])
	}
	if ctx, ok := info["context"].(map[string]interface{}); !ok || ctx["url"] != "http://localhost:1/api" {
		t.Errorf("context: got %v", info["context"])
	}

	plain := DebugInfo(fmt.Errorf("boom"))
	if plain["type"] != "unknown" || plain["error"] != "boom" {
		t.Errorf("plain error: got %v", plain)
	}
}
