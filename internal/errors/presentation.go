package errors

import (
	"fmt"
)

// UserMessage returns a user-friendly error message
func UserMessage(err error) string {
	if cErr, ok := err.(*CheckError); ok {
		return formatUserError(cErr)
	}
	return err.Error()
}

func formatUserError(cErr *CheckError) string {
	switch cErr.Type {
	case ErrorTypeValidation:
		return formatValidationError(cErr)
	case ErrorTypeNetwork:
		return formatNetworkError(cErr)
	case ErrorTypeAssertion:
		return formatAssertionError(cErr)
	case ErrorTypeMalformedResponse:
		return formatMalformedError(cErr)
	case ErrorTypeConfig:
		return formatConfigError(cErr)
	default:
		return cErr.Message
	}
}

func formatValidationError(cErr *CheckError) string {
	msg := cErr.Message
	if field, ok := cErr.Context["field"]; ok {
		msg = fmt.Sprintf("Invalid %s: %s", field, msg)
	}
	return msg
}

func formatNetworkError(cErr *CheckError) string {
	msg := cErr.Error()
	if url, ok := cErr.Context["url"]; ok {
		msg = fmt.Sprintf("Network error accessing %s: %s", url, msg)
	}
	return msg
}

func formatAssertionError(cErr *CheckError) string {
	expected, hasExpected := cErr.Context["expected"]
	actual, hasActual := cErr.Context["actual"]
	if hasExpected && hasActual {
		return fmt.Sprintf("%s: expected %v, got %v", cErr.Message, expected, actual)
	}
	return cErr.Message
}

func formatMalformedError(cErr *CheckError) string {
	if path, ok := cErr.Context["json_path"]; ok {
		return fmt.Sprintf("%s (field %v)", cErr.Error(), path)
	}
	return cErr.Error()
}

func formatConfigError(cErr *CheckError) string {
	msg := cErr.Message
	if configType, ok := cErr.Context["config_type"]; ok {
		msg = fmt.Sprintf("Configuration error (%s): %s", configType, msg)
	}
	return msg
}

// DebugInfo returns detailed error information for debugging
func DebugInfo(err error) map[string]interface{} {
	info := map[string]interface{}{
		"error":   err.Error(),
		"type":    "unknown",
		"context": map[string]interface{}{},
	}

	if cErr, ok := err.(*CheckError); ok {
		info["type"] = string(cErr.Type)
		info["message"] = cErr.Message
		info["context"] = cErr.Context

		if cErr.Cause != nil {
			info["cause"] = cErr.Cause.Error()
		}
	}

	return info
}
