package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoad marks a backing file that is missing, unreadable, malformed, or
	// lacks required keys.
	ErrLoad = errors.New("load error")
	// ErrNotFound marks a shot lookup (or parent reference) with no record.
	ErrNotFound = errors.New("not found")
	// ErrExternalTool marks a render or composite subprocess failure.
	ErrExternalTool = errors.New("external tool error")
	// ErrRefresh marks a failed reload of a watched file.
	ErrRefresh = errors.New("refresh error")
	// ErrConfiguration marks invalid application or shot settings.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err, used as a log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoad):
		return "load"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrRefresh):
		return "refresh"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
