package textutil

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

var truthy = map[string]struct{}{
	folder.String("TRUE"): {},
	folder.String("1"):    {},
	folder.String("YES"):  {},
	folder.String("ON"):   {},
}

// Fold returns the case-folded form of value for case-insensitive comparison.
func Fold(value string) string {
	return folder.String(strings.TrimSpace(value))
}

// EqualFold reports whether a and b match after trimming and case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ParseBool coerces a loosely typed shot list value to a boolean. Real JSON
// booleans pass through; strings and numbers are true only when their text
// form is exactly "true", "1", "yes" or "on" ignoring case. Surrounding
// whitespace is not trimmed. Anything else, including nil, is false.
func ParseBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		_, ok := truthy[folder.String(v)]
		return ok
	default:
		_, ok := truthy[folder.String(fmt.Sprint(v))]
		return ok
	}
}

// ParseResolution parses a string like "1920x1080" into width and height.
func ParseResolution(value string) (int, int, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(value)), "X")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution string %q", value)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution string %q", value)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution string %q", value)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution string %q", value)
	}
	return width, height, nil
}
