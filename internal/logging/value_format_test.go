package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("forest/1"), "forest/1"},
		{slog.StringValue("two words"), `"two words"`},
		{slog.StringValue(""), `""`},
		{slog.IntValue(42), "42"},
		{slog.BoolValue(true), "true"},
		{slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{slog.DurationValue(2*time.Hour + 3*time.Second + 400*time.Millisecond), "2h0m3s"},
		{slog.AnyValue(errors.New("exit status 3")), `"exit status 3"`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.value); got != tt.want {
			t.Errorf("formatValue(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
	if got := attrString(slog.StringValue("two words")); got != "two words" {
		t.Errorf("attrString quoted its value: %s", got)
	}
}
