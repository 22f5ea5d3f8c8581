package services

import "testing"

func TestFormatPrompt(t *testing.T) {
	vars := map[string]string{
		"BRAND_NAME": "AI Business Kit",
		"user_id":    "42",
	}
	tests := []struct {
		tpl, want string
	}{
		{"Набор «{BRAND_NAME}»", "Набор «AI Business Kit»"},
		{"id={user_id}", "id=42"},
		{"{user_id или N/A}", "42"}, // malformed placeholder keeps its leading name
		{"{UNKNOWN_VAR}", "N/A"},
		{"no placeholders", "no placeholders"},
		{"{BRAND_NAME} + {UNKNOWN_VAR}", "AI Business Kit + N/A"},
	}
	for _, tt := range tests {
		if got := FormatPrompt(tt.tpl, vars); got != tt.want {
			t.Errorf("FormatPrompt(%q) = %q, want %q", tt.tpl, got, tt.want)
		}
	}
}
