package domain

import (
	"errors"
	"testing"
)

func TestMessageRef_RoundTrip(t *testing.T) {
	ref := MessageRef{ChatID: -100123, MessageID: 77}
	parsed, err := ParseMessageRef(ref.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != ref {
		t.Errorf("expected %+v, got %+v", ref, parsed)
	}
	if ref.IsZero() {
		t.Error("expected non-zero ref")
	}
	if !(MessageRef{}).IsZero() {
		t.Error("expected zero ref")
	}
}

func TestParseMessageRef_Invalid(t *testing.T) {
	for _, input := range []string{"", "42", "a:1", "1:b", "1:"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseMessageRef(input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %q, got %v", input, err)
			}
		})
	}
}

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		data   string
		action string
		arg    string
	}{
		{"login", ActionLogin, ""},
		{"my_list", ActionMyList, ""},
		{"my_list:20", ActionMyList, "20"},
		{"main_menu", ActionMainMenu, ""},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			cb := ParseCallbackData(tt.data)
			if cb.Action != tt.action || cb.Arg != tt.arg {
				t.Errorf("expected %s/%s, got %s/%s", tt.action, tt.arg, cb.Action, cb.Arg)
			}
			if cb.String() != tt.data {
				t.Errorf("expected %q, got %q", tt.data, cb.String())
			}
		})
	}
}

func TestKeyboard_Row(t *testing.T) {
	kb := (&Keyboard{}).
		Row(Button{Label: "a", Action: "x"}).
		Row(Button{Label: "b", URL: "https://example.com"}, Button{Label: "c", Action: "y"})

	if len(kb.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(kb.Rows))
	}
	if len(kb.Rows[1]) != 2 {
		t.Errorf("expected 2 buttons in second row, got %d", len(kb.Rows[1]))
	}
}
