package wizard

import "testing"

func TestRequired(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"a", true},
		{" Alice ", true},
	}

	for _, tt := range tests {
		if got := (Required{}).Validate(tt.value); got != tt.want {
			t.Errorf("Required.Validate(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true}, // blank is Required's job
		{"a@b.com", true},
		{"first.last@example.co.uk", true},
		{"a@b", false},
		{"@b.com", false},
		{"a@.com", false},
		{"a b@c.com", false},
		{"plain", false},
		{"a@@b.com", false},
	}

	for _, tt := range tests {
		if got := (Email{}).Validate(tt.value); got != tt.want {
			t.Errorf("Email.Validate(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMinLength(t *testing.T) {
	v := MinLength{N: 3}
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"ab", false},
		{" ab ", false},
		{"abc", true},
		{"åøæ", true},
	}

	for _, tt := range tests {
		if got := v.Validate(tt.value); got != tt.want {
			t.Errorf("MinLength{3}.Validate(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestChain_FirstFailureWins(t *testing.T) {
	f := NewField("name", "Name", FieldText, Required{}, MinLength{N: 3})
	if f.Error != KeyRequired {
		t.Errorf("empty value: Error = %q, want %q", f.Error, KeyRequired)
	}
	if !f.Required {
		t.Error("Required should be derived from the chain")
	}

	f.Value = "ab"
	f.revalidate()
	if f.Error != KeyMinLength {
		t.Errorf("short value: Error = %q, want %q", f.Error, KeyMinLength)
	}

	f.Value = "abc"
	f.revalidate()
	if !f.Valid || f.Error != "" {
		t.Errorf("valid value: Valid = %v, Error = %q", f.Valid, f.Error)
	}
}

func TestField_NoValidatorsIsAlwaysValid(t *testing.T) {
	f := NewField("nickname", "", "")
	if !f.Valid {
		t.Error("field without validators should be valid")
	}
	if f.Label != "nickname" || f.Type != FieldText {
		t.Errorf("defaults not applied: label %q type %q", f.Label, f.Type)
	}
}

func TestErrorMessage(t *testing.T) {
	name := NewField("name", "Name", FieldText, Required{}, MinLength{N: 3})
	if got := ErrorMessage(name); got != "Name is required" {
		t.Errorf("ErrorMessage() = %q", got)
	}

	name.Value = "Al"
	name.revalidate()
	if got := ErrorMessage(name); got != "Name must be at least 3 characters" {
		t.Errorf("ErrorMessage() = %q", got)
	}

	name.Value = "Alice"
	name.revalidate()
	if got := ErrorMessage(name); got != "" {
		t.Errorf("ErrorMessage() on valid field = %q, want empty", got)
	}
}
