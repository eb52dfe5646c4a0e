package validation

import "testing"

func TestValidateClientStatus(t *testing.T) {
	t.Parallel()

	valid := []string{"pending_verification", "pending_approval", "active", "rejected", "suspended"}
	for _, s := range valid {
		if err := ValidateClientStatus(s); err != nil {
			t.Errorf("ValidateClientStatus(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "approved", "ACTIVE", "deleted"}
	for _, s := range invalid {
		if err := ValidateClientStatus(s); err == nil {
			t.Errorf("ValidateClientStatus(%q) = nil, want error", s)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tab\there"},
		{"bell\x07char", "bellchar"},
		{"\x00null", "null"},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateStructTags(t *testing.T) {
	t.Parallel()

	type payload struct {
		Status string `validate:"required,client_status"`
	}

	if err := Validate.Struct(payload{Status: "active"}); err != nil {
		t.Errorf("valid status rejected: %v", err)
	}
	if err := Validate.Struct(payload{Status: "bogus"}); err == nil {
		t.Error("invalid status accepted")
	}
}
