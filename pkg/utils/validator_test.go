package utils

import (
	"strings"
	"testing"
)

type validatorFixture struct {
	Name    string   `validate:"required,max=5"`
	Code    string   `validate:"omitempty,alphanum"`
	Members []string `validate:"unique"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   validatorFixture
		wantErr string
	}{
		{"valid", validatorFixture{Name: "ok"}, ""},
		{"missing required", validatorFixture{}, "name is required"},
		{"too long", validatorFixture{Name: "toolong"}, "name must be at most 5 characters"},
		{"non alphanumeric", validatorFixture{Name: "ok", Code: "a-b"}, "code must contain only letters and digits"},
		{"duplicates", validatorFixture{Name: "ok", Members: []string{"a", "a"}}, "members contains duplicate or invalid entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error to contain %q, got %q", tt.wantErr, err.Error())
			}
		})
	}

	t.Run("joins multiple failures", func(t *testing.T) {
		err := ValidateStruct(validatorFixture{Code: "?"})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), ", ") {
			t.Fatalf("expected joined messages, got %q", err.Error())
		}
	})
}
