package errors

import (
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Nat.add_comm", false},
		{"valid prime", "foo'", false},
		{"valid unicode", "Real.π_pos", false},
		{"valid user node", "custom-1700000000000", false},
		{"valid disambiguated", "foo@Basic", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 1025), true},
		{"edge separator", "a->b", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInput {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateEdgeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "A->B", false},
		{"valid qualified", "Nat.succ->Nat.zero", false},

		{"no separator", "AB", true},
		{"empty source", "->B", true},
		{"empty target", "A->", true},
		{"double separator", "A->B->C", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdgeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEdgeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateProjectPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute", "/home/user/proj", false},
		{"absolute trailing slash", "/home/user/proj/", false},

		{"empty", "", true},
		{"relative", "proj", true},
		{"dot relative", "./proj", true},
		{"control char", "/home/\x01proj", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidPath {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
