package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single letter", "X", false},
		{"word", "junction", false},
		{"unicode", "węzeł", false},
		{"with spaces", "left arm", false},

		{"empty", "", true},
		{"newline", "a\nb", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGraphName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "host", false},
		{"with dash", "host-1", false},
		{"with dot", "grammar.v2", false},
		{"with underscore", "my_graph", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"leading dot", ".hidden", true},
		{"space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGraphName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGraphName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateGraphName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "B.dot", false},
		{"nested", "rules/B.json", false},
		{"parent", "../shared/B.dot", false},
		{"absolute", "/tmp/B.dot", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "B\x00.dot", true},
		{"backslash", "rules\\B.dot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
