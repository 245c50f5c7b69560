package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid name", input: "Asha", wantErr: false},
		{name: "single character", input: "A", wantErr: false},
		{name: "cyrillic name", input: "Радха", wantErr: false},
		{name: "name with spaces", input: "Asha Devi", wantErr: false},
		{name: "max length", input: strings.Repeat("a", MaxNameLen), wantErr: false},
		{name: "empty name", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxNameLen+1), wantErr: true},
		{name: "control character", input: "Asha\x00", wantErr: true},
		{name: "newline", input: "Asha\nDevi", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDOB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid date", input: "2000-01-01", wantErr: false},
		{name: "leap day", input: "1996-02-29", wantErr: false},
		{name: "omitted date", input: "", wantErr: false},
		{name: "wrong format", input: "01.01.2000", wantErr: true},
		{name: "wrong order", input: "01-01-2000", wantErr: true},
		{name: "nonexistent day", input: "2001-02-30", wantErr: true},
		{name: "future date", input: "2999-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDOB(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid password", input: "secret1", wantErr: false},
		{name: "exactly min length", input: strings.Repeat("x", MinPasswordLen), wantErr: false},
		{name: "empty password", input: "", wantErr: true},
		{name: "too short", input: "12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
