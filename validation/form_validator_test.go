package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCreateStrict(t *testing.T) {
	validator := NewFormValidator(true)

	tests := []struct {
		name        string
		inputName   string
		inputPrice  string
		wantName    string
		wantPrice   string
		wantErr     bool
		errField    string
		errContains string
	}{
		{"valid", "  Aspirin  ", "4.50", "Aspirin", "4.5", false, "", ""},
		{"zero price", "Water", "0", "Water", "0", false, "", ""},
		{"html name kept as is", "<b>Bold</b> & co", "1", "<b>Bold</b> & co", "1", false, "", ""},
		{"trailing text in price", "Aspirin", "3 EUR", "Aspirin", "3", false, "", ""},
		{"empty name", "   ", "1", "", "", true, "name", "cannot be empty"},
		{"long name", strings.Repeat("a", MaxNameLength+1), "1", "", "", true, "name", "too long"},
		{"control characters", "Asp\x00irin", "1", "", "", true, "name", "control characters"},
		{"newline inside name", "Asp\nirin", "1", "", "", true, "name", "control characters"},
		{"not a number", "Aspirin", "abc", "", "", true, "price", "must be a number"},
		{"empty price", "Aspirin", "", "", "", true, "price", "must be a number"},
		{"infinite price", "Aspirin", "Infinity", "", "", true, "price", "must be finite"},
		{"negative price", "Aspirin", "-2", "", "", true, "price", "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := validator.ValidateCreate(tt.inputName, tt.inputPrice)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got request %+v", request)
				}
				var fieldErr *FieldError
				if !errors.As(err, &fieldErr) {
					t.Fatalf("Expected *FieldError, got %T", err)
				}
				if fieldErr.Field != tt.errField {
					t.Errorf("Expected field %q, got %q", tt.errField, fieldErr.Field)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if request.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, request.Name)
			}
			if request.Price != tt.wantPrice {
				t.Errorf("Expected price %q, got %q", tt.wantPrice, request.Price)
			}
		})
	}
}

func TestValidateCreateNameLengthCountsCharacters(t *testing.T) {
	validator := NewFormValidator(true)

	// 200 two-byte characters is still 200 characters
	name := strings.Repeat("é", MaxNameLength)
	if _, err := validator.ValidateCreate(name, "1"); err != nil {
		t.Errorf("Expected %d accented characters to be accepted, got %v", MaxNameLength, err)
	}
}

func TestValidateCreateLenient(t *testing.T) {
	validator := NewFormValidator(false)

	tests := []struct {
		inputName  string
		inputPrice string
		wantName   string
		wantPrice  string
	}{
		{"  Aspirin ", "abc", "Aspirin", "NaN"},
		{"", "", "", "NaN"},
		{"Ibuprofen", "-3", "Ibuprofen", "-3"},
		{"Paracetamol", "2.50", "Paracetamol", "2.5"},
	}

	for _, tt := range tests {
		request, err := validator.ValidateCreate(tt.inputName, tt.inputPrice)
		if err != nil {
			t.Fatalf("Lenient validator should never fail, got %v", err)
		}
		if request.Name != tt.wantName || request.Price != tt.wantPrice {
			t.Errorf("ValidateCreate(%q, %q) = %+v, expected name %q price %q",
				tt.inputName, tt.inputPrice, request, tt.wantName, tt.wantPrice)
		}
	}
}
