package errors

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("title", "is required", "")

	if err.Field != "title" {
		t.Errorf("Expected field to be 'title', got '%s'", err.Field)
	}

	expected := "validation error on field 'title': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("quarter", "must be a valid quarter (Q1, Q2, Q3, Q4)", "Q5"))
	if !strings.Contains(errs.Error(), "quarter") {
		t.Errorf("Expected single-error message to name the field, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("time_limit_minutes", "must be at least 1", 0))
	expected := "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("passing_score", "must be at most 100", "max", 120)

	if err.Rule != "max" {
		t.Errorf("Expected rule to be 'max', got '%s'", err.Rule)
	}
	if err.Value != 120 {
		t.Errorf("Expected value to be 120, got '%v'", err.Value)
	}
}

func TestToValidationErrors(t *testing.T) {
	type createQuiz struct {
		Title            string `validate:"required,max=255"`
		TimeLimitMinutes int    `validate:"required,min=1,max=300"`
	}

	v := validator.New()
	err := v.Struct(createQuiz{TimeLimitMinutes: 500})

	errs := ToValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 validation errors, got %d", len(errs))
	}

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}

	if byField["Title"].Message != "is required" {
		t.Errorf("Expected 'is required' for missing title, got '%s'", byField["Title"].Message)
	}
	if byField["TimeLimitMinutes"].Message != "must be at most 300" {
		t.Errorf("Expected max message for time limit, got '%s'", byField["TimeLimitMinutes"].Message)
	}
	if byField["TimeLimitMinutes"].Rule != "max" {
		t.Errorf("Expected rule 'max', got '%s'", byField["TimeLimitMinutes"].Rule)
	}
}

func TestToValidationErrors_NonValidatorError(t *testing.T) {
	errs := ToValidationErrors(NewValidationError("x", "y", nil))
	if len(errs) != 0 {
		t.Errorf("Expected no conversion for non-validator errors, got %d", len(errs))
	}
}
