package services

import (
	"errors"
	"fmt"

	apperrors "github.com/scholaris-edu/lms-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Quiz specific errors
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuizAccessDenied   = errors.New("access denied to quiz")
	ErrQuizNotEditable    = errors.New("quiz cannot be edited after attempts exist")
	ErrQuizNotOpen        = errors.New("quiz is not open for attempts")
	ErrQuizHasNoQuestions = errors.New("quiz has no questions")
	ErrQuizInvalidWindow  = errors.New("quiz close time must be after open time")

	// Question specific errors
	ErrQuestionNotFound       = errors.New("question not found")
	ErrQuestionInvalidType    = errors.New("invalid question type")
	ErrQuestionInvalidContent = errors.New("invalid question content for type")
	ErrChoicesRequired        = errors.New("objective question requires choices with exactly one correct")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptNotActive        = errors.New("attempt is not in progress")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptLimitExceeded    = errors.New("maximum attempts exceeded")
	ErrAttemptTimeExpired      = errors.New("attempt time limit has expired")

	// Grading specific errors
	ErrGradingNotAllowed   = errors.New("answer does not require manual grading")
	ErrGradingInvalidScore = errors.New("points awarded exceed question points")
	ErrAnswerNotFound      = errors.New("answer not found")

	// Gradebook errors
	ErrGradeNotFound    = errors.New("quarterly grade not found")
	ErrInvalidWeights   = errors.New("component weights must sum to 1.0")
	ErrStudentNotFound  = errors.New("student not found")
	ErrOfferingNotFound = errors.New("subject offering not found")

	// Forecast errors
	ErrInsufficientData = errors.New("not enough graded quizzes to forecast")

	// User/Permission errors
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidRole             = errors.New("invalid user role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound reports whether err maps to a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrGradeNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrOfferingNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsPermissionDenied reports whether err maps to a 403.
func IsPermissionDenied(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientPermissions) ||
		errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrAttemptAccessDenied) ||
		errors.As(err, &pe)
}
