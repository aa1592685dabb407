package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/scholaris-edu/lms-service/internal/errors"
	"github.com/scholaris-edu/lms-service/internal/models"
)

// Validator wraps the struct validator with this service's custom rules
// registered, so every consumer shares one configured instance.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate runs struct-tag validation and converts failures to the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MultipleChoice,
		models.TrueFalse,
		models.ShortAnswer,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateQuarter(fl validator.FieldLevel) bool {
	validQuarters := []models.Quarter{
		models.QuarterFirst,
		models.QuarterSecond,
		models.QuarterThird,
		models.QuarterFourth,
	}

	value := fl.Field().String()
	for _, validQuarter := range validQuarters {
		if string(validQuarter) == value {
			return true
		}
	}
	return false
}

func ValidateGradeComponent(fl validator.FieldLevel) bool {
	validComponents := []models.GradeComponent{
		models.ComponentWrittenWork,
		models.ComponentPerformanceTask,
		models.ComponentQuarterlyExam,
	}

	value := fl.Field().String()
	for _, validComponent := range validComponents {
		if string(validComponent) == value {
			return true
		}
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleAdmin,
		models.RoleTeacher,
		models.RoleStudent,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateQuizStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.QuizStatus{
		models.QuizDraft,
		models.QuizScheduled,
		models.QuizOpen,
		models.QuizClosed,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("quarter", ValidateQuarter)
	validate.RegisterValidation("grade_component", ValidateGradeComponent)
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("quiz_status", ValidateQuizStatus)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
