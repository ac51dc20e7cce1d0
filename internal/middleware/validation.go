package middleware

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "macrocli/internal/errors"
	"macrocli/internal/timeseries"
)

// columnPattern matches the column names the pipeline writes
var columnPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// QueryValidator validates decoded query parameters using struct tags.
// Field names in errors come from the `query` tag.
type QueryValidator struct {
	validator *validator.Validate
}

// NewQueryValidator creates a validator with the month and column rules registered
func NewQueryValidator() *QueryValidator {
	v := validator.New()

	v.RegisterValidation("month", isMonth)
	v.RegisterValidation("column", isColumn)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{validator: v}
}

// ValidateStruct validates v and returns an *errors.APIError listing every failed field
func (qv *QueryValidator) ValidateStruct(v any) error {
	err := qv.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.ErrValidation("query", err.Error())
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// formatValidationError formats validation error messages
func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "month":
		return fmt.Sprintf("%s must be a month formatted YYYY-MM", field)
	case "column":
		return fmt.Sprintf("%s must contain column names like CPI_Total", field)
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// isMonth accepts "2006-01" and "2006-01-02"
func isMonth(fl validator.FieldLevel) bool {
	_, err := timeseries.ParseMonth(fl.Field().String())
	return err == nil
}

// isColumn validates a single column name
func isColumn(fl validator.FieldLevel) bool {
	return columnPattern.MatchString(fl.Field().String())
}
