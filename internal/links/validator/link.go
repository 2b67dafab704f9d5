package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookable/pkg/logger"
	"bookable/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type LinkValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewLinkValidator(log *logger.Logger) *LinkValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_clock", validateClock); err != nil {
		log.Fatal("Failed to register 'valid_clock' validator", "error", err)
	}

	log.Info("Link validator initialized successfully")

	return &LinkValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	clock := strings.TrimSpace(fl.Field().String())
	if clock == "" {
		return true
	}
	_, err := time.Parse("15:04", clock)
	return err == nil
}

func (v *LinkValidator) Validate(link *model.LinkConstraints) error {
	if err := v.validate.Struct(link); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return v.validateCrossFields(link)
}

// validateCrossFields covers the rules a single struct tag cannot express.
func (v *LinkValidator) validateCrossFields(link *model.LinkConstraints) error {
	var validationErrors ValidationErrors

	if link.StartTime != "" && link.EndTime != "" && link.StartTime >= link.EndTime {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "EndTime",
			Message: "end_time must be after start_time",
		})
	}

	if link.StartDate != "" && link.EndDate != "" && link.StartDate > link.EndDate {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "EndDate",
			Message: "end_date must not be before start_date",
		})
	}

	if link.MaxBookings != nil && link.RemainingBookings != nil && *link.RemainingBookings > *link.MaxBookings {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "RemainingBookings",
			Message: "remaining_bookings cannot exceed max_bookings",
		})
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func (v *LinkValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "valid_clock":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA timezone name", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be a phone number in E.164 format", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ObjectID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
