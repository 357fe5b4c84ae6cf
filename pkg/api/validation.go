package api

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MinPasswordLength int
	MaxPasswordLength int
	MaxNameLength     int
	MaxFieldLength    int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinPasswordLength: 6,
		MaxPasswordLength: 128,
		MaxNameLength:     100,
		MaxFieldLength:    255,
	}
}

// ValidateRegister checks a RegisterUserRequest. It returns an *APIError
// describing the first failure, or nil if the request is valid.
func ValidateRegister(req *RegisterUserRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Name) == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if cfg.MaxNameLength > 0 && len(req.Name) > cfg.MaxNameLength {
		return NewInvalidRequestError("name",
			fmt.Sprintf("name exceeds maximum of %d characters", cfg.MaxNameLength))
	}

	if strings.TrimSpace(req.Email) == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return NewInvalidRequestError("email", "email is not a valid address")
	}

	if len(req.Password) < cfg.MinPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password must be at least %d characters", cfg.MinPasswordLength))
	}
	if cfg.MaxPasswordLength > 0 && len(req.Password) > cfg.MaxPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password exceeds maximum of %d characters", cfg.MaxPasswordLength))
	}

	return nil
}

// ValidateLogin only checks presence; credential checks happen against the
// store so that every failure looks the same to the caller.
func ValidateLogin(req *LoginUserRequest) *APIError {
	if strings.TrimSpace(req.Email) == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// ValidateRecordFields enforces length limits on record columns.
func ValidateRecordFields(f *RecordFields, cfg ValidationConfig) *APIError {
	fields := []struct {
		param string
		value string
	}{
		{"last_updated_by", f.LastUpdatedBy},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"mi", f.MI},
		{"course", f.Course},
		{"year_level", f.YearLevel},
		{"payment_for", f.PaymentFor},
		{"amount", f.Amount},
		{"received_by", f.ReceivedBy},
	}
	for _, fld := range fields {
		if cfg.MaxFieldLength > 0 && len(fld.value) > cfg.MaxFieldLength {
			return NewInvalidRequestError(fld.param,
				fmt.Sprintf("%s exceeds maximum of %d characters", fld.param, cfg.MaxFieldLength))
		}
	}
	if strings.TrimSpace(f.FirstName) == "" {
		return NewInvalidRequestError("first_name", "first_name is required")
	}
	if strings.TrimSpace(f.LastName) == "" {
		return NewInvalidRequestError("last_name", "last_name is required")
	}
	return nil
}
