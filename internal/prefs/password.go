package prefs

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 8

// Messages shown by the password-change form.
const (
	MsgFieldsRequired   = "All fields are required"
	MsgPasswordMismatch = "New passwords do not match"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgPasswordUpdated  = "Password updated successfully!"
)

// PasswordChange is the password-change form.
type PasswordChange struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

// FormError is an inline validation message. Nothing is submitted when a
// form fails validation.
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

// Validate checks the form in the order the form reports problems: missing
// fields first, then mismatch, then length. Only the first problem is
// reported.
func (p PasswordChange) Validate() error {
	required := validation.Required.Error(MsgFieldsRequired)
	checks := []func() error{
		func() error { return validation.Validate(p.Current, required) },
		func() error { return validation.Validate(p.New, required) },
		func() error { return validation.Validate(p.Confirm, required) },
		func() error {
			return validation.Validate(p.Confirm, validation.By(func(v interface{}) error {
				if v.(string) != p.New {
					return errors.New(MsgPasswordMismatch)
				}
				return nil
			}))
		},
		func() error {
			return validation.Validate(p.New,
				validation.RuneLength(MinPasswordLength, 0).Error(MsgPasswordTooShort))
		},
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return &FormError{Message: err.Error()}
		}
	}
	return nil
}
