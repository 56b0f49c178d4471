package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dtroode/identity-server/internal/model"
)

const (
	maxFieldLen = 100
	maxPhoneLen = 10
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", model.ErrValidation, field)
	}
	return nil
}

func maxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%w: %s must be at most %d characters", model.ErrValidation, field, limit)
	}
	return nil
}

func validateRegistration(p RegisterParams) error {
	for _, check := range []error{
		required("username", p.Username),
		required("password", p.Password),
		required("first_name", p.FirstName),
		required("last_name", p.LastName),
		maxLen("username", p.Username, maxFieldLen),
		maxLen("first_name", p.FirstName, maxFieldLen),
		maxLen("last_name", p.LastName, maxFieldLen),
		maxLen("address", p.Address, maxFieldLen),
		maxLen("phone", p.Phone, maxPhoneLen),
	} {
		if check != nil {
			return check
		}
	}
	return nil
}

func validateProfile(u model.ProfileUpdate) error {
	check := func(field string, v *string, limit int) error {
		if v == nil {
			return nil
		}
		return maxLen(field, *v, limit)
	}
	for _, err := range []error{
		check("first_name", u.FirstName, maxFieldLen),
		check("last_name", u.LastName, maxFieldLen),
		check("address", u.Address, maxFieldLen),
		check("phone", u.Phone, maxPhoneLen),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
