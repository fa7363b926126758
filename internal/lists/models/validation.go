package models

import (
	"regexp"

	dErrors "listmgmt/pkg/domain-errors"
)

// MaxValueLength bounds values and type tags.
const MaxValueLength = 255

// valuePattern is the single accepted character set for values and list
// types: ASCII letters, digits, underscore and hyphen.
var valuePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateValue checks length and character set of a list value.
func ValidateValue(value string) error {
	return validateToken("value", value)
}

// ValidateListType checks a type tag. Types share the value rule so a type
// can never smuggle the cache key separator.
func ValidateListType(listType string) error {
	return validateToken("list type", listType)
}

// ValidateListName checks a list display name.
func ValidateListName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "list name is required")
	}
	if len(name) > MaxValueLength {
		return dErrors.New(dErrors.CodeValidation, "list name exceeds the maximum length of 255 characters")
	}
	return nil
}

func validateToken(field, s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if len(s) > MaxValueLength {
		return dErrors.New(dErrors.CodeValidation, field+" exceeds the maximum length of 255 characters")
	}
	if !valuePattern.MatchString(s) {
		return dErrors.New(dErrors.CodeValidation, field+" contains invalid characters; only letters, digits, '_' and '-' are allowed")
	}
	return nil
}
