// Package validate holds the client-side input checks applied before a
// request is sent. Messages mirror the server's own validation wording so a
// field rejected locally reads the same as one rejected remotely.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	uuidPattern       = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)
	numberOnlyPattern = regexp.MustCompile(`^[0-9]+$`)
	emailPattern      = regexp.MustCompile(`^[\p{L}0-9]+([._+-][\p{L}0-9]+)*@([\p{L}0-9]+(-[\p{L}0-9]+)*\.)+\p{L}{2,190}$`)
	usernamePattern   = regexp.MustCompile(`^[\p{L}0-9_-]{3,100}$`)
	namePattern       = regexp.MustCompile(`^[\p{L} .'-]+$`)
	roleNamePattern   = regexp.MustCompile(`^[\p{L}0-9_]+$`)
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Email checks the address shape and the 64-character local-part limit.
func Email(email string) error {
	if blank(email) {
		return errors.New("Email cannot be null or blank")
	}
	at := strings.Index(email, "@")
	if at < 1 || at > 64 || !emailPattern.MatchString(email) {
		return errors.New("Email is of invalid format")
	}
	return nil
}

func Username(username string) error {
	if blank(username) {
		return errors.New("Username cannot be null or blank")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("Username is invalid as it can only contain letters, digits, underscores, and hyphens and must be between 3 and 100 characters long")
	}
	return nil
}

// Password requires a digit, a lowercase letter, an uppercase letter and a
// special character, 8 to 255 characters.
func Password(password string) error {
	if blank(password) {
		return errors.New("Password cannot be null or blank")
	}
	if len(password) < 8 || len(password) > 255 || !hasPasswordClasses(password) {
		return errors.New("Password is invalid as it must contain at least one digit, one lowercase letter, one uppercase letter, and one special character and must be between 8 and 255 characters long")
	}
	return nil
}

func hasPasswordClasses(password string) bool {
	var digit, lower, upper, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, r):
			special = true
		}
	}
	return digit && lower && upper && special
}

func personName(label, name string, required bool) error {
	if name == "" {
		if required {
			return fmt.Errorf("%s cannot be null or blank", label)
		}
		return nil
	}
	if blank(name) {
		return fmt.Errorf("%s cannot be blank if provided", label)
	}
	if len(name) > 50 {
		return fmt.Errorf("%s must be at most 50 characters long", label)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s is invalid as it can only contain letters, spaces, periods, apostrophes, and hyphens", label)
	}
	return nil
}

func FirstName(name string) error  { return personName("First name", name, true) }
func MiddleName(name string) error { return personName("Middle name", name, false) }
func LastName(name string) error   { return personName("Last name", name, false) }

// OTP requires exactly length digits.
func OTP(otp string, length int) error {
	if blank(otp) {
		return errors.New("OTP cannot be null or blank")
	}
	if len(otp) != length {
		return fmt.Errorf("OTP must be exactly %d characters long", length)
	}
	if !numberOnlyPattern.MatchString(otp) {
		return errors.New("OTP must contain numbers only")
	}
	return nil
}

func UUID(id string) error {
	if blank(id) {
		return errors.New("UUID cannot be null or blank")
	}
	if !uuidPattern.MatchString(id) {
		return errors.New("UUID is of invalid format")
	}
	return nil
}

func RoleName(roleName string) error {
	if blank(roleName) {
		return errors.New("Role name cannot be null or blank")
	}
	if len(roleName) > 100 {
		return errors.New("Role name must be at most 100 characters long")
	}
	if !roleNamePattern.MatchString(roleName) {
		return errors.New("Role name is invalid as it can only contain letters, digits, and underscores")
	}
	return nil
}

func PermissionName(permissionName string) error {
	if blank(permissionName) {
		return errors.New("Permission name cannot be null or blank")
	}
	if len(permissionName) > 100 {
		return errors.New("Permission name must be at most 100 characters long")
	}
	if !roleNamePattern.MatchString(permissionName) {
		return errors.New("Permission name is invalid as it can only contain letters, digits, and underscores")
	}
	return nil
}

// UserIdentifier accepts a username, an email address or an account UUID.
func UserIdentifier(input string) error {
	if blank(input) {
		return errors.New("Identifier cannot be null or blank")
	}
	if Username(input) == nil || Email(input) == nil || UUID(input) == nil {
		return nil
	}
	return errors.New("Invalid identifier format (must be Username, Email, or UUID)")
}
