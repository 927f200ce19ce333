// Package schema is the declarative field validation and sanitization
// engine. Rules live in a static table, one per input field; the engine
// walks every field, collects every error, and only emits sanitized values
// for fields that passed all structural checks. Rejected input is never
// partially transformed.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldType selects the format check applied after length checks.
type FieldType string

const (
	TypeText  FieldType = "text"
	TypeEmail FieldType = "email"
)

// FieldRule is one row of the validation table. Rules are immutable
// configuration; nothing in a request can alter them.
type FieldRule struct {
	Required  bool
	Type      FieldType
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Blacklist lists forbidden substrings, matched case-insensitively
	// against the trimmed value.
	Blacklist []string
}

// Schema is an ordered set of field rules.
type Schema struct {
	order []string
	rules map[string]FieldRule
}

// Result is the outcome of validating one submission.
type Result struct {
	Valid bool
	// Errors maps field name to a human-readable message. Non-empty iff
	// Valid is false.
	Errors map[string]string
	// Sanitized holds encoded values for fields that passed every check.
	// Fields with errors are absent.
	Sanitized map[string]string
}

// New builds a schema from rules in the given order.
func New(fields []string, rules map[string]FieldRule) *Schema {
	return &Schema{order: fields, rules: rules}
}

// emailValidator backs the email format check. go-playground/validator's
// email rule matches what mail clients accept more closely than a
// hand-rolled regexp would.
var emailValidator = validator.New()

// Default returns the contact form schema.
func Default() *Schema {
	return New(
		[]string{"name", "email", "subject", "message", "budget", "timeline"},
		map[string]FieldRule{
			"name": {
				Required:  true,
				Type:      TypeText,
				MinLength: 2,
				MaxLength: 100,
				Pattern:   regexp.MustCompile(`^[\p{L}\p{M}' .-]+$`),
			},
			"email": {
				Required:  true,
				Type:      TypeEmail,
				MaxLength: 255,
			},
			"subject": {
				Required:  true,
				Type:      TypeText,
				MinLength: 3,
				MaxLength: 200,
			},
			"message": {
				Required:  true,
				Type:      TypeText,
				MinLength: 10,
				MaxLength: 5000,
				Blacklist: []string{"<script", "javascript:", "onclick=", "onerror=", "viagra", "casino"},
			},
			"budget": {
				Type:      TypeText,
				MaxLength: 100,
			},
			"timeline": {
				Type:      TypeText,
				MaxLength: 100,
			},
		},
	)
}

// Validate runs every rule against the raw field map. All fields are
// processed; the engine never stops at the first failure, so a user fixing
// a form sees every problem at once.
func (s *Schema) Validate(raw map[string]string) *Result {
	result := &Result{
		Errors:    make(map[string]string),
		Sanitized: make(map[string]string),
	}

	for _, field := range s.order {
		rule := s.rules[field]
		label := fieldLabel(field)
		value := strings.TrimSpace(raw[field])

		if value == "" {
			if rule.Required {
				result.Errors[field] = fmt.Sprintf("%s is required", label)
			} else {
				result.Sanitized[field] = ""
			}
			continue
		}

		if rule.MinLength > 0 && len([]rune(value)) < rule.MinLength {
			result.Errors[field] = fmt.Sprintf("%s must be at least %d characters", label, rule.MinLength)
			continue
		}
		if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
			result.Errors[field] = fmt.Sprintf("%s must be at most %d characters", label, rule.MaxLength)
			continue
		}

		if rule.Type == TypeEmail {
			if err := emailValidator.Var(value, "email"); err != nil {
				result.Errors[field] = "Please provide a valid email address"
				continue
			}
		} else if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			result.Errors[field] = fmt.Sprintf("%s contains invalid characters", label)
			continue
		}

		if blacklisted(value, rule.Blacklist) {
			result.Errors[field] = fmt.Sprintf("%s contains prohibited content", label)
			continue
		}

		result.Sanitized[field] = Sanitize(value)
	}

	result.Valid = len(result.Errors) == 0
	if !result.Valid {
		// Rejected submissions never expose partially transformed values.
		result.Sanitized = nil
	}
	return result
}

func blacklisted(value string, blacklist []string) bool {
	if len(blacklist) == 0 {
		return false
	}
	lowered := strings.ToLower(value)
	for _, banned := range blacklist {
		if strings.Contains(lowered, banned) {
			return true
		}
	}
	return false
}

// fieldLabel derives the human-readable field name used in error messages.
func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
