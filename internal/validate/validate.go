// Package validate checks intake answers against the form schema. Errors are
// returned as data (field id -> message) and never as Go errors: a failed
// validation is an expected, recoverable outcome the form surfaces to staff.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"caseflow/internal/schema"
)

// Errors maps field ids to their first failing check's message. Absence of a
// key means the field is valid; an empty map means the whole section passed.
type Errors map[string]string

// Field runs the per-field pipeline and returns the first failure, or ""
// when the field is valid. now anchors the future-date rule.
func Field(f schema.Field, value any, answers schema.Answers, now time.Time) string {
	// Invisible fields can never fail, whatever their value holds.
	if f.VisibleWhen != nil && !f.VisibleWhen(answers) {
		return ""
	}

	required := f.Required
	if f.RequiredWhen != nil {
		required = f.RequiredWhen(answers)
	}

	if required {
		if isEmpty(value) {
			return fmt.Sprintf("%s is required", f.Label)
		}
		if arr, ok := toStringSlice(value); ok && len(arr) == 0 {
			return "Please select at least one option"
		}
		if f.Type == schema.TypeCheckbox && !isTrue(value) {
			return "You must confirm this"
		}
	}

	// Optional and empty: nothing further to check.
	if isEmpty(value) {
		return ""
	}

	if s, ok := value.(string); ok {
		if f.Validation.Pattern != nil && !f.Validation.Pattern.MatchString(s) {
			if f.Validation.PatternMessage != "" {
				return f.Validation.PatternMessage
			}
			return "Invalid format"
		}
		if f.Validation.MinLength > 0 && len(s) < f.Validation.MinLength {
			return fmt.Sprintf("Must be at least %d characters", f.Validation.MinLength)
		}
	}

	if f.Type == schema.TypeDate {
		if s, ok := value.(string); ok && s != "" {
			if d, err := time.Parse("2006-01-02", s); err == nil && d.After(now) {
				return "Date cannot be in the future"
			}
		}
	}

	if f.Type == schema.TypeNumber {
		if n, ok := toNumber(value); ok {
			if f.Validation.Min != nil && n < *f.Validation.Min {
				return fmt.Sprintf("Must be at least %v", *f.Validation.Min)
			}
			if f.Validation.Max != nil && n > *f.Validation.Max {
				return fmt.Sprintf("Must be no more than %v", *f.Validation.Max)
			}
		}
	}

	return ""
}

// Section validates every field declared in the given section and collects
// the failures. Fields outside the section are ignored.
func Section(sectionID string, fields []schema.Field, answers schema.Answers, now time.Time) Errors {
	errs := Errors{}
	for _, f := range schema.FieldsFor(sectionID, fields) {
		if msg := Field(f, answers[f.ID], answers, now); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}

// All validates every section in one pass, for submissions that arrive whole
// (CLI answer files, API bodies) rather than step by step.
func All(sections []schema.Section, fields []schema.Field, answers schema.Answers, now time.Time) Errors {
	errs := Errors{}
	for _, s := range sections {
		for id, msg := range Section(s.ID, fields, answers, now) {
			errs[id] = msg
		}
	}
	return errs
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// isTrue accepts the literal true and the "true" string, matching the two
// shapes checkbox answers arrive in (JSON bodies vs. CLI answer files and
// saved drafts).
func isTrue(value any) bool {
	return value == true || value == "true"
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}
	return nil, false
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}
