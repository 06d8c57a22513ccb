// Package schema declares the intake form: ordered sections, fields, their
// validation constraints, and the visibility/required predicates that make
// parts of the form conditional on earlier answers. The validation engine
// and the case builder consume this shape; rendering is someone else's job.
package schema

import "regexp"

// Answers is the flat dot-keyed answer map accumulated across form steps.
type Answers map[string]any

// Predicate decides visibility or requiredness from the full answer set.
// Predicates are evaluated fresh on every validation pass.
type Predicate func(Answers) bool

type FieldType string

const (
	TypeText        FieldType = "text"
	TypeEmail       FieldType = "email"
	TypeTel         FieldType = "tel"
	TypeDate        FieldType = "date"
	TypeNumber      FieldType = "number"
	TypeSelect      FieldType = "select"
	TypeRadio       FieldType = "radio"
	TypeCheckbox    FieldType = "checkbox"
	TypeTextarea    FieldType = "textarea"
	TypeMultiselect FieldType = "multiselect"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Constraints are the per-field validation rules. Zero values mean "no rule";
// Min/Max are pointers so a bound of zero stays expressible.
type Constraints struct {
	Pattern        *regexp.Regexp `json:"-"`
	PatternMessage string         `json:"pattern_message,omitempty"`
	MinLength      int            `json:"min_length,omitempty"`
	MaxLength      int            `json:"max_length,omitempty"`
	Min            *float64       `json:"min,omitempty"`
	Max            *float64       `json:"max,omitempty"`
}

// Field is one form input. ID is dot-namespaced as "<section>.<property>",
// where the prefix names the case sub-record the answer routes into.
// RequiredWhen, when set, takes precedence over Required.
type Field struct {
	ID           string      `json:"id"`
	Section      string      `json:"section"`
	Label        string      `json:"label"`
	Description  string      `json:"description,omitempty"`
	Type         FieldType   `json:"type"`
	Required     bool        `json:"required"`
	RequiredWhen Predicate   `json:"-"`
	Options      []Option    `json:"options,omitempty"`
	Validation   Constraints `json:"validation"`
	VisibleWhen  Predicate   `json:"-"`
}

// Section is one step of the multi-step form; declaration order is step order.
type Section struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ShortTitle  string `json:"short_title"`
	Description string `json:"description"`
}

// FieldsFor returns the fields belonging to a section, in declaration order.
func FieldsFor(sectionID string, fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if f.Section == sectionID {
			out = append(out, f)
		}
	}
	return out
}

func num(v float64) *float64 { return &v }
