package wizard

import (
	"fmt"
	"strconv"
)

// Field types.
const (
	FieldSelect = "select"
	FieldText   = "text"
	FieldBool   = "bool"
	FieldInt    = "int"
)

// Field is one input in a form. Select fields carry their exhaustive option
// set; Labels optionally maps option values to human labels for listings.
type Field struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Required bool              `json:"required"`
	Default  string            `json:"default,omitempty"`
	Options  []string          `json:"options,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Form is what the UI renders for one wizard step.
type Form struct {
	Step   Step    `json:"step"`
	Fields []Field `json:"fields"`
}

// validate checks submitted input against the form: required fields
// present (or defaulted), select values inside the option set, ints and
// bools parseable. Defaults are written back into input so handlers see a
// complete set.
func (f *Form) validate(input map[string]string) error {
	for _, field := range f.Fields {
		value, ok := input[field.Name]
		if !ok || value == "" {
			if field.Default != "" {
				input[field.Name] = field.Default
				value = field.Default
			} else if field.Required {
				return fmt.Errorf("missing required field %q", field.Name)
			} else {
				continue
			}
		}

		switch field.Type {
		case FieldSelect:
			if !contains(field.Options, value) {
				return fmt.Errorf("invalid choice %q for field %q", value, field.Name)
			}
		case FieldBool:
			if _, err := strconv.ParseBool(value); err != nil {
				return fmt.Errorf("field %q must be a boolean: %w", field.Name, err)
			}
		case FieldInt:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("field %q must be an integer: %w", field.Name, err)
			}
			if n <= 0 {
				return fmt.Errorf("field %q must be positive", field.Name)
			}
		}
	}

	return nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func selectField(name string, options []string) Field {
	return Field{Name: name, Type: FieldSelect, Required: true, Options: options}
}
