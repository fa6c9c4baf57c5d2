// Package validation checks configuration and graph definitions.
//
// Struct tag validation (go-playground/validator) covers field-level rules;
// the chainable Validator collects cross-field findings such as duplicate
// names. Both report an INVALID_INPUT AppError whose details list every
// offending field.
//
//	type NodeSpec struct {
//	    Name      string `yaml:"name" validate:"required"`
//	    Component string `yaml:"component" validate:"required"`
//	}
//	err := validation.Validate(spec)
//
//	v := validation.New()
//	v.Unique("nodes", names)
//	err := v.Err()
package validation
