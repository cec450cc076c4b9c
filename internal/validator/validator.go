package validator

import (
	"sort"
	"strings"
)

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: map[string]string{}}
}

func (v *Validator) CheckError(ok bool, key, message string) {
	if !ok {
		v.AddFieldError(key, message)
	}
}

func (v *Validator) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddFieldError(key, message string) {
	_, exists := v.Errors[key]
	if !exists {
		v.Errors[key] = message
	}
}

// Error joins the field errors in a stable order so it can be logged.
func (v *Validator) Error() string {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Errors[k])
	}
	return strings.Join(parts, "; ")
}

func NotBlank(val string) bool {
	return strings.TrimSpace(val) != ""
}

func Between(val, min, max int) bool {
	return val >= min && val <= max
}

func PermittedValue[T comparable](val T, permittedValues ...T) bool {
	for _, permitted := range permittedValues {
		if val == permitted {
			return true
		}
	}

	return false
}
