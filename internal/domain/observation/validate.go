package observation

import (
	"encoding/json"
	"strings"

	"github.com/vetpms/vetpms/pkg/apperr"
)

// ValidateValue checks a recorded value against the template's data type
// and constraints. The switch is exhaustive over the DataType set; a
// template carrying a type outside it is corrupt data, reported as a
// configuration error rather than blamed on the caller.
func ValidateValue(tpl *Template, value interface{}) error {
	switch tpl.DataType {
	case TypeNumeric, TypeScale:
		n, ok := numericValue(value)
		if !ok {
			return apperr.Validation("value for %q must be a number", tpl.Name)
		}
		if tpl.MinValue != nil && n < *tpl.MinValue {
			return apperr.Validation("value %v is below the minimum %v", n, *tpl.MinValue)
		}
		if tpl.MaxValue != nil && n > *tpl.MaxValue {
			return apperr.Validation("value %v is above the maximum %v", n, *tpl.MaxValue)
		}
		return nil

	case TypeBoolean:
		// Strictly a JSON boolean. "true" the string is not true the value.
		if _, ok := value.(bool); !ok {
			return apperr.Validation("value for %q must be a boolean", tpl.Name)
		}
		return nil

	case TypeEnumeration:
		if len(tpl.Options) == 0 {
			return apperr.Configuration("enumeration template %q has no options", tpl.Name)
		}
		s, ok := value.(string)
		if !ok {
			return apperr.Validation("value for %q must be one of: %s", tpl.Name, strings.Join(tpl.Options, ", "))
		}
		for _, opt := range tpl.Options {
			if s == opt {
				return nil
			}
		}
		return apperr.Validation("value %q is not allowed; must be one of: %s", s, strings.Join(tpl.Options, ", "))

	case TypeText:
		if _, ok := value.(string); !ok {
			return apperr.Validation("value for %q must be text", tpl.Name)
		}
		return nil

	case TypeImage:
		ref, ok := value.(string)
		if !ok || ref == "" {
			return apperr.Validation("value for %q must be a non-empty image reference", tpl.Name)
		}
		return nil

	case TypeNote:
		return nil

	default:
		return apperr.Configuration("template %q has unknown data type %q", tpl.Name, tpl.DataType)
	}
}

// numericValue normalizes the numeric shapes a value can arrive in. JSON
// decoding yields float64; direct Go callers may pass integers.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
