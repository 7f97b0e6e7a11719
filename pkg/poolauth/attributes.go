package poolauth

import "github.com/wombatcreek/poolauth/pkg/idp"

// Attributes is a user's attribute set in map form, which is what callers
// want to work with; the wire shape is the provider's name/value list.
type Attributes map[string]string

// attributeList converts to the provider's list shape with deterministic
// behaviour left to the provider (it does not care about ordering).
func attributeList(attrs Attributes) []idp.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]idp.Attribute, 0, len(attrs))
	for name, value := range attrs {
		out = append(out, idp.Attribute{Name: name, Value: value})
	}
	return out
}

// attributeMap flattens the provider's list shape. Duplicate names keep the
// last value, matching the provider's own precedence.
func attributeMap(list []idp.Attribute) Attributes {
	out := make(Attributes, len(list))
	for _, a := range list {
		out[a.Name] = a.Value
	}
	return out
}

// Rename returns a copy with attribute names swapped per mapping. Names
// absent from mapping carry over untouched. Useful for bridging a pool's
// custom: attribute names to application field names.
func (a Attributes) Rename(mapping map[string]string) Attributes {
	out := make(Attributes, len(a))
	for name, value := range a {
		if renamed, ok := mapping[name]; ok {
			name = renamed
		}
		out[name] = value
	}
	return out
}
