package models

type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters defines the JSON Schema for function parameters
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// PropertyType returns the declared JSON type of a parameter, or "" if the
// parameter is not declared.
func (p Parameters) PropertyType(name string) string {
	prop, ok := p.Properties[name].(map[string]interface{})
	if !ok {
		return ""
	}
	t, _ := prop["type"].(string)
	return t
}

// ItemsType returns the declared item type of an array parameter.
func (p Parameters) ItemsType(name string) string {
	prop, ok := p.Properties[name].(map[string]interface{})
	if !ok {
		return ""
	}
	items, ok := prop["items"].(map[string]interface{})
	if !ok {
		return ""
	}
	t, _ := items["type"].(string)
	return t
}

// IsRequired reports whether name appears in the required list.
func (p Parameters) IsRequired(name string) bool {
	for _, r := range p.Required {
		if r == name {
			return true
		}
	}
	return false
}
