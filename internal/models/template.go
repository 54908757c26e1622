package models

// Template types.
const (
	TemplateTypeTrip = "trip"
	TemplateTypeLeg  = "leg"
)

// Template is a named preset for the trip-start or leg form.
type Template struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Name string            `json:"name"`
	Data map[string]string `json:"data"`
}

// ValidTemplateType reports whether t names a known form.
func ValidTemplateType(t string) bool {
	return t == TemplateTypeTrip || t == TemplateTypeLeg
}

// Clone creates a deep copy of the template.
func (t Template) Clone() Template {
	clone := t
	if t.Data == nil {
		return clone
	}
	clone.Data = make(map[string]string, len(t.Data))
	for k, v := range t.Data {
		clone.Data[k] = v
	}
	return clone
}
