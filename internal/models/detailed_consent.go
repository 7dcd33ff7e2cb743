package models

// DetailedConsent is the read-only composite view joining a consent with its
// authorization resources, account mappings and attributes. Produced by
// retrieval and search operations, never persisted directly.
type DetailedConsent struct {
	Consent
	Attributes    map[string]string `json:"attributes,omitempty"`
	AuthResources []AuthResource    `json:"authorizations"`
	Mappings      []ConsentMapping  `json:"mappings"`
}

// ActiveMappings returns the subset of mappings that are currently active.
func (d *DetailedConsent) ActiveMappings() []ConsentMapping {
	var active []ConsentMapping
	for _, m := range d.Mappings {
		if m.MappingStatus == MappingStatusActive {
			active = append(active, m)
		}
	}
	return active
}

// MappingsForAuth returns the mappings bound to one authorization resource.
func (d *DetailedConsent) MappingsForAuth(authID string) []ConsentMapping {
	var out []ConsentMapping
	for _, m := range d.Mappings {
		if m.AuthID == authID {
			out = append(out, m)
		}
	}
	return out
}
