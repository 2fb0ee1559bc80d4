package jsonapi

// ResourceBuilder builds a Resource.
type ResourceBuilder struct {
	resource Resource
}

// NewResource starts a resource of the given type and id.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr sets one attribute.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	b.resource.Attributes[key] = value
	return b
}

// HasMany adds a to-many relationship. Empty lists are still written so
// clients can tell "none" from "not loaded".
func (b *ResourceBuilder) HasMany(name, relType string, ids []string) *ResourceBuilder {
	identifiers := make([]ResourceIdentifier, 0, len(ids))
	for _, id := range ids {
		identifiers = append(identifiers, ResourceIdentifier{Type: relType, ID: id})
	}
	if b.resource.Relationships == nil {
		b.resource.Relationships = make(map[string]Relationship)
	}
	b.resource.Relationships[name] = Relationship{Data: identifiers}
	return b
}

// Meta sets one meta entry.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.resource.Meta == nil {
		b.resource.Meta = make(Meta)
	}
	b.resource.Meta[key] = value
	return b
}

// Link sets the self link.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	b.resource.Links = &Links{Self: self}
	return b
}

// Build returns the resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}
