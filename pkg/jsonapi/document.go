package jsonapi

// NewSingleResourceDocument wraps one resource.
func NewSingleResourceDocument(r Resource) Document {
	return Document{Data: r, JSONAPI: &JSONAPI{Version: Version}}
}

// NewCollectionDocument wraps a collection. A nil slice is written as an
// empty array.
func NewCollectionDocument(resources []Resource, meta Meta) Document {
	if resources == nil {
		resources = []Resource{}
	}
	return Document{Data: resources, Meta: meta, JSONAPI: &JSONAPI{Version: Version}}
}

// NewErrorDocument wraps errors. Errors and data are mutually exclusive.
func NewErrorDocument(errors ...Error) Document {
	return Document{Errors: errors, JSONAPI: &JSONAPI{Version: Version}}
}
