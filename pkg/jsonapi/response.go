package jsonapi

import (
	"encoding/json"
	"net/http"
)

// WriteDocument writes a document with the JSON:API content type.
func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// WriteResource writes a single resource with status 200.
func WriteResource(w http.ResponseWriter, r Resource) {
	WriteDocument(w, http.StatusOK, NewSingleResourceDocument(r))
}

// WriteCollection writes a collection with status 200.
func WriteCollection(w http.ResponseWriter, resources []Resource, meta Meta) {
	WriteDocument(w, http.StatusOK, NewCollectionDocument(resources, meta))
}

// WriteError writes errors. The status comes from the first error.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}
	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteDocument(w, status, NewErrorDocument(errs...))
}
