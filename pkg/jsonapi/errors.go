package jsonapi

import (
	"net/http"
	"strconv"
)

// NewError creates an error object.
func NewError(status int, code, title, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  title,
		Detail: detail,
	}
}

// StatusCode returns the HTTP status as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// ErrBadParameter is a 400 for an invalid query parameter.
func ErrBadParameter(param, detail string) Error {
	e := NewError(http.StatusBadRequest, "bad_parameter", "Bad Parameter", detail)
	e.Source = &ErrorSource{Parameter: param}
	return e
}

// ErrNotFoundWithID is a 404 for a missing resource.
func ErrNotFoundWithID(resourceType, id string) Error {
	return NewError(http.StatusNotFound, "not_found", "Not Found", resourceType+" "+strconv.Quote(id)+" not found")
}

// ErrUnavailable is a 503 for a feature that is switched off.
func ErrUnavailable(detail string) Error {
	return NewError(http.StatusServiceUnavailable, "unavailable", "Service Unavailable", detail)
}

// ErrInternal is a 500.
func ErrInternal(detail string) Error {
	return NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error", detail)
}
