package markers

import "fmt"

// Code classifies a discovery diagnostic.
type Code string

const (
	// CodeShapeMismatch: the entity does not satisfy its marker's contract.
	CodeShapeMismatch Code = "shape_mismatch"
	// CodeMustBeStatic: a palette type carries state.
	CodeMustBeStatic Code = "must_be_static"
	// CodeRolesRequireFullSync: roles declared by a module not required on all clients.
	CodeRolesRequireFullSync Code = "roles_require_full_sync"
	// CodeInitializeFailed: a module's explicit registration panicked.
	CodeInitializeFailed Code = "initialize_failed"
	// CodeDuplicateModule: a module identity was discovered again. Suppressed, never surfaced.
	CodeDuplicateModule Code = "duplicate_module_registration"
)

// Diagnostic is a non-fatal, per-entity discovery problem.
type Diagnostic struct {
	Code    Code
	Module  string
	Entity  string
	Message string
}

// Error implements error so a diagnostic can travel through error paths.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: module %s entity %s: %s", d.Code, d.Module, d.Entity, d.Message)
}

// ShapeMismatch builds a CodeShapeMismatch diagnostic.
func ShapeMismatch(module, entity, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:    CodeShapeMismatch,
		Module:  module,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	}
}

// MustBeStatic builds a CodeMustBeStatic diagnostic.
func MustBeStatic(module, entity, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:    CodeMustBeStatic,
		Module:  module,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	}
}
