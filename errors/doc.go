/*
Package errors provides semantic error types for the indexregistry library.

Registry failures are reported as *RegistryError values carrying a stable
Code. Each code has a sentinel that errors.Is matches:

	var (
	    ErrMissingDependency     // code "missing_dependency"
	    ErrDuplicateInitiation   // code "duplicate_initiation"
	    ErrDuplicateRegistration // code "duplicate_registration"
	    ErrModificationFailed    // code "modification_failed"
	    ErrUnknownIdentifier     // code "unknown_identifier"
	    ErrInactiveRegistry      // code "inactive_registry"
	)

Index clients use the lower-level errors:

	var (
	    ErrNotFound      = errors.New("document not found")
	    ErrIndexNotFound = errors.New("index not found")
	    ErrAlreadyExists = errors.New("document already exists")
	    ErrInvalidInput  = errors.New("invalid input")
	)

Usage:

	err := reg.Register(ctx, "e1", event)
	if errors.IsDuplicateRegistration(err) {
	    // the identifier is taken; use Replace instead
	}

	if code, ok := errors.CodeOf(err); ok {
	    log.Printf("registry failure %s", code)
	}

All types support wrapping, so checks keep working through fmt.Errorf("...: %w", err).
*/
package errors
