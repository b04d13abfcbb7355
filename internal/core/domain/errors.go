package domain

import "errors"

// --- ERREURS DU DOMAINE ---
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("version conflict")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrCorruptDocument    = errors.New("corrupt document")
)

// ValidationError signale un champ obligatoire manquant.
// errors.Is(err, ErrValidation) reste vrai.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
