package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity est le contrat commun aux documents d'une collection.
type Entity interface {
	EntityID() string
	Timestamp() time.Time
}

// newIdentity génère l'identifiant et l'horodatage d'une nouvelle entité.
// Résolution milliseconde, toujours en UTC.
func newIdentity(now time.Time) (string, time.Time) {
	return uuid.NewString(), now.UTC().Truncate(time.Millisecond)
}

// required : une valeur faite uniquement d'espaces compte comme vide.
func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field}
	}
	return nil
}
