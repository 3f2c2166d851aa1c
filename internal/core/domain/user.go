package domain

import "time"

// User est une identité en lecture seule ici : l'inscription, le mot de passe
// et la gestion de compte appartiennent au service d'identité, pas à ce moteur.
type User struct {
	ID        string
	Handle    string // unique, utilisé pour "suivre @handle"
	CreatedAt time.Time
}
