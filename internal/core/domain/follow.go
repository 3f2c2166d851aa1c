package domain

import (
	"time"

	"github.com/google/uuid"
)

// FollowEdge est un lien dirigé "FollowerID surveille FolloweeID".
// Unicité par paire ordonnée, pas de boucle sur soi-même : les deux invariants
// sont vérifiés ici et par le store (contrainte côté graphe).
type FollowEdge struct {
	ID         string
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

func NewFollowEdge(followerID, followeeID string) (*FollowEdge, error) {
	if followerID == "" || followeeID == "" {
		return nil, ErrMissingAuthor
	}
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}

	return &FollowEdge{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
