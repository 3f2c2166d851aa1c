package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Les adapters traduisent leurs erreurs techniques (pgx, neo4j) vers ces sentinelles.
// Les handlers traduisent ensuite vers des codes "wire" (not_found, forbidden, etc.)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrFollowNotFound = errors.New("follow relation not found")

	// ErrForbidden : l'acteur n'est pas le propriétaire de la ressource visée.
	ErrForbidden = errors.New("action reserved to the owner")

	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrDuplicateFollow = errors.New("already following this user")

	ErrInvalidRating      = errors.New("rating must be between 0 and 5")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title must be 128 characters or less")
	ErrDescriptionTooLong = errors.New("description must be 2048 characters or less")
	ErrHeadlineRequired   = errors.New("headline is required")
	ErrHeadlineTooLong    = errors.New("headline must be 255 characters or less")
	ErrMissingAuthor      = errors.New("author id is required")
	ErrMissingTicket      = errors.New("ticket id is required")
)
