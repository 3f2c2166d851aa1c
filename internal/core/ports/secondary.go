package ports

import (
	"context"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

// --- DRIVEN (Ce dont le moteur a besoin) ---

// ContentReader est la surface de lecture du contenu. Les trois premières
// requêtes sont les prédicats nommés de visibilité : pas de filtres composés
// ad hoc côté appelant.
type ContentReader interface {
	// TicketsByAuthors renvoie les tickets des auteurs donnés portant le
	// flag demandé (promptAnswered=false => demandes encore ouvertes).
	TicketsByAuthors(ctx context.Context, authorIDs []string, promptAnswered bool) ([]*domain.Ticket, error)

	// ReviewsByAuthors renvoie les critiques écrites par les auteurs donnés,
	// tickets hydratés.
	ReviewsByAuthors(ctx context.Context, authorIDs []string) ([]*domain.Review, error)

	// ReviewsOnTicketsOf renvoie toutes les critiques visant les tickets de
	// l'utilisateur donné, quel que soit leur auteur (même un inconnu non suivi).
	ReviewsOnTicketsOf(ctx context.Context, ticketAuthorID string) ([]*domain.Review, error)

	ReviewsByTicket(ctx context.Context, ticketID string) ([]*domain.Review, error)
	TicketByID(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// ContentStore ajoute les écritures et la lecture instantanée.
type ContentStore interface {
	ContentReader

	// ViewSnapshot exécute fn sur un instantané cohérent du store : toutes
	// les requêtes du callback voient le même état. Indispensable pour ne
	// jamais observer "critique présente, ticket absent" pendant une
	// suppression concurrente.
	ViewSnapshot(ctx context.Context, fn func(ContentReader) error) error

	SaveTicket(ctx context.Context, t *domain.Ticket) error
	UpdateTicket(ctx context.Context, t *domain.Ticket) error
	DeleteTicket(ctx context.Context, ticketID string) error

	SaveReview(ctx context.Context, r *domain.Review) error
	UpdateReview(ctx context.Context, r *domain.Review) error
	DeleteReview(ctx context.Context, reviewID string) error
	ReviewByID(ctx context.Context, reviewID string) (*domain.Review, error)

	// SaveTicketWithReview écrit les deux entités dans une transaction.
	SaveTicketWithReview(ctx context.Context, t *domain.Ticket, r *domain.Review) error
	// DeleteReviewWithTicket supprime la critique puis son ticket,
	// atomiquement : un flux lu entre les deux verrait un état orphelin.
	DeleteReviewWithTicket(ctx context.Context, reviewID, ticketID string) error
}

// FollowStore persiste le graphe dirigé des suivis.
type FollowStore interface {
	// EnsureSchema crée contraintes et index (idempotent).
	EnsureSchema(ctx context.Context) error

	// CreateFollow échoue avec domain.ErrDuplicateFollow si la paire existe déjà.
	CreateFollow(ctx context.Context, edge *domain.FollowEdge) error
	// DeleteFollow échoue avec domain.ErrFollowNotFound si aucun lien avec cet
	// id n'appartient à ce follower.
	DeleteFollow(ctx context.Context, edgeID, followerID string) error

	ListFollowing(ctx context.Context, userID string) ([]string, error)
	ListFollowers(ctx context.Context, userID string) ([]string, error)
	ListFollowingEdges(ctx context.Context, userID string) ([]domain.FollowEdge, error)
}

// UserDirectory résout les identités (lecture seule, la table users appartient
// au service d'identité).
type UserDirectory interface {
	UserByID(ctx context.Context, userID string) (*domain.User, error)
	UserByHandle(ctx context.Context, handle string) (*domain.User, error)
}

// EventPublisher est le port vers NATS : notifier le reste de la plateforme
// (notifications, modération) qu'un événement de cycle de vie a eu lieu.
type EventPublisher interface {
	PublishTicketCreated(ctx context.Context, t *domain.Ticket) error
	PublishTicketDeleted(ctx context.Context, ticketID string) error
	PublishReviewCreated(ctx context.Context, r *domain.Review) error
	PublishReviewDeleted(ctx context.Context, reviewID string) error
	PublishFollowCreated(ctx context.Context, edge *domain.FollowEdge) error
}
