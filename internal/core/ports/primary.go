package ports

import (
	"context"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

// --- DRIVING (Ce que le moteur expose) ---

type FeedService interface {
	// ComputeFeed calcule le flux d'un lecteur : tickets ouverts visibles,
	// critiques des auteurs suivis, critiques sur ses propres tickets.
	// includeOwnPosts=false (défaut côté UI) masque les publications du lecteur.
	ComputeFeed(ctx context.Context, viewerID string, includeOwnPosts bool) ([]domain.FeedItem, error)

	// TicketDetail renvoie un ticket, ses critiques annotées et l'éventuelle
	// critique du lecteur. domain.ErrTicketNotFound si le ticket n'existe pas.
	TicketDetail(ctx context.Context, ticketID, viewerID string) (*domain.TicketDetail, error)

	// UserPosts liste les publications propres d'un utilisateur, groupées.
	UserPosts(ctx context.Context, userID string) (*domain.UserPosts, error)
}

type FollowService interface {
	// Follow résout le handle visé puis crée le lien dirigé.
	// Erreurs : ErrUserNotFound, ErrSelfFollow, ErrDuplicateFollow.
	Follow(ctx context.Context, followerID, targetHandle string) (*domain.FollowEdge, error)

	// Unfollow supprime un lien par son id, seulement s'il appartient à l'acteur.
	Unfollow(ctx context.Context, edgeID, actorID string) error

	Following(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]string, error)

	// FollowerHandles résout les abonnés en handles affichables, dans
	// l'ordre renvoyé par le graphe.
	FollowerHandles(ctx context.Context, userID string) ([]string, error)

	// FollowingEdges expose les liens complets (id compris) pour que
	// l'appelant puisse afficher des actions "ne plus suivre".
	FollowingEdges(ctx context.Context, userID string) ([]domain.FollowEdge, error)
}

// ContentService est le collaborateur de mutation : le moteur de flux ne fait
// que lire, toute écriture de contenu passe par ici.
type ContentService interface {
	CreateTicket(ctx context.Context, authorID, title, description, imageURL string) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, ticketID, actorID, title, description, imageURL string) (*domain.Ticket, error)
	// DeleteTicket supprime le ticket ET toutes ses critiques dans la même
	// transaction (la cascade est un contrat de correction, pas une option).
	DeleteTicket(ctx context.Context, ticketID, actorID string) error

	CreateReview(ctx context.Context, ticketID, authorID string, rating int, headline, body, imageURL string) (*domain.Review, error)
	// CreateTicketWithReview est la soumission combinée : le ticket naît
	// déjà répondu (PromptAnswered) et les deux écritures sont atomiques.
	CreateTicketWithReview(ctx context.Context, authorID, title, description, imageURL string, rating int, headline, body string) (*domain.Ticket, *domain.Review, error)
	UpdateReview(ctx context.Context, reviewID, actorID string, rating int, headline, body string) (*domain.Review, error)
	// DeleteReview supprime la critique ; si l'acteur possède aussi le ticket
	// (flux auto-critique), le ticket part dans la même transaction.
	DeleteReview(ctx context.Context, reviewID, actorID string) error
}
