package services

import (
	"context"
	"log/slog"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

type contentService struct {
	store     ports.ContentStore
	publisher ports.EventPublisher
}

func NewContentService(store ports.ContentStore, pub ports.EventPublisher) ports.ContentService {
	return &contentService{store: store, publisher: pub}
}

func (s *contentService) CreateTicket(ctx context.Context, authorID, title, description, imageURL string) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(authorID, title, description, imageURL)
	if err != nil {
		return nil, err
	}

	// 1. Sauvegarde DB (source de vérité)
	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		return nil, err
	}

	// 2. Publication best-effort : la donnée est sauvée, on ne fait pas
	// échouer la requête utilisateur pour un broker indisponible.
	if err := s.publisher.PublishTicketCreated(ctx, ticket); err != nil {
		slog.Warn("⚠️ Failed to publish ticket event", "ticket_id", ticket.ID, "error", err)
	}

	return ticket, nil
}

func (s *contentService) UpdateTicket(ctx context.Context, ticketID, actorID, title, description, imageURL string) (*domain.Ticket, error) {
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AuthorID != actorID {
		return nil, domain.ErrForbidden
	}

	if err := ticket.UpdateContent(title, description, imageURL); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *contentService) DeleteTicket(ctx context.Context, ticketID, actorID string) error {
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.AuthorID != actorID {
		return domain.ErrForbidden
	}

	// La cascade (ticket + toutes ses critiques) est gérée par le store
	// dans une seule transaction.
	if err := s.store.DeleteTicket(ctx, ticketID); err != nil {
		return err
	}

	if err := s.publisher.PublishTicketDeleted(ctx, ticketID); err != nil {
		slog.Warn("⚠️ Failed to publish ticket event", "ticket_id", ticketID, "error", err)
	}
	return nil
}

func (s *contentService) CreateReview(ctx context.Context, ticketID, authorID string, rating int, headline, body, imageURL string) (*domain.Review, error) {
	// Le ticket visé doit exister : une critique ne vit jamais seule.
	ticket, err := s.store.TicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	review, err := domain.NewReview(ticket.ID, authorID, rating, headline, body, imageURL)
	if err != nil {
		return nil, err
	}
	review.Ticket = ticket

	if err := s.store.SaveReview(ctx, review); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishReviewCreated(ctx, review); err != nil {
		slog.Warn("⚠️ Failed to publish review event", "review_id", review.ID, "error", err)
	}
	return review, nil
}

// CreateTicketWithReview est la soumission combinée : l'utilisateur poste le
// sujet ET sa critique d'un coup. Le ticket naît déjà répondu, il ne doit
// jamais apparaître dans un flux comme une demande ouverte.
func (s *contentService) CreateTicketWithReview(ctx context.Context, authorID, title, description, imageURL string, rating int, headline, body string) (*domain.Ticket, *domain.Review, error) {
	ticket, err := domain.NewTicket(authorID, title, description, imageURL)
	if err != nil {
		return nil, nil, err
	}
	ticket.PromptAnswered = true

	review, err := domain.NewReview(ticket.ID, authorID, rating, headline, body, "")
	if err != nil {
		return nil, nil, err
	}
	review.Ticket = ticket

	// Les deux écritures passent dans la même transaction : un flux lu
	// entre les deux ne doit jamais voir le ticket sans sa critique.
	if err := s.store.SaveTicketWithReview(ctx, ticket, review); err != nil {
		return nil, nil, err
	}

	if err := s.publisher.PublishTicketCreated(ctx, ticket); err != nil {
		slog.Warn("⚠️ Failed to publish ticket event", "ticket_id", ticket.ID, "error", err)
	}
	if err := s.publisher.PublishReviewCreated(ctx, review); err != nil {
		slog.Warn("⚠️ Failed to publish review event", "review_id", review.ID, "error", err)
	}
	return ticket, review, nil
}

func (s *contentService) UpdateReview(ctx context.Context, reviewID, actorID string, rating int, headline, body string) (*domain.Review, error) {
	review, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != actorID {
		return nil, domain.ErrForbidden
	}

	if err := review.UpdateContent(rating, headline, body); err != nil {
		return nil, err
	}
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *contentService) DeleteReview(ctx context.Context, reviewID, actorID string) error {
	review, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.AuthorID != actorID {
		return domain.ErrForbidden
	}

	// Flux auto-critique : si l'acteur possède aussi le ticket, celui-ci
	// n'existait que pour porter la critique et part dans la même
	// transaction (suppression composée, jamais en deux temps).
	if review.Ticket != nil && review.Ticket.AuthorID == actorID {
		if err := s.store.DeleteReviewWithTicket(ctx, review.ID, review.Ticket.ID); err != nil {
			return err
		}
		if err := s.publisher.PublishReviewDeleted(ctx, review.ID); err != nil {
			slog.Warn("⚠️ Failed to publish review event", "review_id", review.ID, "error", err)
		}
		if err := s.publisher.PublishTicketDeleted(ctx, review.Ticket.ID); err != nil {
			slog.Warn("⚠️ Failed to publish ticket event", "ticket_id", review.Ticket.ID, "error", err)
		}
		return nil
	}

	if err := s.store.DeleteReview(ctx, review.ID); err != nil {
		return err
	}
	if err := s.publisher.PublishReviewDeleted(ctx, review.ID); err != nil {
		slog.Warn("⚠️ Failed to publish review event", "review_id", review.ID, "error", err)
	}
	return nil
}
