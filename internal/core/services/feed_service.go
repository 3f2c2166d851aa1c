package services

import (
	"context"
	"log/slog"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

type feedService struct {
	content ports.ContentStore
	graph   ports.FollowStore
}

func NewFeedService(content ports.ContentStore, graph ports.FollowStore) ports.FeedService {
	return &feedService{content: content, graph: graph}
}

// ComputeFeed déroule le pipeline : auteurs visibles -> trois requêtes sur un
// même instantané -> fusion, déduplication, filtre "mes posts", tri.
func (s *feedService) ComputeFeed(ctx context.Context, viewerID string, includeOwnPosts bool) ([]domain.FeedItem, error) {
	// 1. Ensemble des auteurs visibles : le lecteur + les gens qu'il suit
	following, err := s.graph.ListFollowing(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	visible := make([]string, 0, len(following)+1)
	visible = append(visible, viewerID)
	visible = append(visible, following...)

	// 2. Les trois sources, lues sur UN SEUL instantané du store.
	// Sans ça, une suppression concurrente de ticket pourrait laisser
	// apparaître une critique orpheline dans le résultat.
	var items []domain.FeedItem
	err = s.content.ViewSnapshot(ctx, func(rd ports.ContentReader) error {
		tickets, err := rd.TicketsByAuthors(ctx, visible, false)
		if err != nil {
			return err
		}
		reviews, err := rd.ReviewsByAuthors(ctx, visible)
		if err != nil {
			return err
		}
		// Les critiques sur MES tickets sont visibles même si leur auteur
		// n'est pas suivi : un inconnu qui me répond doit apparaître.
		reviewsOnOwn, err := rd.ReviewsOnTicketsOf(ctx, viewerID)
		if err != nil {
			return err
		}
		items = mergeFeed(viewerID, includeOwnPosts, tickets, reviews, reviewsOnOwn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("🧮 Feed computed", "viewer_id", viewerID, "items", len(items))
	return items, nil
}

// mergeFeed fusionne les trois sources : tag, déduplication par (type, id),
// filtre optionnel des publications du lecteur, puis ordre total.
func mergeFeed(viewerID string, includeOwnPosts bool, tickets []*domain.Ticket, reviews, reviewsOnOwn []*domain.Review) []domain.FeedItem {
	combined := make([]domain.FeedItem, 0, len(tickets)+len(reviews)+len(reviewsOnOwn))
	for _, t := range tickets {
		combined = append(combined, domain.TicketItem(t))
	}
	for _, r := range reviews {
		combined = append(combined, domain.ReviewItem(r, viewerID))
	}
	for _, r := range reviewsOnOwn {
		combined = append(combined, domain.ReviewItem(r, viewerID))
	}

	// Déduplication : une critique d'un auteur suivi sur mon propre ticket
	// arrive par les deux sources, elle ne doit compter qu'une fois.
	seen := make(map[string]bool, len(combined))
	items := combined[:0]
	for _, item := range combined {
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		if !includeOwnPosts && item.AuthorID() == viewerID {
			continue
		}
		items = append(items, item)
	}

	domain.OrderFeed(items)
	return items
}

func (s *feedService) TicketDetail(ctx context.Context, ticketID, viewerID string) (*domain.TicketDetail, error) {
	var detail *domain.TicketDetail
	err := s.content.ViewSnapshot(ctx, func(rd ports.ContentReader) error {
		ticket, err := rd.TicketByID(ctx, ticketID)
		if err != nil {
			return err
		}
		reviews, err := rd.ReviewsByTicket(ctx, ticketID)
		if err != nil {
			return err
		}

		annotated := make([]domain.AnnotatedReview, 0, len(reviews))
		for _, r := range reviews {
			if r.Ticket == nil {
				r.Ticket = ticket
			}
			annotated = append(annotated, domain.AnnotatedReview{
				Review: r,
				Flags:  domain.ComputeReviewFlags(r, viewerID),
			})
		}
		domain.OrderReviews(annotated)

		detail = &domain.TicketDetail{Ticket: ticket, Reviews: annotated}
		// La liste est triée du plus récent au plus ancien : la première
		// critique du lecteur est donc sa plus récente si jamais il en a
		// déposé plusieurs (invariant non imposé côté base).
		for i := range annotated {
			if annotated[i].Review.AuthorID == viewerID {
				detail.ViewerReview = &annotated[i]
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *feedService) UserPosts(ctx context.Context, userID string) (*domain.UserPosts, error) {
	posts := &domain.UserPosts{}
	err := s.content.ViewSnapshot(ctx, func(rd ports.ContentReader) error {
		tickets, err := rd.TicketsByAuthors(ctx, []string{userID}, false)
		if err != nil {
			return err
		}
		reviews, err := rd.ReviewsByAuthors(ctx, []string{userID})
		if err != nil {
			return err
		}

		posts.OpenTickets = tickets
		for _, r := range reviews {
			if r.Ticket != nil && r.Ticket.AuthorID == userID {
				posts.SelfCritiques = append(posts.SelfCritiques, r)
			} else {
				posts.Responses = append(posts.Responses, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
