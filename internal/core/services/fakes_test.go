package services

import (
	"context"
	"sort"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

// --- FAKES EN MÉMOIRE ---
// Même contrat que les repos Postgres/Neo4j, sans infrastructure.

type fakeContentStore struct {
	tickets map[string]*domain.Ticket
	reviews map[string]*domain.Review

	snapshots int // nombre d'appels ViewSnapshot
	failWith  error
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		tickets: make(map[string]*domain.Ticket),
		reviews: make(map[string]*domain.Review),
	}
}

func (s *fakeContentStore) ViewSnapshot(_ context.Context, fn func(ports.ContentReader) error) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.snapshots++
	return fn(s)
}

func (s *fakeContentStore) TicketsByAuthors(_ context.Context, authorIDs []string, promptAnswered bool) ([]*domain.Ticket, error) {
	var out []*domain.Ticket
	for _, t := range s.tickets {
		if t.PromptAnswered == promptAnswered && contains(authorIDs, t.AuthorID) {
			out = append(out, t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (s *fakeContentStore) ReviewsByAuthors(_ context.Context, authorIDs []string) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range s.reviews {
		if contains(authorIDs, r.AuthorID) {
			out = append(out, s.hydrate(r))
		}
	}
	sortReviews(out)
	return out, nil
}

func (s *fakeContentStore) ReviewsOnTicketsOf(_ context.Context, ticketAuthorID string) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range s.reviews {
		if t, ok := s.tickets[r.TicketID]; ok && t.AuthorID == ticketAuthorID {
			out = append(out, s.hydrate(r))
		}
	}
	sortReviews(out)
	return out, nil
}

func (s *fakeContentStore) ReviewsByTicket(_ context.Context, ticketID string) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range s.reviews {
		if r.TicketID == ticketID {
			out = append(out, s.hydrate(r))
		}
	}
	sortReviews(out)
	return out, nil
}

func (s *fakeContentStore) TicketByID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	t, ok := s.tickets[ticketID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return t, nil
}

func (s *fakeContentStore) ReviewByID(_ context.Context, reviewID string) (*domain.Review, error) {
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	return s.hydrate(r), nil
}

func (s *fakeContentStore) SaveTicket(_ context.Context, t *domain.Ticket) error {
	s.tickets[t.ID] = t
	return nil
}

func (s *fakeContentStore) UpdateTicket(_ context.Context, t *domain.Ticket) error {
	if _, ok := s.tickets[t.ID]; !ok {
		return domain.ErrTicketNotFound
	}
	s.tickets[t.ID] = t
	return nil
}

func (s *fakeContentStore) DeleteTicket(_ context.Context, ticketID string) error {
	if _, ok := s.tickets[ticketID]; !ok {
		return domain.ErrTicketNotFound
	}
	delete(s.tickets, ticketID)
	// Cascade comme la FK ON DELETE CASCADE côté Postgres
	for id, r := range s.reviews {
		if r.TicketID == ticketID {
			delete(s.reviews, id)
		}
	}
	return nil
}

func (s *fakeContentStore) SaveReview(_ context.Context, r *domain.Review) error {
	s.reviews[r.ID] = r
	return nil
}

func (s *fakeContentStore) UpdateReview(_ context.Context, r *domain.Review) error {
	if _, ok := s.reviews[r.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	s.reviews[r.ID] = r
	return nil
}

func (s *fakeContentStore) DeleteReview(_ context.Context, reviewID string) error {
	if _, ok := s.reviews[reviewID]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

func (s *fakeContentStore) SaveTicketWithReview(_ context.Context, t *domain.Ticket, r *domain.Review) error {
	s.tickets[t.ID] = t
	s.reviews[r.ID] = r
	return nil
}

func (s *fakeContentStore) DeleteReviewWithTicket(ctx context.Context, reviewID, ticketID string) error {
	if err := s.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	return s.DeleteTicket(ctx, ticketID)
}

func (s *fakeContentStore) hydrate(r *domain.Review) *domain.Review {
	if r.Ticket == nil {
		if t, ok := s.tickets[r.TicketID]; ok {
			r.Ticket = t
		}
	}
	return r
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Tri déterministe : l'itération sur une map est aléatoire en Go.
func sortTickets(ts []*domain.Ticket) {
	sort.Slice(ts, func(a, b int) bool { return ts[a].ID < ts[b].ID })
}

func sortReviews(rs []*domain.Review) {
	sort.Slice(rs, func(a, b int) bool { return rs[a].ID < rs[b].ID })
}

// --- GRAPHE DE SUIVI ---

type fakeFollowStore struct {
	edges []domain.FollowEdge
}

func (s *fakeFollowStore) EnsureSchema(context.Context) error { return nil }

func (s *fakeFollowStore) CreateFollow(_ context.Context, edge *domain.FollowEdge) error {
	for _, e := range s.edges {
		if e.FollowerID == edge.FollowerID && e.FolloweeID == edge.FolloweeID {
			return domain.ErrDuplicateFollow
		}
	}
	s.edges = append(s.edges, *edge)
	return nil
}

func (s *fakeFollowStore) DeleteFollow(_ context.Context, edgeID, followerID string) error {
	for i, e := range s.edges {
		if e.ID == edgeID && e.FollowerID == followerID {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return domain.ErrFollowNotFound
}

func (s *fakeFollowStore) ListFollowing(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, e := range s.edges {
		if e.FollowerID == userID {
			out = append(out, e.FolloweeID)
		}
	}
	return out, nil
}

func (s *fakeFollowStore) ListFollowers(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, e := range s.edges {
		if e.FolloweeID == userID {
			out = append(out, e.FollowerID)
		}
	}
	return out, nil
}

func (s *fakeFollowStore) ListFollowingEdges(_ context.Context, userID string) ([]domain.FollowEdge, error) {
	var out []domain.FollowEdge
	for _, e := range s.edges {
		if e.FollowerID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- ANNUAIRE ---

type fakeUserDirectory struct {
	users map[string]*domain.User // par handle
}

func (d *fakeUserDirectory) UserByID(_ context.Context, userID string) (*domain.User, error) {
	for _, u := range d.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *fakeUserDirectory) UserByHandle(_ context.Context, handle string) (*domain.User, error) {
	u, ok := d.users[handle]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// --- PUBLISHER ---

type fakePublisher struct {
	published []string // sujets logiques, dans l'ordre d'émission
	failWith  error
}

func (p *fakePublisher) record(subject string) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, subject)
	return nil
}

func (p *fakePublisher) PublishTicketCreated(context.Context, *domain.Ticket) error {
	return p.record("ticket.created")
}

func (p *fakePublisher) PublishTicketDeleted(context.Context, string) error {
	return p.record("ticket.deleted")
}

func (p *fakePublisher) PublishReviewCreated(context.Context, *domain.Review) error {
	return p.record("review.created")
}

func (p *fakePublisher) PublishReviewDeleted(context.Context, string) error {
	return p.record("review.deleted")
}

func (p *fakePublisher) PublishFollowCreated(context.Context, *domain.FollowEdge) error {
	return p.record("follow.created")
}
