package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ticketAt(id, authorID string, answered bool, offset time.Duration) *domain.Ticket {
	return &domain.Ticket{
		ID:             id,
		AuthorID:       authorID,
		Title:          "Ticket " + id,
		PromptAnswered: answered,
		CreatedAt:      baseTime.Add(offset),
	}
}

func reviewAt(id, ticketID, authorID string, offset time.Duration) *domain.Review {
	return &domain.Review{
		ID:        id,
		TicketID:  ticketID,
		AuthorID:  authorID,
		Rating:    4,
		Headline:  "Review " + id,
		CreatedAt: baseTime.Add(offset),
	}
}

func follow(follower, followee string) domain.FollowEdge {
	return domain.FollowEdge{ID: "edge-" + follower + "-" + followee, FollowerID: follower, FolloweeID: followee, CreatedAt: baseTime}
}

func keys(items []domain.FeedItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Key())
	}
	return out
}

func sameKeys(got []domain.FeedItem, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, item := range got {
		if item.Key() != want[i] {
			return false
		}
	}
	return true
}

func TestComputeFeedHidesOwnPostsByDefault(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{edges: []domain.FollowEdge{follow("alice", "bob")}}

	store.tickets["t1"] = ticketAt("t1", "alice", false, 0)
	store.tickets["t2"] = ticketAt("t2", "bob", false, time.Minute)
	store.reviews["r1"] = reviewAt("r1", "t2", "alice", 2*time.Minute)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if !sameKeys(items, []string{"TICKET:t2"}) {
		t.Fatalf("feed keys = %v, want [TICKET:t2]", keys(items))
	}

	// Le même flux avec le toggle doit être un sur-ensemble strict.
	all, err := svc.ComputeFeed(context.Background(), "alice", true)
	if err != nil {
		t.Fatalf("ComputeFeed(include own) error = %v", err)
	}
	if !sameKeys(all, []string{"REVIEW:r1", "TICKET:t2", "TICKET:t1"}) {
		t.Fatalf("feed keys = %v, want [REVIEW:r1 TICKET:t2 TICKET:t1]", keys(all))
	}
}

func TestComputeFeedIgnoresUnfollowedAuthors(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{} // alice ne suit personne

	store.tickets["t1"] = ticketAt("t1", "carol", false, 0)
	store.reviews["r1"] = reviewAt("r1", "t1", "carol", time.Minute)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", true)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("feed = %v, want empty", keys(items))
	}
}

func TestComputeFeedShowsStrangerReviewOnOwnTicket(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{} // carol n'est pas suivie

	store.tickets["t1"] = ticketAt("t1", "alice", false, 0)
	store.reviews["r1"] = reviewAt("r1", "t1", "carol", time.Minute)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if !sameKeys(items, []string{"REVIEW:r1"}) {
		t.Fatalf("feed keys = %v, want [REVIEW:r1]", keys(items))
	}
	if !items[0].Flags.IsReply {
		t.Fatalf("Flags.IsReply = false, want true")
	}
	if items[0].Flags.AnswersOthersTicket {
		t.Fatalf("Flags.AnswersOthersTicket = true, want false (c'est le ticket du lecteur)")
	}
}

func TestComputeFeedDeduplicatesOverlappingSources(t *testing.T) {
	// La critique de bob (suivi) sur le ticket d'alice arrive par deux
	// sources : critiques des suivis ET critiques sur mes tickets.
	store := newFakeContentStore()
	graph := &fakeFollowStore{edges: []domain.FollowEdge{follow("alice", "bob")}}

	store.tickets["t1"] = ticketAt("t1", "alice", false, 0)
	store.reviews["r1"] = reviewAt("r1", "t1", "bob", time.Minute)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if !sameKeys(items, []string{"REVIEW:r1"}) {
		t.Fatalf("feed keys = %v, want exactly one [REVIEW:r1]", keys(items))
	}
}

func TestComputeFeedHidesAnsweredTicketButKeepsItsReview(t *testing.T) {
	// Soumission combinée de bob : le ticket naît répondu, seule la
	// critique doit apparaître chez ses abonnés.
	store := newFakeContentStore()
	graph := &fakeFollowStore{edges: []domain.FollowEdge{follow("alice", "bob")}}

	store.tickets["t1"] = ticketAt("t1", "bob", true, 0)
	store.reviews["r1"] = reviewAt("r1", "t1", "bob", 0)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if !sameKeys(items, []string{"REVIEW:r1"}) {
		t.Fatalf("feed keys = %v, want [REVIEW:r1]", keys(items))
	}
	if !items[0].Flags.IsSelfCritique {
		t.Fatalf("Flags.IsSelfCritique = false, want true")
	}
}

func TestComputeFeedOrdering(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{edges: []domain.FollowEdge{follow("alice", "bob")}}

	// t-old < r-mid < les deux items à timestamp égal (départagés par ID desc)
	store.tickets["ta"] = ticketAt("ta", "bob", false, 0)
	store.tickets["tz"] = ticketAt("tz", "bob", false, 2*time.Minute)
	store.tickets["tb"] = ticketAt("tb", "bob", false, 2*time.Minute)
	store.reviews["r1"] = reviewAt("r1", "ta", "bob", time.Minute)

	svc := NewFeedService(store, graph)

	items, err := svc.ComputeFeed(context.Background(), "alice", false)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	want := []string{"TICKET:tz", "TICKET:tb", "REVIEW:r1", "TICKET:ta"}
	if !sameKeys(items, want) {
		t.Fatalf("feed keys = %v, want %v", keys(items), want)
	}
}

func TestComputeFeedSingleSnapshot(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{}

	svc := NewFeedService(store, graph)
	if _, err := svc.ComputeFeed(context.Background(), "alice", false); err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if store.snapshots != 1 {
		t.Fatalf("snapshots = %d, want 1 (les trois lectures partagent un instantané)", store.snapshots)
	}
}

func TestComputeFeedPropagatesStoreError(t *testing.T) {
	store := newFakeContentStore()
	store.failWith = errors.New("connection reset")
	svc := NewFeedService(store, &fakeFollowStore{})

	if _, err := svc.ComputeFeed(context.Background(), "alice", false); err == nil {
		t.Fatal("ComputeFeed() error = nil, want store error")
	}
}

func TestComputeFeedAfterTicketDeletion(t *testing.T) {
	// Bout en bout : dave poste un ticket, eve le critique, dave supprime.
	// Le prochain calcul de flux ne doit plus voir ni le ticket ni la critique.
	store := newFakeContentStore()
	graph := &fakeFollowStore{}
	content := NewContentService(store, &fakePublisher{})
	feed := NewFeedService(store, graph)

	ticket, err := content.CreateTicket(context.Background(), "dave", "Fondation", "", "")
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if _, err := content.CreateReview(context.Background(), ticket.ID, "eve", 4, "Dense", "", ""); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	before, err := feed.ComputeFeed(context.Background(), "dave", true)
	if err != nil {
		t.Fatalf("ComputeFeed() error = %v", err)
	}
	if len(before) != 2 {
		t.Fatalf("feed before deletion = %v, want ticket + review", keys(before))
	}

	if err := content.DeleteTicket(context.Background(), ticket.ID, "dave"); err != nil {
		t.Fatalf("DeleteTicket() error = %v", err)
	}

	after, err := feed.ComputeFeed(context.Background(), "dave", true)
	if err != nil {
		t.Fatalf("ComputeFeed() after deletion error = %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("feed after deletion = %v, want empty", keys(after))
	}
}

func TestTicketDetail(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{}

	store.tickets["t1"] = ticketAt("t1", "bob", false, 0)
	store.reviews["r1"] = reviewAt("r1", "t1", "alice", time.Minute)
	store.reviews["r2"] = reviewAt("r2", "t1", "carol", 2*time.Minute)

	svc := NewFeedService(store, graph)

	detail, err := svc.TicketDetail(context.Background(), "t1", "alice")
	if err != nil {
		t.Fatalf("TicketDetail() error = %v", err)
	}
	if detail.Ticket.ID != "t1" {
		t.Fatalf("Ticket.ID = %q, want t1", detail.Ticket.ID)
	}
	if len(detail.Reviews) != 2 {
		t.Fatalf("len(Reviews) = %d, want 2", len(detail.Reviews))
	}
	// Plus récente d'abord
	if detail.Reviews[0].Review.ID != "r2" {
		t.Fatalf("Reviews[0].ID = %q, want r2", detail.Reviews[0].Review.ID)
	}
	if detail.ViewerReview == nil || detail.ViewerReview.Review.ID != "r1" {
		t.Fatalf("ViewerReview = %+v, want r1", detail.ViewerReview)
	}
	// alice critique le ticket de bob : vraie réponse, ticket d'un autre
	flags := detail.ViewerReview.Flags
	if !flags.IsReply || !flags.AnswersOthersTicket || flags.IsSelfCritique {
		t.Fatalf("ViewerReview.Flags = %+v, want reply on someone else's ticket", flags)
	}
}

func TestTicketDetailNotFound(t *testing.T) {
	svc := NewFeedService(newFakeContentStore(), &fakeFollowStore{})

	_, err := svc.TicketDetail(context.Background(), "missing", "alice")
	if !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatalf("TicketDetail() error = %v, want ErrTicketNotFound", err)
	}
}

func TestUserPostsPartitioning(t *testing.T) {
	store := newFakeContentStore()
	graph := &fakeFollowStore{}

	store.tickets["t1"] = ticketAt("t1", "alice", false, 0)        // demande ouverte
	store.tickets["t2"] = ticketAt("t2", "alice", true, 0)         // soumission combinée
	store.tickets["t3"] = ticketAt("t3", "bob", false, 0)          // ticket d'un autre
	store.reviews["r1"] = reviewAt("r1", "t2", "alice", time.Hour) // auto-critique
	store.reviews["r2"] = reviewAt("r2", "t3", "alice", time.Hour) // réponse

	svc := NewFeedService(store, graph)

	posts, err := svc.UserPosts(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UserPosts() error = %v", err)
	}
	if len(posts.OpenTickets) != 1 || posts.OpenTickets[0].ID != "t1" {
		t.Fatalf("OpenTickets = %+v, want [t1]", posts.OpenTickets)
	}
	if len(posts.SelfCritiques) != 1 || posts.SelfCritiques[0].ID != "r1" {
		t.Fatalf("SelfCritiques = %+v, want [r1]", posts.SelfCritiques)
	}
	if len(posts.Responses) != 1 || posts.Responses[0].ID != "r2" {
		t.Fatalf("Responses = %+v, want [r2]", posts.Responses)
	}
}
