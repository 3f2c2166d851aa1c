package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

const (
	StreamName     = "CONTENT"
	SubjectPattern = "content.>" // Tous les events content.*
)

type NatsPublisher struct {
	js jetstream.JetStream
}

// NewNatsPublisher initialise JetStream et s'assure que le Stream existe (idempotent).
func NewNatsPublisher(nc *nats.Conn) (*NatsPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage, // Persistance sur disque
		Replicas: 1,                     // Mettre 3 en cluster
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsPublisher{js: js}, nil
}

// --- CONTRATS D'ÉVÉNEMENTS (JSON, consommés par notifications/modération) ---

type TicketCreatedEvent struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	Title          string    `json:"title"`
	PromptAnswered bool      `json:"prompt_answered"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReviewCreatedEvent struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticket_id"`
	TicketAuthor string    `json:"ticket_author_id,omitempty"`
	AuthorID     string    `json:"author_id"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

type FollowCreatedEvent struct {
	EdgeID     string    `json:"edge_id"`
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *NatsPublisher) PublishTicketCreated(ctx context.Context, t *domain.Ticket) error {
	return p.publish(ctx, "content.ticket.created", TicketCreatedEvent{
		ID:             t.ID,
		AuthorID:       t.AuthorID,
		Title:          t.Title,
		PromptAnswered: t.PromptAnswered,
		CreatedAt:      t.CreatedAt,
	})
}

func (p *NatsPublisher) PublishTicketDeleted(ctx context.Context, ticketID string) error {
	return p.publish(ctx, "content.ticket.deleted", map[string]string{"id": ticketID})
}

func (p *NatsPublisher) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	event := ReviewCreatedEvent{
		ID:        r.ID,
		TicketID:  r.TicketID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
	// L'auteur du ticket permet au service de notifications de prévenir
	// la bonne personne sans requête supplémentaire.
	if r.Ticket != nil {
		event.TicketAuthor = r.Ticket.AuthorID
	}
	return p.publish(ctx, "content.review.created", event)
}

func (p *NatsPublisher) PublishReviewDeleted(ctx context.Context, reviewID string) error {
	return p.publish(ctx, "content.review.deleted", map[string]string{"id": reviewID})
}

func (p *NatsPublisher) PublishFollowCreated(ctx context.Context, edge *domain.FollowEdge) error {
	return p.publish(ctx, "content.follow.created", FollowCreatedEvent{
		EdgeID:     edge.ID,
		FollowerID: edge.FollowerID,
		FolloweeID: edge.FolloweeID,
		CreatedAt:  edge.CreatedAt,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, payload any) error {
	msg, err := newEventMsg(ctx, subject, payload)
	if err != nil {
		return err
	}

	// JetStream garantit que le serveur a bien reçu et persisté le message
	if _, err := p.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	slog.Debug("📢 Event published", "subject", subject)
	return nil
}

// newEventMsg sérialise le payload et injecte le contexte de trace dans les
// headers NATS : le consommateur (notifications, modération) raccroche son
// span à la même trace que la requête d'origine.
func newEventMsg(ctx context.Context, subject string, payload any) (*nats.Msg, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}
