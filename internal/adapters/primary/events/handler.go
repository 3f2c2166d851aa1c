package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

const handleTimeout = 10 * time.Second

// EventHandler expose le moteur en request-reply NATS (JSON).
// Chaque sujet litrevu.* correspond à une opération du core.
type EventHandler struct {
	feed    ports.FeedService
	follows ports.FollowService
	content ports.ContentService
}

func NewEventHandler(feed ports.FeedService, follows ports.FollowService, content ports.ContentService) *EventHandler {
	return &EventHandler{feed: feed, follows: follows, content: content}
}

// Subscribe enregistre tous les sujets. Les subscriptions vivent tant que la
// connexion vit : main.go garde nc ouvert jusqu'au shutdown.
func (h *EventHandler) Subscribe(nc *nats.Conn) error {
	handlers := map[string]nats.MsgHandler{
		"litrevu.feed.get":            h.handleFeedGet,
		"litrevu.ticket.detail":       h.handleTicketDetail,
		"litrevu.posts.get":           h.handleUserPosts,
		"litrevu.follow.create":       h.handleFollowCreate,
		"litrevu.follow.delete":       h.handleFollowDelete,
		"litrevu.follows.get":         h.handleFollowsGet,
		"litrevu.ticket.create":       h.handleTicketCreate,
		"litrevu.ticket.update":       h.handleTicketUpdate,
		"litrevu.ticket.delete":       h.handleTicketDelete,
		"litrevu.review.create":       h.handleReviewCreate,
		"litrevu.review.update":       h.handleReviewUpdate,
		"litrevu.review.delete":       h.handleReviewDelete,
		"litrevu.ticketreview.create": h.handleTicketWithReview,
	}

	for subject, handler := range handlers {
		if _, err := nc.Subscribe(subject, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}

	slog.Info("👂 NATS handlers registered", "subjects", len(handlers))
	return nil
}

// --- ENVELOPPE DE RÉPONSE ---

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *errorBody      `json:"error,omitempty"`
}

// errorCode traduit les sentinelles du domaine en codes stables côté wire.
// Les clients branchent sur le code, jamais sur le message.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrTicketNotFound),
		errors.Is(err, domain.ErrReviewNotFound),
		errors.Is(err, domain.ErrFollowNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrSelfFollow):
		return "self_follow"
	case errors.Is(err, domain.ErrDuplicateFollow):
		return "duplicate_follow"
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrTitleTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrHeadlineRequired),
		errors.Is(err, domain.ErrHeadlineTooLong),
		errors.Is(err, domain.ErrMissingAuthor),
		errors.Is(err, domain.ErrMissingTicket):
		return "invalid_argument"
	default:
		return "internal"
	}
}

func respond(msg *nats.Msg, span trace.Span, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		fail(msg, span, fmt.Errorf("marshal response: %w", err))
		return
	}
	reply, _ := json.Marshal(envelope{Data: data})
	if err := msg.Respond(reply); err != nil {
		slog.Error("❌ Failed to respond", "subject", msg.Subject, "error", err)
	}
}

func fail(msg *nats.Msg, span trace.Span, err error) {
	span.RecordError(err)
	code := errorCode(err)
	if code == "internal" {
		slog.Error("❌ Request failed", "subject", msg.Subject, "error", err)
	}
	reply, _ := json.Marshal(envelope{Error: &errorBody{Code: code, Message: err.Error()}})
	if respondErr := msg.Respond(reply); respondErr != nil {
		slog.Error("❌ Failed to respond", "subject", msg.Subject, "error", respondErr)
	}
}

// start extrait le contexte de trace des headers NATS et ouvre un span par
// message : la requête du client et le traitement ici partagent le TraceID.
func start(msg *nats.Msg, op string) (context.Context, trace.Span, context.CancelFunc) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))
	ctx, span := otel.Tracer("litrevu-engine").Start(ctx, op, trace.WithSpanKind(trace.SpanKindServer))
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	return ctx, span, cancel
}

func decode(msg *nats.Msg, span trace.Span, dst any) bool {
	if err := json.Unmarshal(msg.Data, dst); err != nil {
		fail(msg, span, fmt.Errorf("invalid request: %w", err))
		return false
	}
	return true
}

// --- LECTURES (flux, détail, page utilisateur) ---

func (h *EventHandler) handleFeedGet(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "feed.get")
	defer span.End()
	defer cancel()

	var req struct {
		ViewerID        string `json:"viewer_id"`
		IncludeOwnPosts bool   `json:"include_own_posts"`
	}
	if !decode(msg, span, &req) {
		return
	}

	items, err := h.feed.ComputeFeed(ctx, req.ViewerID, req.IncludeOwnPosts)
	if err != nil {
		fail(msg, span, err)
		return
	}

	dtos := make([]feedItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toFeedItemDTO(item))
	}
	respond(msg, span, map[string]any{"items": dtos})
}

func (h *EventHandler) handleTicketDetail(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "ticket.detail")
	defer span.End()
	defer cancel()

	var req struct {
		TicketID string `json:"ticket_id"`
		ViewerID string `json:"viewer_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	detail, err := h.feed.TicketDetail(ctx, req.TicketID, req.ViewerID)
	if err != nil {
		fail(msg, span, err)
		return
	}

	reviews := make([]map[string]any, 0, len(detail.Reviews))
	for _, ar := range detail.Reviews {
		reviews = append(reviews, map[string]any{
			"review": toReviewDTO(ar.Review),
			"flags":  toFlagsDTO(ar.Flags),
		})
	}
	resp := map[string]any{
		"ticket":  toTicketDTO(detail.Ticket),
		"reviews": reviews,
	}
	if detail.ViewerReview != nil {
		resp["viewer_review"] = toReviewDTO(detail.ViewerReview.Review)
	}
	respond(msg, span, resp)
}

func (h *EventHandler) handleUserPosts(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "posts.get")
	defer span.End()
	defer cancel()

	var req struct {
		UserID string `json:"user_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	posts, err := h.feed.UserPosts(ctx, req.UserID)
	if err != nil {
		fail(msg, span, err)
		return
	}

	toReviews := func(rs []*domain.Review) []*reviewDTO {
		out := make([]*reviewDTO, 0, len(rs))
		for _, r := range rs {
			out = append(out, toReviewDTO(r))
		}
		return out
	}
	tickets := make([]*ticketDTO, 0, len(posts.OpenTickets))
	for _, t := range posts.OpenTickets {
		tickets = append(tickets, toTicketDTO(t))
	}
	respond(msg, span, map[string]any{
		"open_tickets":   tickets,
		"self_critiques": toReviews(posts.SelfCritiques),
		"responses":      toReviews(posts.Responses),
	})
}

// --- GRAPHE DE SUIVI ---

func (h *EventHandler) handleFollowCreate(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "follow.create")
	defer span.End()
	defer cancel()

	var req struct {
		FollowerID   string `json:"follower_id"`
		TargetHandle string `json:"target_handle"`
	}
	if !decode(msg, span, &req) {
		return
	}

	edge, err := h.follows.Follow(ctx, req.FollowerID, req.TargetHandle)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, toFollowEdgeDTO(*edge))
}

func (h *EventHandler) handleFollowDelete(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "follow.delete")
	defer span.End()
	defer cancel()

	var req struct {
		EdgeID  string `json:"edge_id"`
		ActorID string `json:"actor_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	if err := h.follows.Unfollow(ctx, req.EdgeID, req.ActorID); err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, map[string]bool{"deleted": true})
}

func (h *EventHandler) handleFollowsGet(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "follows.get")
	defer span.End()
	defer cancel()

	var req struct {
		UserID string `json:"user_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	edges, err := h.follows.FollowingEdges(ctx, req.UserID)
	if err != nil {
		fail(msg, span, err)
		return
	}
	// Handles et non ids : c'est ce que la page de gestion affiche.
	followers, err := h.follows.FollowerHandles(ctx, req.UserID)
	if err != nil {
		fail(msg, span, err)
		return
	}

	dtos := make([]followEdgeDTO, 0, len(edges))
	for _, e := range edges {
		dtos = append(dtos, toFollowEdgeDTO(e))
	}
	respond(msg, span, map[string]any{
		"following": dtos,
		"followers": followers,
	})
}
