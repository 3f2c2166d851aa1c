package events

import (
	"github.com/nats-io/nats.go"
)

// --- MUTATIONS DE CONTENU ---

type ticketPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type reviewPayload struct {
	Rating   int    `json:"rating"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
}

func (h *EventHandler) handleTicketCreate(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "ticket.create")
	defer span.End()
	defer cancel()

	var req struct {
		AuthorID string `json:"author_id"`
		ticketPayload
	}
	if !decode(msg, span, &req) {
		return
	}

	ticket, err := h.content.CreateTicket(ctx, req.AuthorID, req.Title, req.Description, req.ImageURL)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, toTicketDTO(ticket))
}

func (h *EventHandler) handleTicketUpdate(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "ticket.update")
	defer span.End()
	defer cancel()

	var req struct {
		TicketID string `json:"ticket_id"`
		ActorID  string `json:"actor_id"`
		ticketPayload
	}
	if !decode(msg, span, &req) {
		return
	}

	ticket, err := h.content.UpdateTicket(ctx, req.TicketID, req.ActorID, req.Title, req.Description, req.ImageURL)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, toTicketDTO(ticket))
}

func (h *EventHandler) handleTicketDelete(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "ticket.delete")
	defer span.End()
	defer cancel()

	var req struct {
		TicketID string `json:"ticket_id"`
		ActorID  string `json:"actor_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	if err := h.content.DeleteTicket(ctx, req.TicketID, req.ActorID); err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, map[string]bool{"deleted": true})
}

func (h *EventHandler) handleReviewCreate(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "review.create")
	defer span.End()
	defer cancel()

	var req struct {
		TicketID string `json:"ticket_id"`
		AuthorID string `json:"author_id"`
		reviewPayload
	}
	if !decode(msg, span, &req) {
		return
	}

	review, err := h.content.CreateReview(ctx, req.TicketID, req.AuthorID, req.Rating, req.Headline, req.Body, req.ImageURL)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, toReviewDTO(review))
}

func (h *EventHandler) handleReviewUpdate(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "review.update")
	defer span.End()
	defer cancel()

	var req struct {
		ReviewID string `json:"review_id"`
		ActorID  string `json:"actor_id"`
		reviewPayload
	}
	if !decode(msg, span, &req) {
		return
	}

	review, err := h.content.UpdateReview(ctx, req.ReviewID, req.ActorID, req.Rating, req.Headline, req.Body)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, toReviewDTO(review))
}

func (h *EventHandler) handleReviewDelete(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "review.delete")
	defer span.End()
	defer cancel()

	var req struct {
		ReviewID string `json:"review_id"`
		ActorID  string `json:"actor_id"`
	}
	if !decode(msg, span, &req) {
		return
	}

	if err := h.content.DeleteReview(ctx, req.ReviewID, req.ActorID); err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, map[string]bool{"deleted": true})
}

// handleTicketWithReview : soumission combinée, le ticket naît déjà répondu.
func (h *EventHandler) handleTicketWithReview(msg *nats.Msg) {
	ctx, span, cancel := start(msg, "ticketreview.create")
	defer span.End()
	defer cancel()

	var req struct {
		AuthorID    string `json:"author_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
		Rating      int    `json:"rating"`
		Headline    string `json:"headline"`
		Body        string `json:"body"`
	}
	if !decode(msg, span, &req) {
		return
	}

	ticket, review, err := h.content.CreateTicketWithReview(ctx, req.AuthorID,
		req.Title, req.Description, req.ImageURL,
		req.Rating, req.Headline, req.Body)
	if err != nil {
		fail(msg, span, err)
		return
	}
	respond(msg, span, map[string]any{
		"ticket": toTicketDTO(ticket),
		"review": toReviewDTO(review),
	})
}
