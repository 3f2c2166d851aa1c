package events

import (
	"time"

	"github.com/Kudzu86/P9bis/internal/core/domain"
)

// --- REPRÉSENTATION WIRE (JSON) ---
// Le format reste dans l'adapter : le core ne connaît que ses entités.

type ticketDTO struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	PromptAnswered bool      `json:"prompt_answered"`
	CreatedAt      time.Time `json:"created_at"`
}

type reviewFlagsDTO struct {
	IsSelfCritique      bool `json:"is_self_critique"`
	AnswersOthersTicket bool `json:"answers_others_ticket"`
	IsReply             bool `json:"is_reply"`
}

type reviewDTO struct {
	ID        string     `json:"id"`
	TicketID  string     `json:"ticket_id"`
	AuthorID  string     `json:"author_id"`
	Rating    int        `json:"rating"`
	Headline  string     `json:"headline"`
	Body      string     `json:"body,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Ticket    *ticketDTO `json:"ticket,omitempty"`
}

type feedItemDTO struct {
	ContentType string          `json:"content_type"` // "TICKET" ou "REVIEW"
	Ticket      *ticketDTO      `json:"ticket,omitempty"`
	Review      *reviewDTO      `json:"review,omitempty"`
	Flags       *reviewFlagsDTO `json:"flags,omitempty"`
}

type followEdgeDTO struct {
	ID         string    `json:"id"`
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// --- CONVERSIONS ---

func toTicketDTO(t *domain.Ticket) *ticketDTO {
	if t == nil {
		return nil
	}
	return &ticketDTO{
		ID:             t.ID,
		AuthorID:       t.AuthorID,
		Title:          t.Title,
		Description:    t.Description,
		ImageURL:       t.ImageURL,
		PromptAnswered: t.PromptAnswered,
		CreatedAt:      t.CreatedAt,
	}
}

func toReviewDTO(r *domain.Review) *reviewDTO {
	if r == nil {
		return nil
	}
	return &reviewDTO{
		ID:        r.ID,
		TicketID:  r.TicketID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Headline:  r.Headline,
		Body:      r.Body,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
		Ticket:    toTicketDTO(r.Ticket),
	}
}

func toFlagsDTO(f domain.ReviewFlags) *reviewFlagsDTO {
	return &reviewFlagsDTO{
		IsSelfCritique:      f.IsSelfCritique,
		AnswersOthersTicket: f.AnswersOthersTicket,
		IsReply:             f.IsReply,
	}
}

func toFeedItemDTO(item domain.FeedItem) feedItemDTO {
	dto := feedItemDTO{ContentType: string(item.Type)}
	switch item.Type {
	case domain.TypeTicket:
		dto.Ticket = toTicketDTO(item.Ticket)
	case domain.TypeReview:
		dto.Review = toReviewDTO(item.Review)
		dto.Flags = toFlagsDTO(item.Flags)
	}
	return dto
}

func toFollowEdgeDTO(e domain.FollowEdge) followEdgeDTO {
	return followEdgeDTO{
		ID:         e.ID,
		FollowerID: e.FollowerID,
		FolloweeID: e.FolloweeID,
		CreatedAt:  e.CreatedAt,
	}
}
