package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- ENTITÉS ---

// Ticket est une demande de critique ("critiquez-moi ce livre").
// PromptAnswered vaut true quand le ticket a été créé en même temps que sa
// propre critique (soumission combinée) : il ne doit jamais apparaître dans un
// flux comme une demande ouverte.
type Ticket struct {
	ID             string
	AuthorID       string
	Title          string
	Description    string
	ImageURL       string
	PromptAnswered bool
	CreatedAt      time.Time
}

// Review est une critique notée, rattachée à exactement un ticket vivant
// (la suppression du ticket entraîne celle de ses critiques).
type Review struct {
	ID        string
	TicketID  string
	AuthorID  string
	Rating    int // 0 à 5 inclus
	Headline  string
	Body      string
	ImageURL  string
	CreatedAt time.Time

	// Ticket est hydraté par jointure côté repository : le flux et
	// l'annotation ont besoin de l'auteur (et du titre) du ticket visé.
	Ticket *Ticket
}

// --- FACTORIES ---
// Seul moyen de créer une entité valide : ID généré ici, invariants vérifiés ici.

func NewTicket(authorID, title, description, imageURL string) (*Ticket, error) {
	title = strings.TrimSpace(title)
	if authorID == "" {
		return nil, ErrMissingAuthor
	}
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > 128 {
		return nil, ErrTitleTooLong
	}
	if len(description) > 2048 {
		return nil, ErrDescriptionTooLong
	}

	return &Ticket{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Title:       title,
		Description: strings.TrimSpace(description),
		ImageURL:    strings.TrimSpace(imageURL),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// --- COMPORTEMENTS ---

// UpdateContent applique une édition en revalidant les invariants du ticket.
func (t *Ticket) UpdateContent(title, description, imageURL string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > 128 {
		return ErrTitleTooLong
	}
	if len(description) > 2048 {
		return ErrDescriptionTooLong
	}
	t.Title = title
	t.Description = strings.TrimSpace(description)
	if imageURL != "" {
		t.ImageURL = strings.TrimSpace(imageURL)
	}
	return nil
}

// UpdateContent applique une édition en revalidant la note et le titre.
func (r *Review) UpdateContent(rating int, headline, body string) error {
	headline = strings.TrimSpace(headline)
	if rating < 0 || rating > 5 {
		return ErrInvalidRating
	}
	if headline == "" {
		return ErrHeadlineRequired
	}
	if len(headline) > 255 {
		return ErrHeadlineTooLong
	}
	r.Rating = rating
	r.Headline = headline
	r.Body = strings.TrimSpace(body)
	return nil
}

func NewReview(ticketID, authorID string, rating int, headline, body, imageURL string) (*Review, error) {
	headline = strings.TrimSpace(headline)
	if ticketID == "" {
		return nil, ErrMissingTicket
	}
	if authorID == "" {
		return nil, ErrMissingAuthor
	}
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if headline == "" {
		return nil, ErrHeadlineRequired
	}
	if len(headline) > 255 {
		return nil, ErrHeadlineTooLong
	}

	return &Review{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		AuthorID:  authorID,
		Rating:    rating,
		Headline:  headline,
		Body:      strings.TrimSpace(body),
		ImageURL:  strings.TrimSpace(imageURL),
		CreatedAt: time.Now().UTC(),
	}, nil
}
