package domain

import (
	"sort"
	"time"
)

type ContentType string

const (
	TypeTicket ContentType = "TICKET"
	TypeReview ContentType = "REVIEW"
)

// ReviewFlags décrit la relation d'une critique avec son ticket et avec le
// lecteur courant. IsSelfCritique et IsReply sont complémentaires mais calculés
// indépendamment : le rendu les consomme comme deux signaux distincts.
type ReviewFlags struct {
	// IsSelfCritique : l'auteur du ticket a critiqué son propre sujet
	// (flux de soumission combinée ticket + critique).
	IsSelfCritique bool
	// AnswersOthersTicket : du point de vue du lecteur, la critique répond
	// à un ticket qu'il n'a pas rédigé.
	AnswersOthersTicket bool
	// IsReply : l'auteur de la critique diffère de celui du ticket,
	// c'est une vraie réponse.
	IsReply bool
}

// ComputeReviewFlags compare les trois identités (auteur de la critique,
// auteur du ticket, lecteur). Le ticket doit être hydraté ; sans lui on
// renvoie des flags neutres plutôt que de deviner.
func ComputeReviewFlags(r *Review, viewerID string) ReviewFlags {
	if r == nil || r.Ticket == nil {
		return ReviewFlags{}
	}
	return ReviewFlags{
		IsSelfCritique:      r.AuthorID == r.Ticket.AuthorID,
		AnswersOthersTicket: r.Ticket.AuthorID != viewerID,
		IsReply:             r.AuthorID != r.Ticket.AuthorID,
	}
}

// AnnotatedReview est une critique décorée de ses flags pour un lecteur donné.
type AnnotatedReview struct {
	Review *Review
	Flags  ReviewFlags
}

// FeedItem est l'union taguée {TICKET, REVIEW} : exactement un des deux
// pointeurs est renseigné selon Type. Jamais persisté, construit à la volée.
type FeedItem struct {
	Type   ContentType
	Ticket *Ticket
	Review *Review
	Flags  ReviewFlags // zéro pour un ticket
}

func TicketItem(t *Ticket) FeedItem {
	return FeedItem{Type: TypeTicket, Ticket: t}
}

func ReviewItem(r *Review, viewerID string) FeedItem {
	return FeedItem{Type: TypeReview, Review: r, Flags: ComputeReviewFlags(r, viewerID)}
}

func (i FeedItem) ID() string {
	if i.Type == TypeTicket {
		return i.Ticket.ID
	}
	return i.Review.ID
}

func (i FeedItem) AuthorID() string {
	if i.Type == TypeTicket {
		return i.Ticket.AuthorID
	}
	return i.Review.AuthorID
}

func (i FeedItem) CreatedAt() time.Time {
	if i.Type == TypeTicket {
		return i.Ticket.CreatedAt
	}
	return i.Review.CreatedAt
}

// Key est la clé de déduplication (type, id) : les deux sources de critiques
// se recoupent légitimement et doivent se replier sur un seul item.
func (i FeedItem) Key() string {
	return string(i.Type) + ":" + i.ID()
}

// OrderFeed trie du plus récent au plus ancien, avec départage déterministe
// par ID décroissant : deux exécutions sur les mêmes données donnent toujours
// le même ordre, même à timestamps égaux.
func OrderFeed(items []FeedItem) {
	sort.Slice(items, func(a, b int) bool {
		ta, tb := items[a].CreatedAt(), items[b].CreatedAt()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return items[a].ID() > items[b].ID()
	})
}

// OrderReviews applique le même ordre total aux critiques d'un ticket.
func OrderReviews(reviews []AnnotatedReview) {
	sort.Slice(reviews, func(a, b int) bool {
		ta, tb := reviews[a].Review.CreatedAt, reviews[b].Review.CreatedAt
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return reviews[a].Review.ID > reviews[b].Review.ID
	})
}

// TicketDetail est la vue détail : le ticket, toutes ses critiques annotées
// (plus récentes d'abord), et la critique du lecteur s'il en a déposé une.
type TicketDetail struct {
	Ticket       *Ticket
	Reviews      []AnnotatedReview
	ViewerReview *AnnotatedReview
}

// UserPosts regroupe les publications d'un utilisateur pour la page "mes posts" :
// ses tickets ouverts, ses auto-critiques et ses réponses aux tickets des autres.
type UserPosts struct {
	OpenTickets   []*Ticket
	SelfCritiques []*Review
	Responses     []*Review
}
