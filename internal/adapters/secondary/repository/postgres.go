package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kudzu86/P9bis/internal/core/domain"
	"github.com/Kudzu86/P9bis/internal/core/ports"
)

// Colonnes d'une critique jointe à son ticket : le flux et l'annotation ont
// toujours besoin de l'auteur du ticket, on hydrate systématiquement.
const reviewColumns = `
	r.id, r.ticket_id, r.author_id, r.rating, r.headline, r.body, r.image_url, r.created_at,
	t.id, t.author_id, t.title, t.description, t.image_url, t.prompt_answered, t.created_at
`

// querier permet d'exécuter les mêmes lectures sur le pool ou sur une
// transaction (instantané).
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// contentReader porte toutes les lectures ; PostgresRepo l'embarque branché
// sur le pool, ViewSnapshot en rebranche un sur une transaction.
type contentReader struct {
	q querier
}

type PostgresRepo struct {
	contentReader
	db *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{contentReader: contentReader{q: pool}, db: pool}
}

// EnsureSchema crée les tables et index (idempotent).
// La FK reviews -> tickets porte ON DELETE CASCADE : supprimer un ticket
// emporte ses critiques dans la même transaction, par construction.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			handle     TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tickets (
			id              TEXT PRIMARY KEY,
			author_id       TEXT NOT NULL REFERENCES users(id),
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			image_url       TEXT NOT NULL DEFAULT '',
			prompt_answered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			ticket_id  TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			rating     SMALLINT NOT NULL CHECK (rating BETWEEN 0 AND 5),
			headline   TEXT NOT NULL,
			body       TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tickets_author ON tickets(author_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_author ON reviews(author_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_ticket ON reviews(ticket_id);
	`
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("db: ensure schema: %w", err)
	}
	return nil
}

// ViewSnapshot exécute fn sur une transaction REPEATABLE READ en lecture
// seule : toutes les requêtes du callback voient le même état de la base.
func (r *PostgresRepo) ViewSnapshot(ctx context.Context, fn func(ports.ContentReader) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("db: begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx) // no-op après commit

	if err := fn(&contentReader{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- LECTURES ---

func (c *contentReader) TicketsByAuthors(ctx context.Context, authorIDs []string, promptAnswered bool) ([]*domain.Ticket, error) {
	query := `
		SELECT id, author_id, title, description, image_url, prompt_answered, created_at
		FROM tickets
		WHERE author_id = ANY($1) AND prompt_answered = $2
	`
	rows, err := c.q.Query(ctx, query, authorIDs, promptAnswered)
	if err != nil {
		return nil, fmt.Errorf("db: tickets by authors: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (c *contentReader) ReviewsByAuthors(ctx context.Context, authorIDs []string) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.author_id = ANY($1)
	`
	rows, err := c.q.Query(ctx, query, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("db: reviews by authors: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (c *contentReader) ReviewsOnTicketsOf(ctx context.Context, ticketAuthorID string) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE t.author_id = $1
	`
	rows, err := c.q.Query(ctx, query, ticketAuthorID)
	if err != nil {
		return nil, fmt.Errorf("db: reviews on tickets of: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (c *contentReader) ReviewsByTicket(ctx context.Context, ticketID string) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.ticket_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`
	rows, err := c.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("db: reviews by ticket: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (c *contentReader) TicketByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := `
		SELECT id, author_id, title, description, image_url, prompt_answered, created_at
		FROM tickets WHERE id = $1
	`
	var t domain.Ticket
	err := c.q.QueryRow(ctx, query, ticketID).Scan(
		&t.ID, &t.AuthorID, &t.Title, &t.Description, &t.ImageURL, &t.PromptAnswered, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("db: ticket by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepo) ReviewByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.id = $1
	`
	row := r.db.QueryRow(ctx, query, reviewID)
	rev, err := scanReviewRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("db: review by id: %w", err)
	}
	return rev, nil
}

// --- ÉCRITURES ---

func (r *PostgresRepo) SaveTicket(ctx context.Context, t *domain.Ticket) error {
	if _, err := r.db.Exec(ctx, insertTicketSQL, ticketArgs(t)); err != nil {
		return fmt.Errorf("db: save ticket: %w", err)
	}
	return nil
}

func (r *PostgresRepo) UpdateTicket(ctx context.Context, t *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET title = @title, description = @description, image_url = @image_url
		WHERE id = @id
	`
	tag, err := r.db.Exec(ctx, query, pgx.NamedArgs{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"image_url":   t.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("db: update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteTicket(ctx context.Context, ticketID string) error {
	// Un seul DELETE : la FK ON DELETE CASCADE emporte les critiques
	// atomiquement, aucun état orphelin n'est observable.
	tag, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID)
	if err != nil {
		return fmt.Errorf("db: delete ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *PostgresRepo) SaveReview(ctx context.Context, rev *domain.Review) error {
	if _, err := r.db.Exec(ctx, insertReviewSQL, reviewArgs(rev)); err != nil {
		return fmt.Errorf("db: save review: %w", err)
	}
	return nil
}

func (r *PostgresRepo) UpdateReview(ctx context.Context, rev *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = @rating, headline = @headline, body = @body
		WHERE id = @id
	`
	tag, err := r.db.Exec(ctx, query, pgx.NamedArgs{
		"id":       rev.ID,
		"rating":   rev.Rating,
		"headline": rev.Headline,
		"body":     rev.Body,
	})
	if err != nil {
		return fmt.Errorf("db: update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteReview(ctx context.Context, reviewID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("db: delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// SaveTicketWithReview écrit la soumission combinée dans une transaction :
// le ticket "déjà répondu" n'est jamais visible sans sa critique.
func (r *PostgresRepo) SaveTicketWithReview(ctx context.Context, t *domain.Ticket, rev *domain.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin combined insert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertTicketSQL, ticketArgs(t)); err != nil {
		return fmt.Errorf("db: save ticket: %w", err)
	}
	if _, err := tx.Exec(ctx, insertReviewSQL, reviewArgs(rev)); err != nil {
		return fmt.Errorf("db: save review: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteReviewWithTicket est la suppression composée du flux auto-critique.
func (r *PostgresRepo) DeleteReviewWithTicket(ctx context.Context, reviewID, ticketID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin combined delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("db: delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID); err != nil {
		return fmt.Errorf("db: delete ticket: %w", err)
	}
	return tx.Commit(ctx)
}

// --- ANNUAIRE UTILISATEURS (lecture seule) ---

func (r *PostgresRepo) UserByID(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, handle, created_at FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Handle, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: user by id: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepo) UserByHandle(ctx context.Context, handle string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, handle, created_at FROM users WHERE handle = $1`, handle,
	).Scan(&u.ID, &u.Handle, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: user by handle: %w", err)
	}
	return &u, nil
}

// --- HELPERS ---

const insertTicketSQL = `
	INSERT INTO tickets (id, author_id, title, description, image_url, prompt_answered, created_at)
	VALUES (@id, @author_id, @title, @description, @image_url, @prompt_answered, @created_at)
`

const insertReviewSQL = `
	INSERT INTO reviews (id, ticket_id, author_id, rating, headline, body, image_url, created_at)
	VALUES (@id, @ticket_id, @author_id, @rating, @headline, @body, @image_url, @created_at)
`

func ticketArgs(t *domain.Ticket) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":              t.ID,
		"author_id":       t.AuthorID,
		"title":           t.Title,
		"description":     t.Description,
		"image_url":       t.ImageURL,
		"prompt_answered": t.PromptAnswered,
		"created_at":      t.CreatedAt,
	}
}

func reviewArgs(rev *domain.Review) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":         rev.ID,
		"ticket_id":  rev.TicketID,
		"author_id":  rev.AuthorID,
		"rating":     rev.Rating,
		"headline":   rev.Headline,
		"body":       rev.Body,
		"image_url":  rev.ImageURL,
		"created_at": rev.CreatedAt,
	}
}

func collectTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.AuthorID, &t.Title, &t.Description, &t.ImageURL, &t.PromptAnswered, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

func collectReviews(rows pgx.Rows) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for rows.Next() {
		rev, err := scanReviewRow(rows)
		if err != nil {
			return nil, fmt.Errorf("db: scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func scanReviewRow(row pgx.Row) (*domain.Review, error) {
	var rev domain.Review
	var t domain.Ticket
	err := row.Scan(
		&rev.ID, &rev.TicketID, &rev.AuthorID, &rev.Rating, &rev.Headline, &rev.Body, &rev.ImageURL, &rev.CreatedAt,
		&t.ID, &t.AuthorID, &t.Title, &t.Description, &t.ImageURL, &t.PromptAnswered, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rev.Ticket = &t
	return &rev, nil
}
