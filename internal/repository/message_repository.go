package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chat-relay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultHistoryLimit caps how many messages Recent will ever return.
const DefaultHistoryLimit = 100

// ErrEmptyText rejects an append whose text trims to nothing. Nothing is
// persisted when this is returned.
var ErrEmptyText = errors.New("message text is empty")

type MessageRepo interface {
	// Append stores a new message, assigning its id and timestamps, and
	// returns the stored row.
	Append(ctx context.Context, user, text string) (*models.ChatMessage, error)
	// Recent returns up to limit messages in chronological order (oldest
	// first). limit <= 0 or limit > DefaultHistoryLimit uses the cap.
	Recent(ctx context.Context, limit int) ([]*models.ChatMessage, error)
}

type PostgresMessagesRepo struct {
	pool *pgxpool.Pool
}

func NewMessagesRepo(pool *pgxpool.Pool) MessageRepo {
	return &PostgresMessagesRepo{
		pool: pool,
	}
}

func (r *PostgresMessagesRepo) Append(ctx context.Context, user, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if strings.TrimSpace(user) == "" {
		user = models.AnonymousUser
	}

	now := time.Now().UTC()
	msg := &models.ChatMessage{
		ID:        uuid.New(),
		User:      user,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
        INSERT INTO messages (id, username, text, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.User,
		msg.Text,
		msg.CreatedAt,
		msg.UpdatedAt,
	)

	if err != nil {
		log.Printf("[REPO ERROR] Failed to save message from %s: %v", msg.User, err)
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

func (r *PostgresMessagesRepo) Recent(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	// Newest N rows first, reversed below so callers read a transcript
	// oldest-to-newest. seq breaks created_at ties in insertion order.
	query := `
        SELECT id, username, text, created_at, updated_at
        FROM messages
        ORDER BY created_at DESC, seq DESC
        LIMIT $1
    `

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		log.Printf("[REPO ERROR] Fetch failed: %v", err)
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0, limit)
	for rows.Next() {
		m := &models.ChatMessage{}
		err := rows.Scan(
			&m.ID,
			&m.User,
			&m.Text,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			log.Printf("[REPO ERROR] Scan failed: %v", err)
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
