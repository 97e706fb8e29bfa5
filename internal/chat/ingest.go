package chat

import (
	"context"
	"strings"

	"chat-relay/internal/models"
	"chat-relay/internal/repository"
)

// Service is the single ingestion path for both transports: normalize the
// raw input, persist it, then fan the stored row out to the global room.
// Constructed once at startup and threaded into every handler, so tests can
// substitute the store.
type Service struct {
	repo repository.MessageRepo
	hub  *Hub
}

func NewService(repo repository.MessageRepo, hub *Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

// Ingest trims text, defaults a blank user to Anonymous, appends and
// broadcasts. Returns repository.ErrEmptyText without persisting anything
// when text trims to empty; store failures propagate and nothing is
// broadcast.
func (s *Service) Ingest(ctx context.Context, user, text string) (*models.ChatMessage, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		user = models.AnonymousUser
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, repository.ErrEmptyText
	}

	msg, err := s.repo.Append(ctx, user, text)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(GlobalRoom, msg)
	return msg, nil
}

// History reads the most recent transcript page straight from the store.
func (s *Service) History(ctx context.Context) ([]*models.ChatMessage, error) {
	return s.repo.Recent(ctx, repository.DefaultHistoryLimit)
}
