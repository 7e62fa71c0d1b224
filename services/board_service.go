package services

import (
	"context"
	"log/slog"

	"remarks/domain"
	"remarks/errors"
	"remarks/moderation"
	"remarks/repositories"
)

type IBoardService interface {
	Post(ctx context.Context, session *domain.Session, cmd domain.PostMessageCommand) (int64, error)
	Feed(ctx context.Context) ([]domain.Message, error)
	Clear(ctx context.Context, cmd domain.ClearFeedCommand) error
}

// BoardService gates feed writes behind the session state and applies
// optional moderation before contents reach the store.
type BoardService struct {
	messages  repositories.IMessageRepository
	moderator *moderation.Moderator // nil disables censoring
	log       *slog.Logger
}

func NewBoardService(messages repositories.IMessageRepository, moderator *moderation.Moderator, log *slog.Logger) IBoardService {
	return &BoardService{messages: messages, moderator: moderator, log: log}
}

// Post appends one message on behalf of an authenticated session. Content is
// passed through as-is (empty included) unless a moderator is configured.
// ErrStoreFull means the message was dropped, not queued.
func (s *BoardService) Post(ctx context.Context, session *domain.Session, cmd domain.PostMessageCommand) (int64, error) {
	if session == nil || session.Status != domain.Authenticated {
		return 0, errors.ErrNotAuthenticated
	}

	content := cmd.Content
	if s.moderator != nil {
		content = s.moderator.Censor(content)
	}
	return s.messages.Append(ctx, content)
}

// Feed returns the full log in insertion order. Reads are not gated per
// message: any authenticated session sees the same shared feed.
func (s *BoardService) Feed(ctx context.Context) ([]domain.Message, error) {
	return s.messages.List(ctx)
}

// Clear drops the whole feed. Only the admin identity may reach it; the
// check stays behind Session.IsAdmin so call sites never compare usernames.
func (s *BoardService) Clear(ctx context.Context, cmd domain.ClearFeedCommand) error {
	if cmd.RequestedBy == nil || !cmd.RequestedBy.IsAdmin() {
		return errors.ErrAdminOnly
	}
	if err := s.messages.ClearAll(ctx); err != nil {
		return err
	}
	s.log.Info("Feed cleared", "by", cmd.RequestedBy.Username)
	return nil
}
