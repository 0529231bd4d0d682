package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/session"
	"github.com/Tonic56/crypto-market-watch/lib/errs"
)

type CommentsBackend interface {
	List(ctx context.Context, articleID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, comment models.Comment) (*models.Comment, error)
	Update(ctx context.Context, id string, comment models.Comment) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type CommentsService interface {
	List(ctx context.Context, articleID string) ([]models.Comment, error)
	Create(ctx context.Context, sess session.Session, articleID, text string) (*models.Comment, error)
	Update(ctx context.Context, sess session.Session, commentID, text string) (*models.Comment, error)
	Delete(ctx context.Context, sess session.Session, commentID string) error
}

type commentsService struct {
	backend CommentsBackend
	now     func() time.Time
}

func NewCommentsService(backend CommentsBackend) CommentsService {
	return &commentsService{
		backend: backend,
		now:     time.Now,
	}
}

func (s *commentsService) List(ctx context.Context, articleID string) ([]models.Comment, error) {
	const op = "service.comments.List"

	comments, err := s.backend.List(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

func (s *commentsService) Create(ctx context.Context, sess session.Session, articleID, text string) (*models.Comment, error) {
	const op = "service.comments.Create"

	if err := sess.Require(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" || articleID == "" {
		return nil, errs.ErrInvalidInput
	}

	created, err := s.backend.Create(ctx, models.Comment{
		NewsID:   articleID,
		UserID:   models.UserRef(sess.UserID.String()),
		UserName: sess.Name,
		Text:     text,
		Date:     s.now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

// Update rewrites the text of a comment. Only its author may do so.
func (s *commentsService) Update(ctx context.Context, sess session.Session, commentID, text string) (*models.Comment, error) {
	const op = "service.comments.Update"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.ErrInvalidInput
	}

	comment, err := s.owned(ctx, sess, commentID)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	updated, err := s.backend.Update(ctx, commentID, *comment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *commentsService) Delete(ctx context.Context, sess session.Session, commentID string) error {
	const op = "service.comments.Delete"

	if _, err := s.owned(ctx, sess, commentID); err != nil {
		return err
	}

	if err := s.backend.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *commentsService) owned(ctx context.Context, sess session.Session, commentID string) (*models.Comment, error) {
	const op = "service.comments.owned"

	if err := sess.Require(); err != nil {
		return nil, err
	}

	comment, err := s.backend.Get(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if string(comment.UserID) != sess.UserID.String() {
		return nil, errs.ErrForbidden
	}

	return comment, nil
}
