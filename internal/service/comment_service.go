package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/metrics"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type CommentInput struct {
	Text string `form:"text" validate:"required"`
}

type CommentService interface {
	AddComment(ctx context.Context, author *model.User, postID uint, in CommentInput) (*model.Comment, error)
}

type commentService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

func NewCommentService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) CommentService {
	return &commentService{postRepo: postRepo, commentRepo: commentRepo}
}

func (s *commentService) AddComment(ctx context.Context, author *model.User, postID uint, in CommentInput) (*model.Comment, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := s.postRepo.Get(ctx, postID); err != nil {
		return nil, notFound(err)
	}
	in.Text = trim(in.Text)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	c := &model.Comment{PostID: postID, AuthorID: author.ID, Text: in.Text}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.Author = *author

	metrics.CommentsCreated.Inc()
	logger.Info("comment added", zap.Uint("post_id", postID), zap.Uint("comment_id", c.ID))
	return c, nil
}
