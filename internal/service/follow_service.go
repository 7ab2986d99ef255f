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

// FollowService 关系链服务
type FollowService interface {
	// Follow 关注 username；关注自己时不做任何修改
	Follow(ctx context.Context, user *model.User, username string) (*model.User, error)
	Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error)
	IsFollowing(ctx context.Context, user *model.User, authorID uint) (bool, error)
}

type followService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository) FollowService {
	return &followService{userRepo: userRepo, followRepo: followRepo}
}

func (s *followService) Follow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.target(ctx, user, username)
	if err != nil {
		return nil, err
	}
	if author.ID == user.ID {
		logger.Debug("self follow ignored", zap.String("user", user.Username))
		return author, nil
	}
	if err := s.followRepo.Create(ctx, user.ID, author.ID); err != nil {
		return nil, fmt.Errorf("follow %s: %w", username, err)
	}
	metrics.FollowActions.WithLabelValues("follow").Inc()
	return author, nil
}

func (s *followService) Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.target(ctx, user, username)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, user.ID, author.ID); err != nil {
		return nil, fmt.Errorf("unfollow %s: %w", username, err)
	}
	metrics.FollowActions.WithLabelValues("unfollow").Inc()
	return author, nil
}

func (s *followService) IsFollowing(ctx context.Context, user *model.User, authorID uint) (bool, error) {
	if user == nil {
		return false, nil
	}
	return s.followRepo.Exists(ctx, user.ID, authorID)
}

func (s *followService) target(ctx context.Context, user *model.User, username string) (*model.User, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	return author, nil
}
