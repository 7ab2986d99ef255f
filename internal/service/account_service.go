package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/auth"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type SignUpInput struct {
	Username string `form:"username" validate:"required,min=3,max=150,username"`
	Password string `form:"password" validate:"required,min=8,max=128"`
}

// AccountService 注册、登录与令牌识别
type AccountService interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	Identify(ctx context.Context, token string) (*model.User, error)
}

type accountService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	cost     int
}

func NewAccountService(userRepo repository.UserRepository, tokens *auth.TokenManager) AccountService {
	return &accountService{userRepo: userRepo, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *accountService) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	in.Username = trim(in.Username)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, invalid("username", "A user with that username already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: in.Username, Password: string(hash)}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Info("user signed up", zap.String("username", u.Username))
	return u, nil
}

func (s *accountService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := s.userRepo.GetByUsername(ctx, trim(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *accountService) Identify(ctx context.Context, token string) (*model.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}
