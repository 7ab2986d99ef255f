package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// GroupFeed 分组页
type GroupFeed struct {
	Group *model.Group
	Page  *Page
}

// ProfileFeed 作者主页
type ProfileFeed struct {
	Author    *model.User
	Page      *Page
	PostCount int64
	Following bool

	FollowingCount int // 作者关注的人数
}

// FeedService 帖子列表服务：首页、分组、作者、关注流
type FeedService interface {
	Index(ctx context.Context, page string) (*Page, error)
	GroupPosts(ctx context.Context, slug, page string) (*GroupFeed, error)
	Profile(ctx context.Context, viewer *model.User, username, page string) (*ProfileFeed, error)
	FollowIndex(ctx context.Context, viewer *model.User, page string) (*Page, error)
}

type feedService struct {
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	paginator  Paginator
}

func NewFeedService(postRepo repository.PostRepository, groupRepo repository.GroupRepository, userRepo repository.UserRepository, followRepo repository.FollowRepository, pageSize int) FeedService {
	return &feedService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		paginator:  NewPaginator(pageSize),
	}
}

func (s *feedService) Index(ctx context.Context, page string) (*Page, error) {
	return s.list(ctx, repository.PostFilter{}, page)
}

func (s *feedService) GroupPosts(ctx context.Context, slug, page string) (*GroupFeed, error) {
	g, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	pg, err := s.list(ctx, repository.PostFilter{GroupID: &g.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: g, Page: pg}, nil
}

func (s *feedService) Profile(ctx context.Context, viewer *model.User, username, page string) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	pg, err := s.list(ctx, repository.PostFilter{AuthorID: &author.ID}, page)
	if err != nil {
		return nil, err
	}
	authorIDs, err := s.followRepo.ListAuthorIDs(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("list followed authors: %w", err)
	}
	feed := &ProfileFeed{Author: author, Page: pg, PostCount: pg.Count, FollowingCount: len(authorIDs)}
	if viewer != nil {
		if feed.Following, err = s.followRepo.Exists(ctx, viewer.ID, author.ID); err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
	}
	return feed, nil
}

func (s *feedService) FollowIndex(ctx context.Context, viewer *model.User, page string) (*Page, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	return s.list(ctx, repository.PostFilter{FollowerID: &viewer.ID}, page)
}

func (s *feedService) list(ctx context.Context, f repository.PostFilter, raw string) (*Page, error) {
	count, err := s.postRepo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	number := s.paginator.Resolve(raw, count)
	items, err := s.postRepo.List(ctx, f, s.paginator.Offset(number), s.paginator.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.paginator.Page(items, number, count), nil
}
