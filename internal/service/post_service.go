package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/metrics"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Upload 上传的图片
type Upload struct {
	Filename string
	Data     []byte
}

// PostInput 发帖 / 编辑表单
type PostInput struct {
	Text    string  `form:"text" validate:"required"`
	GroupID *uint   `form:"group"`
	Image   *Upload `form:"-"`
}

// PostDetail 帖子详情页
type PostDetail struct {
	Post      *model.Post
	Comments  []*model.Comment
	PostCount int64
}

type PostService interface {
	Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error)
	// Edit 非作者编辑时不修改、不报错，edited 为 false
	Edit(ctx context.Context, editor *model.User, postID uint, in PostInput) (post *model.Post, edited bool, err error)
	Get(ctx context.Context, postID uint) (*model.Post, error)
	Detail(ctx context.Context, postID uint) (*PostDetail, error)
	Groups(ctx context.Context) ([]*model.Group, error)
}

type postService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	store       storage.Storage
}

func NewPostService(postRepo repository.PostRepository, groupRepo repository.GroupRepository, commentRepo repository.CommentRepository, store storage.Storage) PostService {
	return &postService{postRepo: postRepo, groupRepo: groupRepo, commentRepo: commentRepo, store: store}
}

func (s *postService) Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	group, image, err := s.prepare(ctx, &in)
	if err != nil {
		return nil, err
	}
	post := &model.Post{Text: in.Text, AuthorID: author.ID, GroupID: in.GroupID, Image: image}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	post.Group = group

	metrics.PostsCreated.Inc()
	logger.Info("post created", zap.Uint("post_id", post.ID), zap.String("author", author.Username))
	return post, nil
}

func (s *postService) Edit(ctx context.Context, editor *model.User, postID uint, in PostInput) (*model.Post, bool, error) {
	if editor == nil {
		return nil, false, ErrUnauthenticated
	}
	post, err := s.postRepo.Get(ctx, postID)
	if err != nil {
		return nil, false, notFound(err)
	}
	if post.AuthorID != editor.ID {
		logger.Debug("edit by non-author ignored", zap.Uint("post_id", postID), zap.Uint("editor_id", editor.ID))
		return post, false, nil
	}

	group, image, err := s.prepare(ctx, &in)
	if err != nil {
		return post, false, err
	}
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = group
	if image != "" {
		post.Image = image
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, false, fmt.Errorf("update post %d: %w", postID, err)
	}
	logger.Info("post updated", zap.Uint("post_id", postID))
	return post, true, nil
}

func (s *postService) Get(ctx context.Context, postID uint) (*model.Post, error) {
	post, err := s.postRepo.Get(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func (s *postService) Detail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	return &PostDetail{Post: post, Comments: comments, PostCount: count}, nil
}

func (s *postService) Groups(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.List(ctx)
}

// prepare 校验表单，解析分组并落地图片；返回存储路径（无图片时为空）
func (s *postService) prepare(ctx context.Context, in *PostInput) (*model.Group, string, error) {
	in.Text = trim(in.Text)
	if err := validateStruct(in); err != nil {
		return nil, "", err
	}

	var group *model.Group
	if in.GroupID != nil {
		g, err := s.groupRepo.GetByID(ctx, *in.GroupID)
		if err != nil {
			if notFound(err) == ErrNotFound {
				return nil, "", invalid("group", "Select a valid choice.")
			}
			return nil, "", err
		}
		group = g
	}

	if in.Image == nil || len(in.Image.Data) == 0 {
		return group, "", nil
	}
	if _, err := storage.Key(in.Image.Filename); err != nil {
		return nil, "", invalid("image", "Upload a file with a valid name.")
	}
	if _, err := imaging.Decode(bytes.NewReader(in.Image.Data)); err != nil {
		return nil, "", invalid("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	path, err := s.store.Save(ctx, in.Image.Filename, bytes.NewReader(in.Image.Data))
	if err != nil {
		return nil, "", fmt.Errorf("store image: %w", err)
	}
	return group, path, nil
}
