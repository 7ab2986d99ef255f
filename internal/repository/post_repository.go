package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter 列表过滤条件，字段为空表示不过滤
type PostFilter struct {
	GroupID    *uint
	AuthorID   *uint
	FollowerID *uint // 只返回该用户关注的作者的帖子
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).Omit("Author", "Group").Create(p).Error
}

// Update 覆盖 text / group / image；group 为空时写入 NULL
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{ID: p.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]any{"text": p.Text, "group_id": p.GroupID, "image": p.Image}).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Post{}, id).Error
}

func (r *postRepository) Get(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := r.scope(ctx, f).Model(&model.Post{}).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.scope(ctx, f).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) scope(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.AuthorID != nil {
		q = q.Where("author_id = ?", *f.AuthorID)
	}
	if f.FollowerID != nil {
		sub := r.db.Model(&model.Follow{}).Select("author_id").Where("user_id = ?", *f.FollowerID)
		q = q.Where("author_id IN (?)", sub)
	}
	return q
}
