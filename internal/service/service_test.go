package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/auth"
)

type fixture struct {
	db       *gorm.DB
	media    string
	users    repository.UserRepository
	groups   repository.GroupRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository

	feed    FeedService
	post    PostService
	comment CommentService
	follow  FollowService
	account AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))

	f := &fixture{
		db:       db,
		media:    t.TempDir(),
		users:    repository.NewUserRepository(db),
		groups:   repository.NewGroupRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
	}
	f.feed = NewFeedService(f.posts, f.groups, f.users, f.follows, 10)
	f.post = NewPostService(f.posts, f.groups, f.comments, storage.NewLocalStorage(f.media))
	f.comment = NewCommentService(f.posts, f.comments)
	f.follow = NewFollowService(f.users, f.follows)

	acc := NewAccountService(f.users, auth.NewTokenManager("test-secret", time.Hour)).(*accountService)
	acc.cost = bcrypt.MinCost
	f.account = acc
	return f
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Password: "-"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

func (f *fixture) seedPosts(t *testing.T, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	posts := make([]*model.Post, n)
	for i := range posts {
		p := &model.Post{Text: fmt.Sprintf("post %d", i), AuthorID: author.ID}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, f.posts.Create(context.Background(), p))
		posts[i] = p
	}
	return posts
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uintPtr(v uint) *uint { return &v }
