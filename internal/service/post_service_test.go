package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/repository"
)

func TestPostService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	g := f.group(t, "g")

	post, err := f.post.Create(ctx, author, PostInput{
		Text:    "  hello  ",
		GroupID: uintPtr(g.ID),
		Image:   &Upload{Filename: "small.png", Data: pngBytes(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, "posts/small.png", post.Image)
	assert.Equal(t, "g", post.Group.Slug)

	_, err = os.Stat(filepath.Join(f.media, "posts", "small.png"))
	assert.NoError(t, err)

	stored, err := f.post.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "posts/small.png", stored.Image)
	assert.Equal(t, author.ID, stored.AuthorID)
}

func TestPostService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")

	tests := []struct {
		name  string
		in    PostInput
		field string
	}{
		{name: "empty text", in: PostInput{Text: "   "}, field: "text"},
		{name: "unknown group", in: PostInput{Text: "x", GroupID: uintPtr(999)}, field: "group"},
		{name: "not an image", in: PostInput{Text: "x", Image: &Upload{Filename: "a.txt", Data: []byte("plain")}}, field: "image"},
		{name: "parent dir name", in: PostInput{Text: "x", Image: &Upload{Filename: "..", Data: pngBytes(t)}}, field: "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.post.Create(ctx, author, tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	cnt, err := f.posts.Count(ctx, repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, cnt)

	_, err = f.post.Create(ctx, nil, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPostService_EditByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	g := f.group(t, "g")

	post, err := f.post.Create(ctx, author, PostInput{
		Text:    "before",
		GroupID: uintPtr(g.ID),
		Image:   &Upload{Filename: "one.png", Data: pngBytes(t)},
	})
	require.NoError(t, err)

	// 不上传新图片则保留原图；空分组清除分组
	edited, ok, err := f.post.Edit(ctx, author, post.ID, PostInput{Text: "after"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, edited.GroupID)

	stored, err := f.post.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Text)
	assert.Nil(t, stored.GroupID)
	assert.Equal(t, "posts/one.png", stored.Image)

	_, _, err = f.post.Edit(ctx, author, post.ID, PostInput{Text: "again", Image: &Upload{Filename: "two.png", Data: pngBytes(t)}})
	require.NoError(t, err)
	stored, err = f.post.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "posts/two.png", stored.Image)
}

func TestPostService_EditByOtherUserIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	other := f.user(t, "other")

	post, err := f.post.Create(ctx, author, PostInput{Text: "original"})
	require.NoError(t, err)

	got, ok, err := f.post.Edit(ctx, other, post.ID, PostInput{Text: "hijacked"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "original", got.Text)

	stored, err := f.post.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Text)
}

func TestPostService_EditErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")

	_, _, err := f.post.Edit(ctx, author, 404, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.post.Edit(ctx, nil, 1, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPostService_Detail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	reader := f.user(t, "reader")
	posts := f.seedPosts(t, author, nil, 2)

	_, err := f.comment.AddComment(ctx, reader, posts[0].ID, CommentInput{Text: "first"})
	require.NoError(t, err)
	_, err = f.comment.AddComment(ctx, author, posts[0].ID, CommentInput{Text: "second"})
	require.NoError(t, err)

	d, err := f.post.Detail(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.PostCount)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "first", d.Comments[0].Text)
	assert.Equal(t, "reader", d.Comments[0].Author.Username)

	_, err = f.post.Detail(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
