package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_IndexPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	posts := f.seedPosts(t, author, nil, 13)

	first, err := f.feed.Index(ctx, "")
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, int64(13), first.Count)
	// 最新的帖子排在最前
	assert.Equal(t, posts[12].ID, first.Items[0].ID)
	assert.Equal(t, "auth", first.Items[0].Author.Username)

	second, err := f.feed.Index(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, posts[0].ID, second.Items[2].ID)

	outOfRange, err := f.feed.Index(ctx, "40")
	require.NoError(t, err)
	assert.Equal(t, 2, outOfRange.Number)
}

func TestFeedService_IndexEmpty(t *testing.T) {
	f := newFixture(t)

	pg, err := f.feed.Index(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, 1, pg.Number)
	assert.Empty(t, pg.Items)
}

func TestFeedService_GroupPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	g := f.group(t, "g")
	f.group(t, "missing")
	f.seedPosts(t, author, g, 1)
	f.seedPosts(t, author, nil, 2)

	feed, err := f.feed.GroupPosts(ctx, "g", "")
	require.NoError(t, err)
	assert.Equal(t, "g", feed.Group.Slug)
	require.Len(t, feed.Page.Items, 1)
	assert.Equal(t, g.ID, *feed.Page.Items[0].GroupID)

	other, err := f.feed.GroupPosts(ctx, "missing", "")
	require.NoError(t, err)
	assert.Empty(t, other.Page.Items)

	_, err = f.feed.GroupPosts(ctx, "nope", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedService_Profile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	reader := f.user(t, "reader")
	f.seedPosts(t, author, nil, 3)
	f.seedPosts(t, reader, nil, 1)

	feed, err := f.feed.Profile(ctx, nil, "auth", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), feed.PostCount)
	assert.False(t, feed.Following)

	require.NoError(t, f.follows.Create(ctx, reader.ID, author.ID))
	feed, err = f.feed.Profile(ctx, reader, "auth", "")
	require.NoError(t, err)
	assert.True(t, feed.Following)
	assert.Zero(t, feed.FollowingCount)

	feed, err = f.feed.Profile(ctx, nil, "reader", "")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.FollowingCount)

	_, err = f.feed.Profile(ctx, nil, "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedService_FollowIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	follower := f.user(t, "follower")
	stranger := f.user(t, "stranger")
	f.seedPosts(t, author, nil, 2)

	_, err := f.follow.Follow(ctx, follower, "auth")
	require.NoError(t, err)

	pg, err := f.feed.FollowIndex(ctx, follower, "")
	require.NoError(t, err)
	assert.Len(t, pg.Items, 2)

	pg, err = f.feed.FollowIndex(ctx, stranger, "")
	require.NoError(t, err)
	assert.Empty(t, pg.Items)

	_, err = f.feed.FollowIndex(ctx, nil, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
