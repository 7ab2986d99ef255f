package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/yatube/internal/model"
)

func BenchmarkFollowWrite(b *testing.B) {
	db := setupDB(b)
	followRepo := NewFollowRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{Username: fmt.Sprintf("u%04d", i), Password: "p"}
	}
	if err := db.Create(&users).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rnd := rand.New(rand.NewSource(42))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rnd.Intn(len(users))].ID
		to := users[rnd.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
	}
}

func BenchmarkFollowFeed(b *testing.B) {
	db := setupDB(b)
	followRepo := NewFollowRepository(db)
	postRepo := NewPostRepository(db)
	ctx := context.Background()

	// 构造：reader 关注 N 个作者，每个作者 5 篇帖子
	const N = 200
	reader := model.User{Username: "reader", Password: "p"}
	_ = db.Create(&reader).Error
	for i := 0; i < N; i++ {
		author := model.User{Username: fmt.Sprintf("a%d", i), Password: "p"}
		_ = db.Create(&author).Error
		_ = followRepo.Create(ctx, reader.ID, author.ID)
		for j := 0; j < 5; j++ {
			_ = postRepo.Create(ctx, &model.Post{Text: "t", AuthorID: author.ID})
		}
	}
	filter := PostFilter{FollowerID: &reader.ID}

	b.ResetTimer()
	b.Run("Count", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = postRepo.Count(ctx, filter)
		}
	})
	b.Run("FirstPage", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = postRepo.List(ctx, filter, 0, 10)
		}
	})
}
