package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
)

// Index 首页：全部帖子
func (h *Handler) Index(c *gin.Context) {
	page, err := h.feeds.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.html(c, http.StatusOK, "posts/index.html", gin.H{"page_obj": page})
}

// GroupPosts 分组页
func (h *Handler) GroupPosts(c *gin.Context) {
	feed, err := h.feeds.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.html(c, http.StatusOK, "posts/group_list.html", gin.H{
		"group":    feed.Group,
		"page_obj": feed.Page,
	})
}

// Profile 作者主页
func (h *Handler) Profile(c *gin.Context) {
	username := c.Param("username")
	feed, err := h.feeds.Profile(c.Request.Context(), middleware.CurrentUser(c), username, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.html(c, http.StatusOK, "posts/profile.html", gin.H{
		"author":          feed.Author,
		"page_obj":        feed.Page,
		"author_name":     username,
		"count_user_post": feed.PostCount,
		"following":       feed.Following,
		"following_count": feed.FollowingCount,
	})
}

// FollowIndex 关注的作者的帖子
func (h *Handler) FollowIndex(c *gin.Context) {
	page, err := h.feeds.FollowIndex(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.html(c, http.StatusOK, "posts/follow.html", gin.H{"page_obj": page})
}
