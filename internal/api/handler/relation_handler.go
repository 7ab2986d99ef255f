package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ProfileFollow 关注后回到作者主页
func (h *Handler) ProfileFollow(c *gin.Context) {
	author, err := h.follows.Follow(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow 取消关注后回到作者主页
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	author, err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}

// APIFollow 关注作者
// @Summary 关注作者
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/profile/{username}/follow [post]
func (h *Handler) APIFollow(c *gin.Context) {
	h.apiRelation(c, h.follows.Follow)
}

// APIUnfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param username path string true "作者用户名"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/profile/{username}/follow [delete]
func (h *Handler) APIUnfollow(c *gin.Context) {
	h.apiRelation(c, h.follows.Unfollow)
}

type relationAction func(ctx context.Context, user *model.User, username string) (*model.User, error)

func (h *Handler) apiRelation(c *gin.Context, action relationAction) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	author, err := action(c.Request.Context(), user, c.Param("username"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Response{Code: http.StatusNotFound, Message: "author not found"})
		return
	case err != nil:
		response.InternalError(c, err)
		return
	}
	following, err := h.follows.IsFollowing(c.Request.Context(), user, author.ID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"author": author.Username, "following": following})
}
