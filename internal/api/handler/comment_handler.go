package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/service"
)

// AddComment 无论表单是否有效都跳回详情页；GET 不带表单数据，只会跳转
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	in := service.CommentInput{Text: c.PostForm("text")}
	_, err := h.comments.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, in)
	var ve *service.ValidationError
	if err != nil && !errors.As(err, &ve) {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}
