package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

const createTemplate = "posts/create_post.html"

// maxImageSize 单张图片上限
const maxImageSize = 10 << 20

// PostDetail 帖子详情，附评论表单
func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	d, err := h.posts.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.html(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"post":            d.Post,
		"group":           d.Post.Group,
		"author":          d.Post.Author,
		"form":            newForm(nil, nil),
		"count_user_post": d.PostCount,
		"comments":        d.Comments,
	})
}

// PostCreate GET 展示空表单，POST 发帖后跳转到作者主页
func (h *Handler) PostCreate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if c.Request.Method != http.MethodPost {
		h.postForm(c, http.StatusOK, newForm(nil, nil), nil)
		return
	}

	in, err := bindPostInput(c)
	if err == nil {
		_, err = h.posts.Create(c.Request.Context(), user, in)
	}
	if err != nil {
		if isValidation(err) {
			h.postForm(c, http.StatusOK, newForm(postFields(c), err), nil)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// PostEdit 仅作者可编辑；其他用户被静默跳回详情页
func (h *Handler) PostEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	if c.Request.Method != http.MethodPost {
		post, err := h.posts.Get(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		if post.AuthorID != user.ID {
			c.Redirect(http.StatusFound, detailURL(id))
			return
		}
		fields := gin.H{"text": post.Text, "group": post.GroupID, "image": post.Image}
		h.postForm(c, http.StatusOK, newForm(fields, nil), post)
		return
	}

	in, err := bindPostInput(c)
	if err != nil {
		post, gerr := h.posts.Get(ctx, id)
		if gerr != nil {
			h.fail(c, gerr)
			return
		}
		if post.AuthorID != user.ID {
			c.Redirect(http.StatusFound, detailURL(id))
			return
		}
		h.postForm(c, http.StatusOK, newForm(postFields(c), err), post)
		return
	}

	post, _, err := h.posts.Edit(ctx, user, id, in)
	if err != nil {
		if isValidation(err) && post != nil {
			h.postForm(c, http.StatusOK, newForm(postFields(c), err), post)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, detailURL(id))
}

func (h *Handler) postForm(c *gin.Context, code int, form formView, post *model.Post) {
	groups, err := h.posts.Groups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{"form": form, "is_edit": post != nil, "groups": groups}
	if post != nil {
		data["post"] = post
	}
	h.html(c, code, createTemplate, data)
}

// bindPostInput 读取 multipart 或 urlencoded 表单；空 group 表示不选分组
func bindPostInput(c *gin.Context) (service.PostInput, error) {
	in := service.PostInput{Text: c.PostForm("text")}
	if raw := strings.TrimSpace(c.PostForm("group")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return in, &service.ValidationError{Fields: map[string]string{"group": "Select a valid choice."}}
		}
		gid := uint(id)
		in.GroupID = &gid
	}

	fh, err := c.FormFile("image")
	if err != nil {
		// 没有上传文件
		return in, nil
	}
	if fh.Size > maxImageSize {
		return in, &service.ValidationError{Fields: map[string]string{"image": "The uploaded image is too large."}}
	}
	f, err := fh.Open()
	if err != nil {
		return in, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return in, fmt.Errorf("read upload: %w", err)
	}
	in.Image = &service.Upload{Filename: fh.Filename, Data: data}
	return in, nil
}

func postFields(c *gin.Context) gin.H {
	return gin.H{"text": c.PostForm("text"), "group": c.PostForm("group")}
}

func isValidation(err error) bool {
	var ve *service.ValidationError
	return errors.As(err, &ve)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func detailURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
