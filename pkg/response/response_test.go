package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		write  func(c *gin.Context)
		status int
		body   string
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"token": "t"}) }, http.StatusOK, `{"code":0,"message":"success","data":{"token":"t"}}`},
		{"bad request", func(c *gin.Context) { BadRequest(c, "nope") }, http.StatusBadRequest, `{"code":400,"message":"nope"}`},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "who") }, http.StatusUnauthorized, `{"code":401,"message":"who"}`},
		{"internal", func(c *gin.Context) { InternalError(c, errors.New("db down")) }, http.StatusInternalServerError, `{"code":500,"message":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
			tt.write(c)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
