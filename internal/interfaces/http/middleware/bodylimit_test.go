package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.String(http.StatusOK, req.Name)
	})

	t.Run("within limit", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("declared length too large", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"much too long"}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeTooLarge, errorCode(t, w))
	})

	t.Run("streamed body too large", func(t *testing.T) {
		body := io.MultiReader(bytes.NewReader([]byte(`{"name":"`)), strings.NewReader(strings.Repeat("a", 64)+`"}`))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.ContentLength = -1
		w := serve(r, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
