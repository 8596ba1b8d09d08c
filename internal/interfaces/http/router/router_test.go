package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("companies", "/companies")
		assert.Equal(t, "companies", g.Name())
		assert.Equal(t, "/companies", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g := NewDomainGroup("items", "/items").
			GET("", ok).
			POST("", ok).
			PATCH("/:id", ok).
			DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/items"},
			{http.MethodPost, "/api/v1/items"},
			{http.MethodPatch, "/api/v1/items/42"},
			{http.MethodDelete, "/api/v1/items/42"},
		} {
			w := serve(engine, tc.method, tc.path)
			assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		var seen []string
		g := NewDomainGroup("outer", "/outer").Use(func(c *gin.Context) {
			seen = append(seen, c.Request.URL.Path)
			c.Next()
		})
		g.Group("inner", "/inner").GET("/leaf", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group(""))

		w := serve(engine, http.MethodGet, "/outer/inner/leaf")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"/outer/inner/leaf"}, seen)
	})

	t.Run("middleware stays inside its group", func(t *testing.T) {
		engine := gin.New()
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }

		NewDomainGroup("public", "").GET("/open", ok).RegisterRoutes(engine.Group(""))
		NewDomainGroup("protected", "").Use(deny).GET("/closed", ok).RegisterRoutes(engine.Group(""))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/open").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/closed").Code)
	})
}
