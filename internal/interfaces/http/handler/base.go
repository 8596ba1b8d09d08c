// Package handler translates HTTP requests into bus commands and bus
// results into HTTP responses.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	bus *command.Bus
}

// NewBaseHandler binds handlers to the command bus
func NewBaseHandler(bus *command.Bus) BaseHandler {
	return BaseHandler{bus: bus}
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status and code
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, message, c.GetString(middleware.RequestIDKey)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func (h *BaseHandler) Unauthorized(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnauthorized, code, message)
}

// HandleError maps an error from the core onto the HTTP response. Server
// side failures are logged with their cause; clients only see a code.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, info := dto.FromError(err)
	info.RequestID = c.GetString(middleware.RequestIDKey)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Request failed", zap.String("code", info.Code), zap.Error(err))
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.Response{Error: &info})
}

// actor returns the authenticated actor; public routes get the zero actor
func actor(c *gin.Context) command.Actor {
	a, _ := middleware.GetActor(c)
	return a
}

// dispatch runs cmd for the caller. On failure the error response is
// already written and ok is false.
func dispatch[R any](h *BaseHandler, c *gin.Context, cmd command.Command) (result R, ok bool) {
	result, err := command.DispatchAs[R](c.Request.Context(), h.bus, cmd, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return result, false
	}
	return result, true
}

// respond dispatches cmd and writes its result with status
func respond[R any](h *BaseHandler, c *gin.Context, status int, cmd command.Command) {
	if result, ok := dispatch[R](h, c, cmd); ok {
		c.JSON(status, dto.NewSuccessResponse(result))
	}
}

// respondPage dispatches a list command and writes the page with its meta
func respondPage[T any](h *BaseHandler, c *gin.Context, cmd command.Command) {
	if page, ok := dispatch[command.Page[T]](h, c, cmd); ok {
		c.JSON(http.StatusOK, dto.NewPageResponse(page.Items, page.Total, page.Offset, page.Limit))
	}
}

// bindJSON binds and validates the request body
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// pathID parses the UUID path parameter name
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// ListRequest holds the paging and search query parameters of list routes
type ListRequest struct {
	Search string `form:"search" binding:"max=100"`
	SortBy string `form:"sort_by" binding:"max=64"`
	Offset int    `form:"offset" binding:"min=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// Query converts the request into the command's list query
func (r ListRequest) Query() command.ListQuery {
	return command.ListQuery{Search: r.Search, SortBy: r.SortBy, Offset: r.Offset, Limit: r.Limit}
}

// listQuery binds the list query parameters
func listQuery(c *gin.Context) (command.ListQuery, bool) {
	var req ListRequest
	if !bindQuery(c, &req) {
		return command.ListQuery{}, false
	}
	return req.Query(), true
}
