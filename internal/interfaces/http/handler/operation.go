package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/application/command"
)

// OperationHandler serves the read-only payment operation routes
type OperationHandler struct {
	BaseHandler
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(bus *command.Bus) *OperationHandler {
	return &OperationHandler{BaseHandler: NewBaseHandler(bus)}
}

// EmployerList godoc
// @Summary      List operations of the employer's companies
// @Tags         employer-operations
// @Produce      json
// @Param        offset query int false "Offset"
// @Param        limit query int false "Limit"
// @Success      200 {object} dto.Response{data=[]command.OperationDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /employer/operations [get]
func (h *OperationHandler) EmployerList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.OperationDTO](&h.BaseHandler, c, command.EmployerOperationList{ListQuery: q})
}

func (h *OperationHandler) EmployerRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.OperationDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerOperationRetrieve{OperationID: id})
}

// ContractorList lists operations paying the contractor
func (h *OperationHandler) ContractorList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.OperationDTO](&h.BaseHandler, c, command.ContractorOperationList{ListQuery: q})
}

func (h *OperationHandler) ContractorRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.OperationDTO](&h.BaseHandler, c, http.StatusOK, command.ContractorOperationRetrieve{OperationID: id})
}
