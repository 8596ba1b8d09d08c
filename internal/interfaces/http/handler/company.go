package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/application/command"
)

// CompanyRequest represents the request body for creating or renaming a company
type CompanyRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// InvitationRequest names the contractor to invite
type InvitationRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// CompanyHandler serves employer and contractor company routes
type CompanyHandler struct {
	BaseHandler
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(bus *command.Bus) *CompanyHandler {
	return &CompanyHandler{BaseHandler: NewBaseHandler(bus)}
}

// EmployerList godoc
// @Summary      List the employer's companies
// @Tags         employer-companies
// @Produce      json
// @Param        search query string false "Search by name"
// @Param        sort_by query string false "Sort field, prefix with - for descending"
// @Param        offset query int false "Offset"
// @Param        limit query int false "Limit"
// @Success      200 {object} dto.Response{data=[]command.CompanyDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /employer/companies [get]
func (h *CompanyHandler) EmployerList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.CompanyDTO](&h.BaseHandler, c, command.EmployerCompanyList{ListQuery: q})
}

// EmployerCreate godoc
// @Summary      Create a company
// @Description  The creating employer becomes the company's owner
// @Tags         employer-companies
// @Accept       json
// @Produce      json
// @Param        request body CompanyRequest true "Company"
// @Success      201 {object} dto.Response{data=command.CompanyDTO}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employer/companies [post]
func (h *CompanyHandler) EmployerCreate(c *gin.Context) {
	var req CompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.CompanyDTO](&h.BaseHandler, c, http.StatusCreated, command.EmployerCompanyCreate{Name: req.Name})
}

func (h *CompanyHandler) EmployerRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.CompanyDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerCompanyRetrieve{CompanyID: id})
}

func (h *CompanyHandler) EmployerUpdate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req CompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.CompanyDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerCompanyUpdate{CompanyID: id, Name: req.Name})
}

// EmployerDelete deletes a company the employer owns
func (h *CompanyHandler) EmployerDelete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.EmployerCompanyDelete{CompanyID: id})
}

// EmployerLeave removes the employer's membership
func (h *CompanyHandler) EmployerLeave(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.EmployerCompanyLeave{CompanyID: id})
}

// Invite godoc
// @Summary      Invite a contractor
// @Description  Email a single-use invitation code for the company
// @Tags         employer-companies
// @Accept       json
// @Produce      json
// @Param        id path string true "Company ID"
// @Param        request body InvitationRequest true "Invitee"
// @Success      201 {object} dto.Response{data=command.InviteDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employer/companies/{id}/invitations [post]
func (h *CompanyHandler) Invite(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req InvitationRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.InviteDTO](&h.BaseHandler, c, http.StatusCreated, command.SendInvitationCode{CompanyID: id, Email: req.Email})
}

// AcceptInvitation consumes an invitation code. The code is the
// credential, so the route is public.
func (h *CompanyHandler) AcceptInvitation(c *gin.Context) {
	var req CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.MembershipDTO](&h.BaseHandler, c, http.StatusOK, command.AcceptInvitation{Code: req.Code})
}

func (h *CompanyHandler) ContractorList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.CompanyDTO](&h.BaseHandler, c, command.ContractorCompanyList{ListQuery: q})
}

func (h *CompanyHandler) ContractorRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.CompanyDTO](&h.BaseHandler, c, http.StatusOK, command.ContractorCompanyRetrieve{CompanyID: id})
}

func (h *CompanyHandler) ContractorLeave(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.ContractorCompanyLeave{CompanyID: id})
}
