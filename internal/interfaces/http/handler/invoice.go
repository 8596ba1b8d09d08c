package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceItemRequest is one line of a new invoice
type InvoiceItemRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Quantity    int              `json:"quantity" binding:"min=0"`
	Description string           `json:"description" binding:"max=1000"`
}

// CreateInvoiceRequest issues an invoice to the company named by the
// X-Company-ID header
type CreateInvoiceRequest struct {
	RecipientAccountID uuid.UUID            `json:"recipient_account_id" binding:"required"`
	Description        string               `json:"description" binding:"max=1000"`
	Items              []InvoiceItemRequest `json:"items" binding:"dive"`
}

// InvoiceItemChangeRequest is one line of the target item set. Lines with
// an id update that item, lines without one are created, and persisted
// items missing from the set are removed.
type InvoiceItemChangeRequest struct {
	ID          *uuid.UUID       `json:"id"`
	Amount      *decimal.Decimal `json:"amount"`
	Quantity    *int             `json:"quantity" binding:"omitempty,min=0"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
}

// UpdateInvoiceRequest edits an unpaid invoice. Omitting items keeps the
// lines as they are.
type UpdateInvoiceRequest struct {
	RecipientAccountID *uuid.UUID                  `json:"recipient_account_id"`
	Description        *string                     `json:"description" binding:"omitempty,max=1000"`
	Items              *[]InvoiceItemChangeRequest `json:"items" binding:"omitempty,dive"`
}

// PayInvoiceRequest names the sender account paying an invoice
type PayInvoiceRequest struct {
	SenderAccountID uuid.UUID `json:"sender_account_id" binding:"required"`
}

// BulkPayInvoiceRequest pays several invoices from one sender account
type BulkPayInvoiceRequest struct {
	InvoiceIDs      []uuid.UUID `json:"invoice_ids" binding:"required,min=1,max=100"`
	SenderAccountID uuid.UUID   `json:"sender_account_id" binding:"required"`
}

// EmployerInvoiceListRequest narrows the list to one company
type EmployerInvoiceListRequest struct {
	ListRequest
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
}

// InvoiceHandler serves contractor and employer invoice routes
type InvoiceHandler struct {
	BaseHandler
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(bus *command.Bus) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: NewBaseHandler(bus)}
}

// ContractorList godoc
// @Summary      List invoices to the current company
// @Tags         contractor-invoices
// @Produce      json
// @Param        X-Company-ID header string true "Company ID"
// @Param        offset query int false "Offset"
// @Param        limit query int false "Limit"
// @Success      200 {object} dto.Response{data=[]command.InvoiceDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /contractor/invoices [get]
func (h *InvoiceHandler) ContractorList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.InvoiceDTO](&h.BaseHandler, c, command.ContractorInvoiceList{ListQuery: q})
}

func (h *InvoiceHandler) ContractorRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.InvoiceDTO](&h.BaseHandler, c, http.StatusOK, command.ContractorInvoiceRetrieve{InvoiceID: id})
}

// ContractorCreate godoc
// @Summary      Create an invoice
// @Description  Issue an invoice to the company in X-Company-ID, paid into one of the contractor's accounts
// @Tags         contractor-invoices
// @Accept       json
// @Produce      json
// @Param        X-Company-ID header string true "Company ID"
// @Param        request body CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=command.InvoiceDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /contractor/invoices [post]
func (h *InvoiceHandler) ContractorCreate(c *gin.Context) {
	var req CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	items := make([]command.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, command.ItemInput{
			Amount:      *it.Amount,
			Quantity:    it.Quantity,
			Description: it.Description,
		})
	}
	respond[command.InvoiceDTO](&h.BaseHandler, c, http.StatusCreated, command.ContractorInvoiceCreate{
		RecipientAccountID: req.RecipientAccountID,
		Description:        req.Description,
		Items:              items,
	})
}

// ContractorUpdate godoc
// @Summary      Update an unpaid invoice
// @Description  When items are given they replace the invoice lines: matched by id, created without one, removed when absent
// @Tags         contractor-invoices
// @Accept       json
// @Produce      json
// @Param        X-Company-ID header string true "Company ID"
// @Param        id path string true "Invoice ID"
// @Param        request body UpdateInvoiceRequest true "Changes"
// @Success      200 {object} dto.Response{data=command.InvoiceDTO}
// @Security     BearerAuth
// @Router       /contractor/invoices/{id} [patch]
func (h *InvoiceHandler) ContractorUpdate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := command.ContractorInvoiceUpdate{
		InvoiceID:          id,
		RecipientAccountID: req.RecipientAccountID,
		Description:        req.Description,
	}
	if req.Items != nil {
		changes := make([]invoicing.ItemChange, 0, len(*req.Items))
		for _, it := range *req.Items {
			changes = append(changes, invoicing.ItemChange{
				ID:          it.ID,
				Amount:      it.Amount,
				Quantity:    it.Quantity,
				Description: it.Description,
			})
		}
		cmd.Items = &changes
	}
	respond[command.InvoiceDTO](&h.BaseHandler, c, http.StatusOK, cmd)
}

func (h *InvoiceHandler) ContractorDelete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.ContractorInvoiceDelete{InvoiceID: id})
}

// EmployerList lists invoices addressed to the employer's companies
func (h *InvoiceHandler) EmployerList(c *gin.Context) {
	var req EmployerInvoiceListRequest
	if !bindQuery(c, &req) {
		return
	}
	cmd := command.EmployerInvoiceList{ListQuery: req.Query()}
	if req.CompanyID != "" {
		id := uuid.MustParse(req.CompanyID)
		cmd.CompanyID = &id
	}
	respondPage[command.InvoiceDTO](&h.BaseHandler, c, cmd)
}

func (h *InvoiceHandler) EmployerRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.InvoiceDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerInvoiceRetrieve{InvoiceID: id})
}

// EmployerPay godoc
// @Summary      Pay an invoice
// @Description  Not available: paying requires a payment provider
// @Tags         employer-invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Param        request body PayInvoiceRequest true "Sender account"
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employer/invoices/{id}/pay [post]
func (h *InvoiceHandler) EmployerPay(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PayInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[any](&h.BaseHandler, c, http.StatusOK, command.EmployerInvoicePay{
		InvoiceID:       id,
		SenderAccountID: req.SenderAccountID,
	})
}

// EmployerBulkPay pays several invoices. Not available.
func (h *InvoiceHandler) EmployerBulkPay(c *gin.Context) {
	var req BulkPayInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[any](&h.BaseHandler, c, http.StatusOK, command.EmployerBulkInvoicePay{
		InvoiceIDs:      req.InvoiceIDs,
		SenderAccountID: req.SenderAccountID,
	})
}
