package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
)

// BankAccountRequest describes a new account. Currency, country and type
// are checked at binding time so clients get field level errors.
type BankAccountRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	AccountNumber string `json:"account_number" binding:"required,max=64"`
	Type          string `json:"type" binding:"required,account_type"`
	Currency      string `json:"currency" binding:"required,currency"`
	Country       string `json:"country" binding:"required,country"`
}

func (r BankAccountRequest) input() command.AccountInput {
	return command.AccountInput{
		Title:         r.Title,
		AccountNumber: r.AccountNumber,
		Type:          r.Type,
		Currency:      r.Currency,
		Country:       r.Country,
	}
}

// SenderAccountRequest adds the owning company to a new sender account
type SenderAccountRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
	BankAccountRequest
}

// BankAccountPatchRequest is a partial update. Number and type are fixed
// once the account exists.
type BankAccountPatchRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=255"`
	Currency *string `json:"currency" binding:"omitempty,currency"`
	Country  *string `json:"country" binding:"omitempty,country"`
}

func (r BankAccountPatchRequest) patch() command.AccountPatch {
	return command.AccountPatch{Title: r.Title, Currency: r.Currency, Country: r.Country}
}

// BankAccountHandler serves employer sender accounts and contractor
// recipient accounts
type BankAccountHandler struct {
	BaseHandler
}

// NewBankAccountHandler creates a new bank account handler
func NewBankAccountHandler(bus *command.Bus) *BankAccountHandler {
	return &BankAccountHandler{BaseHandler: NewBaseHandler(bus)}
}

// SenderList godoc
// @Summary      List sender accounts
// @Description  Sender accounts of every company the employer belongs to
// @Tags         employer-bank-accounts
// @Produce      json
// @Param        offset query int false "Offset"
// @Param        limit query int false "Limit"
// @Success      200 {object} dto.Response{data=[]command.BankAccountDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /employer/sender-bank-accounts [get]
func (h *BankAccountHandler) SenderList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.BankAccountDTO](&h.BaseHandler, c, command.EmployerSenderAccountList{ListQuery: q})
}

// SenderCreate godoc
// @Summary      Create a sender account
// @Tags         employer-bank-accounts
// @Accept       json
// @Produce      json
// @Param        request body SenderAccountRequest true "Account"
// @Success      201 {object} dto.Response{data=command.BankAccountDTO}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /employer/sender-bank-accounts [post]
func (h *BankAccountHandler) SenderCreate(c *gin.Context) {
	var req SenderAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusCreated, command.EmployerSenderAccountCreate{
		CompanyID:    req.CompanyID,
		AccountInput: req.input(),
	})
}

func (h *BankAccountHandler) SenderRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerSenderAccountRetrieve{AccountID: id})
}

func (h *BankAccountHandler) SenderUpdate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req BankAccountPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusOK, command.EmployerSenderAccountUpdate{
		AccountID:    id,
		AccountPatch: req.patch(),
	})
}

func (h *BankAccountHandler) SenderDelete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.EmployerSenderAccountDelete{AccountID: id})
}

func (h *BankAccountHandler) RecipientList(c *gin.Context) {
	q, ok := listQuery(c)
	if !ok {
		return
	}
	respondPage[command.BankAccountDTO](&h.BaseHandler, c, command.ContractorRecipientAccountList{ListQuery: q})
}

// RecipientCreate adds an account the contractor gets paid into
func (h *BankAccountHandler) RecipientCreate(c *gin.Context) {
	var req BankAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusCreated, command.ContractorRecipientAccountCreate{
		AccountInput: req.input(),
	})
}

func (h *BankAccountHandler) RecipientRetrieve(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusOK, command.ContractorRecipientAccountRetrieve{AccountID: id})
}

func (h *BankAccountHandler) RecipientUpdate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req BankAccountPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.BankAccountDTO](&h.BaseHandler, c, http.StatusOK, command.ContractorRecipientAccountUpdate{
		AccountID:    id,
		AccountPatch: req.patch(),
	})
}

func (h *BankAccountHandler) RecipientDelete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	respond[command.Deleted](&h.BaseHandler, c, http.StatusOK, command.ContractorRecipientAccountDelete{AccountID: id})
}
