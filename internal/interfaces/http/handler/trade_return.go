package handler

import (
	tradeapp "github.com/erp/tradeledger/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// PurchaseReturnHandler handles purchase return-related API endpoints
type PurchaseReturnHandler struct {
	BaseHandler
	returnService *tradeapp.PurchaseReturnService
}

// NewPurchaseReturnHandler creates a new PurchaseReturnHandler
func NewPurchaseReturnHandler(returnService *tradeapp.PurchaseReturnService) *PurchaseReturnHandler {
	return &PurchaseReturnHandler{returnService: returnService}
}

// Create handles POST /purchase-returns
func (h *PurchaseReturnHandler) Create(c *gin.Context) {
	var req tradeapp.CreatePurchaseReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ret, err := h.returnService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Purchase return created", ret)
}

// GetByID handles GET /purchase-returns/:id
func (h *PurchaseReturnHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "OK", ret)
}

// List handles GET /purchase-returns
func (h *PurchaseReturnHandler) List(c *gin.Context) {
	var filter tradeapp.PurchaseReturnListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	rets, total, err := h.returnService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, rets, total)
}

// Finish handles POST /purchase-returns/:id/finish
func (h *PurchaseReturnHandler) Finish(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.Finish(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Purchase return completed", ret)
}

// Cancel handles POST /purchase-returns/:id/cancel
func (h *PurchaseReturnHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Purchase return cancelled", ret)
}

// SalesReturnHandler handles sales return-related API endpoints
type SalesReturnHandler struct {
	BaseHandler
	returnService *tradeapp.SalesReturnService
}

// NewSalesReturnHandler creates a new SalesReturnHandler
func NewSalesReturnHandler(returnService *tradeapp.SalesReturnService) *SalesReturnHandler {
	return &SalesReturnHandler{returnService: returnService}
}

// Create handles POST /sales-returns
func (h *SalesReturnHandler) Create(c *gin.Context) {
	var req tradeapp.CreateSalesReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ret, err := h.returnService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Sales return created", ret)
}

// GetByID handles GET /sales-returns/:id
func (h *SalesReturnHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "OK", ret)
}

// List handles GET /sales-returns
func (h *SalesReturnHandler) List(c *gin.Context) {
	var filter tradeapp.SalesReturnListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	rets, total, err := h.returnService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, rets, total)
}

// Cancel handles POST /sales-returns/:id/cancel
func (h *SalesReturnHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	ret, err := h.returnService.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Sales return cancelled", ret)
}
