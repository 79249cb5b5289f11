package trade

import (
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Shared ====================

// ListQuery carries the pagination parameters common to every listing
type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Pagination converts the query into the domain pagination value
func (q ListQuery) Pagination() shared.Pagination {
	return shared.Pagination{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
}

// PayRequest appends a payment to an order
type PayRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Method string          `json:"method" binding:"required,max=50"`
}

// PaymentResponse is a row of payment history
type PaymentResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidBy uuid.UUID       `json:"paid_by"`
	PaidAt time.Time       `json:"paid_at"`
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("Invalid %s", field)
	}
	return &id, nil
}

func parseOptionalStatus(raw string) (*trade.Status, error) {
	if raw == "" {
		return nil, nil
	}
	status, err := trade.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func parseOptionalPaymentStatus(raw string) (*trade.PaymentStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status := trade.PaymentStatus(raw)
	if !status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Invalid payment status %q", raw)
	}
	return &status, nil
}

// endOfDay makes a date-only upper bound inclusive
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}

// ==================== Purchase Order ====================

// PurchaseOrderDetailRequest is a submitted purchase order line. ID is set
// when an existing line is being edited.
type PurchaseOrderDetailRequest struct {
	ID            *uuid.UUID      `json:"id"`
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price" binding:"decimal_gte0"`
	Quantity      decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID    uuid.UUID                    `json:"supplier_id" binding:"required"`
	Details       []PurchaseOrderDetailRequest `json:"details" binding:"required,min=1,dive"`
	PaidAmount    decimal.Decimal              `json:"paid_amount" binding:"decimal_gte0"`
	PaymentMethod string                       `json:"payment_method" binding:"max=50"`
	Remarks       string                       `json:"remarks" binding:"max=2000"`
}

// UpdatePurchaseOrderRequest resubmits the full line set of an in-progress order
type UpdatePurchaseOrderRequest struct {
	Details            []PurchaseOrderDetailRequest `json:"details" binding:"required,min=1,dive"`
	AppliedReceivables decimal.Decimal              `json:"applied_receivables" binding:"decimal_gte0"`
	Remarks            *string                      `json:"remarks" binding:"omitempty,max=2000"`
}

// PurchaseOrderListFilter represents filter options for purchase order list
type PurchaseOrderListFilter struct {
	ListQuery
	Search        string    `form:"search"`
	SupplierID    string    `form:"supplier_id" binding:"omitempty,uuid"`
	Status        string    `form:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED CANCELLED"`
	PaymentStatus string    `form:"payment_status" binding:"omitempty,oneof=UNPAID PAID"`
	From          time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To            time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

func (f PurchaseOrderListFilter) toDomain() (trade.PurchaseOrderFilter, error) {
	supplierID, err := parseOptionalID(f.SupplierID, "supplier_id")
	if err != nil {
		return trade.PurchaseOrderFilter{}, err
	}
	status, err := parseOptionalStatus(f.Status)
	if err != nil {
		return trade.PurchaseOrderFilter{}, err
	}
	paymentStatus, err := parseOptionalPaymentStatus(f.PaymentStatus)
	if err != nil {
		return trade.PurchaseOrderFilter{}, err
	}
	return trade.PurchaseOrderFilter{
		Pagination:    f.Pagination(),
		DateRange:     shared.DateRange{From: f.From, To: endOfDay(f.To)},
		SupplierID:    supplierID,
		Status:        status,
		PaymentStatus: paymentStatus,
		Search:        f.Search,
	}, nil
}

// PurchaseOrderDetailResponse represents a purchase order line in API responses
type PurchaseOrderDetailResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                 uuid.UUID                     `json:"id"`
	Code               string                        `json:"code"`
	SupplierID         uuid.UUID                     `json:"supplier_id"`
	Status             string                        `json:"status"`
	PaymentStatus      string                        `json:"payment_status"`
	SubTotal           decimal.Decimal               `json:"sub_total"`
	AppliedReceivables decimal.Decimal               `json:"applied_receivables"`
	GrandTotal         decimal.Decimal               `json:"grand_total"`
	PaidAmount         decimal.Decimal               `json:"paid_amount"`
	Remarks            string                        `json:"remarks"`
	CreatedBy          uuid.UUID                     `json:"created_by"`
	CompletedAt        *time.Time                    `json:"completed_at,omitempty"`
	CancelledAt        *time.Time                    `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
	UpdatedAt          time.Time                     `json:"updated_at"`
	Details            []PurchaseOrderDetailResponse `json:"details,omitempty"`
	Payments           []PaymentResponse             `json:"payments,omitempty"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to its response DTO
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	resp := toPurchaseOrderHeader(order)
	resp.Details = make([]PurchaseOrderDetailResponse, len(order.Details))
	for i, d := range order.Details {
		resp.Details[i] = PurchaseOrderDetailResponse{
			ID:               d.ID,
			ProductID:        d.ProductID,
			PurchasePrice:    d.PurchasePrice,
			Quantity:         d.Quantity,
			ReturnedQuantity: d.ReturnedQuantity,
			TotalPrice:       d.TotalPrice,
		}
	}
	resp.Payments = make([]PaymentResponse, len(order.Payments))
	for i, p := range order.Payments {
		resp.Payments[i] = PaymentResponse{ID: p.ID, Amount: p.Amount, Method: p.Method, PaidBy: p.PaidBy, PaidAt: p.PaidAt}
	}
	return resp
}

// ToPurchaseOrderListResponses converts orders to header-only list responses
func ToPurchaseOrderListResponses(orders []trade.PurchaseOrder) []PurchaseOrderResponse {
	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = toPurchaseOrderHeader(&orders[i])
	}
	return responses
}

func toPurchaseOrderHeader(order *trade.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:                 order.ID,
		Code:               order.Code,
		SupplierID:         order.SupplierID,
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		SubTotal:           order.SubTotal,
		AppliedReceivables: order.AppliedReceivables,
		GrandTotal:         order.GrandTotal,
		PaidAmount:         order.PaidAmount,
		Remarks:            order.Remarks,
		CreatedBy:          order.CreatedBy,
		CompletedAt:        order.CompletedAt,
		CancelledAt:        order.CancelledAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

func toPurchaseOrderLines(details []PurchaseOrderDetailRequest) []trade.PurchaseOrderDetailInput {
	lines := make([]trade.PurchaseOrderDetailInput, len(details))
	for i, d := range details {
		lines[i] = trade.PurchaseOrderDetailInput{
			ProductID:     d.ProductID,
			PurchasePrice: d.PurchasePrice,
			Quantity:      d.Quantity,
		}
		if d.ID != nil {
			lines[i].ID = *d.ID
		}
	}
	return lines
}

// ==================== Sales Order ====================

// SalesOrderProductRequest is a submitted product line
type SalesOrderProductRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	SellingPrice decimal.Decimal `json:"selling_price" binding:"decimal_gte0"`
	Quantity     decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

// SalesOrderServiceRequest is a submitted service line
type SalesOrderServiceRequest struct {
	Name         string          `json:"name" binding:"required,max=200"`
	SellingPrice decimal.Decimal `json:"selling_price" binding:"decimal_gte0"`
	Quantity     decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	CustomerID     uuid.UUID                  `json:"customer_id" binding:"required"`
	EntryDate      time.Time                  `json:"entry_date"`
	PaymentType    string                     `json:"payment_type" binding:"required,oneof=DOWN_PAYMENT FULL"`
	PaymentMethod  string                     `json:"payment_method" binding:"required,max=50"`
	PaidAmount     decimal.Decimal            `json:"paid_amount" binding:"decimal_gte0"`
	ProductDetails []SalesOrderProductRequest `json:"product_details" binding:"omitempty,dive"`
	ServiceDetails []SalesOrderServiceRequest `json:"service_details" binding:"omitempty,dive"`
	Remarks        string                     `json:"remarks" binding:"max=2000"`
}

// UpdateSalesOrderRequest edits header fields of an in-progress sales order
type UpdateSalesOrderRequest struct {
	EntryDate     time.Time `json:"entry_date"`
	PaymentMethod string    `json:"payment_method" binding:"max=50"`
	Remarks       string    `json:"remarks" binding:"max=2000"`
}

// SalesOrderListFilter represents filter options for sales order list
type SalesOrderListFilter struct {
	ListQuery
	Search         string    `form:"search"`
	CustomerID     string    `form:"customer_id" binding:"omitempty,uuid"`
	ProgressStatus string    `form:"progress_status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED CANCELLED"`
	PaymentStatus  string    `form:"payment_status" binding:"omitempty,oneof=UNPAID PAID"`
	From           time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To             time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

func (f SalesOrderListFilter) toDomain() (trade.SalesOrderFilter, error) {
	customerID, err := parseOptionalID(f.CustomerID, "customer_id")
	if err != nil {
		return trade.SalesOrderFilter{}, err
	}
	status, err := parseOptionalStatus(f.ProgressStatus)
	if err != nil {
		return trade.SalesOrderFilter{}, err
	}
	paymentStatus, err := parseOptionalPaymentStatus(f.PaymentStatus)
	if err != nil {
		return trade.SalesOrderFilter{}, err
	}
	return trade.SalesOrderFilter{
		Pagination:     f.Pagination(),
		DateRange:      shared.DateRange{From: f.From, To: endOfDay(f.To)},
		CustomerID:     customerID,
		ProgressStatus: status,
		PaymentStatus:  paymentStatus,
		Search:         f.Search,
	}, nil
}

// SalesOrderProductResponse represents a sales order product line
type SalesOrderProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	OriSellingPrice  decimal.Decimal `json:"ori_selling_price"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	Discount         decimal.Decimal `json:"discount"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// SalesOrderServiceResponse represents a sales order service line
type SalesOrderServiceResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID             uuid.UUID                   `json:"id"`
	Code           string                      `json:"code"`
	CustomerID     uuid.UUID                   `json:"customer_id"`
	EntryDate      time.Time                   `json:"entry_date"`
	PaymentType    string                      `json:"payment_type"`
	PaymentMethod  string                      `json:"payment_method"`
	ProgressStatus string                      `json:"progress_status"`
	PaymentStatus  string                      `json:"payment_status"`
	SubTotal       decimal.Decimal             `json:"sub_total"`
	Discount       decimal.Decimal             `json:"discount"`
	GrandTotal     decimal.Decimal             `json:"grand_total"`
	PaidAmount     decimal.Decimal             `json:"paid_amount"`
	Remarks        string                      `json:"remarks"`
	CreatedBy      uuid.UUID                   `json:"created_by"`
	CompletedAt    *time.Time                  `json:"completed_at,omitempty"`
	CancelledAt    *time.Time                  `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	ProductDetails []SalesOrderProductResponse `json:"product_details,omitempty"`
	ServiceDetails []SalesOrderServiceResponse `json:"service_details,omitempty"`
	Payments       []PaymentResponse           `json:"payments,omitempty"`
}

// ToSalesOrderResponse converts a domain SalesOrder to its response DTO
func ToSalesOrderResponse(order *trade.SalesOrder) SalesOrderResponse {
	resp := toSalesOrderHeader(order)
	resp.ProductDetails = make([]SalesOrderProductResponse, len(order.ProductDetails))
	for i, d := range order.ProductDetails {
		resp.ProductDetails[i] = SalesOrderProductResponse{
			ID:               d.ID,
			ProductID:        d.ProductID,
			CostPrice:        d.CostPrice,
			OriSellingPrice:  d.OriSellingPrice,
			SellingPrice:     d.SellingPrice,
			Quantity:         d.Quantity,
			ReturnedQuantity: d.ReturnedQuantity,
			Discount:         d.Discount,
			TotalPrice:       d.TotalPrice,
		}
	}
	resp.ServiceDetails = make([]SalesOrderServiceResponse, len(order.ServiceDetails))
	for i, d := range order.ServiceDetails {
		resp.ServiceDetails[i] = SalesOrderServiceResponse{
			ID:               d.ID,
			Name:             d.Name,
			SellingPrice:     d.SellingPrice,
			Quantity:         d.Quantity,
			ReturnedQuantity: d.ReturnedQuantity,
			TotalPrice:       d.TotalPrice,
		}
	}
	resp.Payments = make([]PaymentResponse, len(order.Payments))
	for i, p := range order.Payments {
		resp.Payments[i] = PaymentResponse{ID: p.ID, Amount: p.Amount, Method: p.Method, PaidBy: p.PaidBy, PaidAt: p.PaidAt}
	}
	return resp
}

// ToSalesOrderListResponses converts orders to header-only list responses
func ToSalesOrderListResponses(orders []trade.SalesOrder) []SalesOrderResponse {
	responses := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		responses[i] = toSalesOrderHeader(&orders[i])
	}
	return responses
}

func toSalesOrderHeader(order *trade.SalesOrder) SalesOrderResponse {
	return SalesOrderResponse{
		ID:             order.ID,
		Code:           order.Code,
		CustomerID:     order.CustomerID,
		EntryDate:      order.EntryDate,
		PaymentType:    string(order.PaymentType),
		PaymentMethod:  order.PaymentMethod,
		ProgressStatus: string(order.ProgressStatus),
		PaymentStatus:  string(order.PaymentStatus),
		SubTotal:       order.SubTotal,
		Discount:       order.Discount,
		GrandTotal:     order.GrandTotal,
		PaidAmount:     order.PaidAmount,
		Remarks:        order.Remarks,
		CreatedBy:      order.CreatedBy,
		CompletedAt:    order.CompletedAt,
		CancelledAt:    order.CancelledAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

// ==================== Purchase Return ====================

// PurchaseReturnDetailRequest is a submitted purchase return line. A zero
// return price falls back to the purchase price of the order line.
type PurchaseReturnDetailRequest struct {
	PurchaseOrderDetailID uuid.UUID       `json:"purchase_order_detail_id" binding:"required"`
	ReturnPrice           decimal.Decimal `json:"return_price" binding:"decimal_gte0"`
	ReturnQuantity        decimal.Decimal `json:"return_quantity" binding:"decimal_gt0"`
	Reason                string          `json:"reason" binding:"max=500"`
}

// CreatePurchaseReturnRequest represents a request to return goods to a supplier
type CreatePurchaseReturnRequest struct {
	PurchaseOrderID uuid.UUID                     `json:"purchase_order_id" binding:"required"`
	ReturnType      string                        `json:"return_type" binding:"required,oneof=REFUND REPLACEMENT_GOODS"`
	Details         []PurchaseReturnDetailRequest `json:"details" binding:"required,min=1,dive"`
	Remarks         string                        `json:"remarks" binding:"max=2000"`
}

// PurchaseReturnListFilter represents filter options for purchase return list
type PurchaseReturnListFilter struct {
	ListQuery
	PurchaseOrderID string `form:"purchase_order_id" binding:"omitempty,uuid"`
	Status          string `form:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED CANCELLED"`
	ReturnType      string `form:"return_type" binding:"omitempty,oneof=REFUND REPLACEMENT_GOODS"`
}

func (f PurchaseReturnListFilter) toDomain() (trade.PurchaseReturnFilter, error) {
	orderID, err := parseOptionalID(f.PurchaseOrderID, "purchase_order_id")
	if err != nil {
		return trade.PurchaseReturnFilter{}, err
	}
	status, err := parseOptionalStatus(f.Status)
	if err != nil {
		return trade.PurchaseReturnFilter{}, err
	}
	filter := trade.PurchaseReturnFilter{
		Pagination:      f.Pagination(),
		PurchaseOrderID: orderID,
		Status:          status,
	}
	if f.ReturnType != "" {
		rt := trade.ReturnType(f.ReturnType)
		if !rt.IsValid() {
			return trade.PurchaseReturnFilter{}, shared.ErrInvalidInput.WithMessage("Invalid return type %q", f.ReturnType)
		}
		filter.ReturnType = &rt
	}
	return filter, nil
}

// PurchaseReturnDetailResponse represents a purchase return line
type PurchaseReturnDetailResponse struct {
	ID                    uuid.UUID       `json:"id"`
	PurchaseOrderDetailID uuid.UUID       `json:"purchase_order_detail_id"`
	ReturnPrice           decimal.Decimal `json:"return_price"`
	ReturnQuantity        decimal.Decimal `json:"return_quantity"`
	TotalPrice            decimal.Decimal `json:"total_price"`
	Reason                string          `json:"reason,omitempty"`
}

// PurchaseReturnResponse represents a purchase return in API responses
type PurchaseReturnResponse struct {
	ID              uuid.UUID                      `json:"id"`
	Code            string                         `json:"code"`
	PurchaseOrderID uuid.UUID                      `json:"purchase_order_id"`
	ReturnType      string                         `json:"return_type"`
	Status          string                         `json:"status"`
	GrandTotal      decimal.Decimal                `json:"grand_total"`
	Remarks         string                         `json:"remarks"`
	CreatedBy       uuid.UUID                      `json:"created_by"`
	CompletedAt     *time.Time                     `json:"completed_at,omitempty"`
	CancelledAt     *time.Time                     `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
	Details         []PurchaseReturnDetailResponse `json:"details,omitempty"`
}

// ToPurchaseReturnResponse converts a domain PurchaseReturn to its response DTO
func ToPurchaseReturnResponse(ret *trade.PurchaseReturn) PurchaseReturnResponse {
	resp := toPurchaseReturnHeader(ret)
	resp.Details = make([]PurchaseReturnDetailResponse, len(ret.Details))
	for i, d := range ret.Details {
		resp.Details[i] = PurchaseReturnDetailResponse{
			ID:                    d.ID,
			PurchaseOrderDetailID: d.PurchaseOrderDetailID,
			ReturnPrice:           d.ReturnPrice,
			ReturnQuantity:        d.ReturnQuantity,
			TotalPrice:            d.TotalPrice,
			Reason:                d.Reason,
		}
	}
	return resp
}

// ToPurchaseReturnListResponses converts returns to header-only list responses
func ToPurchaseReturnListResponses(rets []trade.PurchaseReturn) []PurchaseReturnResponse {
	responses := make([]PurchaseReturnResponse, len(rets))
	for i := range rets {
		responses[i] = toPurchaseReturnHeader(&rets[i])
	}
	return responses
}

func toPurchaseReturnHeader(ret *trade.PurchaseReturn) PurchaseReturnResponse {
	return PurchaseReturnResponse{
		ID:              ret.ID,
		Code:            ret.Code,
		PurchaseOrderID: ret.PurchaseOrderID,
		ReturnType:      string(ret.ReturnType),
		Status:          string(ret.Status),
		GrandTotal:      ret.GrandTotal,
		Remarks:         ret.Remarks,
		CreatedBy:       ret.CreatedBy,
		CompletedAt:     ret.CompletedAt,
		CancelledAt:     ret.CancelledAt,
		CreatedAt:       ret.CreatedAt,
		UpdatedAt:       ret.UpdatedAt,
	}
}

// ==================== Sales Return ====================

// SalesReturnLineRequest is a submitted sales return line. A zero return
// price falls back to the selling price of the order line.
type SalesReturnLineRequest struct {
	DetailID       uuid.UUID       `json:"detail_id" binding:"required"`
	ReturnPrice    decimal.Decimal `json:"return_price" binding:"decimal_gte0"`
	ReturnQuantity decimal.Decimal `json:"return_quantity" binding:"decimal_gt0"`
	Reason         string          `json:"reason" binding:"max=500"`
}

// CreateSalesReturnRequest represents a request to take goods back from a customer
type CreateSalesReturnRequest struct {
	SalesOrderID   uuid.UUID                `json:"sales_order_id" binding:"required"`
	ProductDetails []SalesReturnLineRequest `json:"product_details" binding:"omitempty,dive"`
	ServiceDetails []SalesReturnLineRequest `json:"service_details" binding:"omitempty,dive"`
	Remarks        string                   `json:"remarks" binding:"max=2000"`
}

// SalesReturnListFilter represents filter options for sales return list
type SalesReturnListFilter struct {
	ListQuery
	SalesOrderID string `form:"sales_order_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=COMPLETED CANCELLED"`
}

func (f SalesReturnListFilter) toDomain() (trade.SalesReturnFilter, error) {
	orderID, err := parseOptionalID(f.SalesOrderID, "sales_order_id")
	if err != nil {
		return trade.SalesReturnFilter{}, err
	}
	status, err := parseOptionalStatus(f.Status)
	if err != nil {
		return trade.SalesReturnFilter{}, err
	}
	return trade.SalesReturnFilter{
		Pagination:   f.Pagination(),
		SalesOrderID: orderID,
		Status:       status,
	}, nil
}

// SalesReturnLineResponse represents a sales return line; DetailID points at
// the product or service line of the sales order.
type SalesReturnLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	DetailID       uuid.UUID       `json:"detail_id"`
	ReturnPrice    decimal.Decimal `json:"return_price"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Reason         string          `json:"reason,omitempty"`
}

// SalesReturnResponse represents a sales return in API responses
type SalesReturnResponse struct {
	ID             uuid.UUID                 `json:"id"`
	Code           string                    `json:"code"`
	SalesOrderID   uuid.UUID                 `json:"sales_order_id"`
	Status         string                    `json:"status"`
	GrandTotal     decimal.Decimal           `json:"grand_total"`
	Remarks        string                    `json:"remarks"`
	CreatedBy      uuid.UUID                 `json:"created_by"`
	CancelledAt    *time.Time                `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	ProductDetails []SalesReturnLineResponse `json:"product_details,omitempty"`
	ServiceDetails []SalesReturnLineResponse `json:"service_details,omitempty"`
}

// ToSalesReturnResponse converts a domain SalesReturn to its response DTO
func ToSalesReturnResponse(ret *trade.SalesReturn) SalesReturnResponse {
	resp := toSalesReturnHeader(ret)
	resp.ProductDetails = make([]SalesReturnLineResponse, len(ret.ProductDetails))
	for i, d := range ret.ProductDetails {
		resp.ProductDetails[i] = SalesReturnLineResponse{
			ID:             d.ID,
			DetailID:       d.SalesOrderProductDetailID,
			ReturnPrice:    d.ReturnPrice,
			ReturnQuantity: d.ReturnQuantity,
			TotalPrice:     d.TotalPrice,
			Reason:         d.Reason,
		}
	}
	resp.ServiceDetails = make([]SalesReturnLineResponse, len(ret.ServiceDetails))
	for i, d := range ret.ServiceDetails {
		resp.ServiceDetails[i] = SalesReturnLineResponse{
			ID:             d.ID,
			DetailID:       d.SalesOrderServiceDetailID,
			ReturnPrice:    d.ReturnPrice,
			ReturnQuantity: d.ReturnQuantity,
			TotalPrice:     d.TotalPrice,
			Reason:         d.Reason,
		}
	}
	return resp
}

// ToSalesReturnListResponses converts returns to header-only list responses
func ToSalesReturnListResponses(rets []trade.SalesReturn) []SalesReturnResponse {
	responses := make([]SalesReturnResponse, len(rets))
	for i := range rets {
		responses[i] = toSalesReturnHeader(&rets[i])
	}
	return responses
}

func toSalesReturnHeader(ret *trade.SalesReturn) SalesReturnResponse {
	return SalesReturnResponse{
		ID:           ret.ID,
		Code:         ret.Code,
		SalesOrderID: ret.SalesOrderID,
		Status:       string(ret.Status),
		GrandTotal:   ret.GrandTotal,
		Remarks:      ret.Remarks,
		CreatedBy:    ret.CreatedBy,
		CancelledAt:  ret.CancelledAt,
		CreatedAt:    ret.CreatedAt,
		UpdatedAt:    ret.UpdatedAt,
	}
}

func toSalesReturnLines(lines []SalesReturnLineRequest) []trade.SalesReturnLineInput {
	inputs := make([]trade.SalesReturnLineInput, len(lines))
	for i, l := range lines {
		inputs[i] = trade.SalesReturnLineInput{
			DetailID:       l.DetailID,
			ReturnPrice:    l.ReturnPrice,
			ReturnQuantity: l.ReturnQuantity,
			Reason:         l.Reason,
		}
	}
	return inputs
}
