package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/interfaces/http/dto"
	"github.com/erp/tradeledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", shared.ErrEmptyDetails, http.StatusBadRequest, "EMPTY_DETAILS", shared.ErrEmptyDetails.Message},
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", shared.ErrUnauthenticated.Message},
		{"admin only", shared.ErrAdminOnly, http.StatusForbidden, "ADMIN_ONLY", shared.ErrAdminOnly.Message},
		{"state conflict", shared.ErrInvalidTransition.WithMessage("Sales order SO00000001 is already cancelled"),
			http.StatusForbidden, "INVALID_TRANSITION", "Sales order SO00000001 is already cancelled"},
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND", shared.ErrNotFound.Message},
		{"causality", shared.ErrCausalityConflict, http.StatusConflict, "CAUSALITY_CONFLICT", shared.ErrCausalityConflict.Message},
		{"invariant", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", shared.ErrInsufficientStock.Message},
		{"wrapped domain error", fmt.Errorf("finishing order: %w", shared.ErrOverpayment),
			http.StatusUnprocessableEntity, "OVERPAYMENT", shared.ErrOverpayment.Message},
		{"storage failure", errors.New("pq: connection reset by peer"),
			http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
		{"unknown kind", shared.NewDomainError("SOMETHING", "ODD", "odd"),
			http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				h.HandleError(c, tt.err)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestBindJSON(t *testing.T) {
	middleware.SetupValidator()

	type payRequest struct {
		Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
		Method string          `json:"method" binding:"required"`
	}

	h := &BaseHandler{}
	router := gin.New()
	router.POST("/pay", func(c *gin.Context) {
		var req payRequest
		if !h.bindJSON(c, &req) {
			return
		}
		h.Success(c, "OK", req.Amount.String())
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"amount":"12.50","method":"cash"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12.5", decode(t, w).Result)

	w = post(`{"amount":"-1","method":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Code)
	assert.Len(t, resp.Details, 2)

	w = post(`{"amount":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Code)
}

func TestParseID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/things/:id", func(c *gin.Context) {
		id, ok := h.parseID(c)
		if !ok {
			return
		}
		h.Success(c, "OK", id.String())
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", decode(t, w).Message)
}
