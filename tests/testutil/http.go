package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/auth"
	"github.com/erp/tradeledger/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// APIClient drives an http.Handler in-process with a bearer token
type APIClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

// NewAPIClient creates a client for handler; an empty token sends no
// Authorization header
func NewAPIClient(t *testing.T, handler http.Handler, token string) *APIClient {
	return &APIClient{t: t, handler: handler, token: token}
}

// WithToken returns a copy of the client using token
func (c *APIClient) WithToken(token string) *APIClient {
	return &APIClient{t: c.t, handler: c.handler, token: token}
}

// Do sends a JSON request and decodes the response envelope
func (c *APIClient) Do(method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

// IssueToken signs a token for a fresh user of role
func IssueToken(t *testing.T, svc *auth.JWTService, role shared.Role) string {
	t.Helper()
	token, _, err := svc.GenerateToken(shared.Actor{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return token
}

// DecodeResult converts the envelope's result into T
func DecodeResult[T any](t *testing.T, resp dto.Response) T {
	t.Helper()
	var out T
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
