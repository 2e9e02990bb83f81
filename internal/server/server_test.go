package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/gstinvoice/internal/account/domain"
	authdomain "github.com/smallbiznis/gstinvoice/internal/auth/domain"
	"github.com/smallbiznis/gstinvoice/internal/auth/session"
	"github.com/smallbiznis/gstinvoice/internal/config"
	invoicedomain "github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/internal/observability"
	obstracing "github.com/smallbiznis/gstinvoice/internal/observability/tracing"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	productdomain "github.com/smallbiznis/gstinvoice/internal/product/domain"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
	taxservice "github.com/smallbiznis/gstinvoice/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	validToken = "valid-token"
	testOrgID  = snowflake.ID(700)
	testUserID = snowflake.ID(800)
)

type fakeAuthService struct {
	authdomain.Service
	loginResult *authdomain.LoginResult
	loginErr    error
	loggedOut   []string
}

func (f *fakeAuthService) LoginWithGoogle(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	f.loggedOut = append(f.loggedOut, rawToken)
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if rawToken != validToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{UserID: testUserID, OrgID: testOrgID}, nil
}

func (f *fakeAuthService) Me(ctx context.Context) (*authdomain.UserResponse, error) {
	userID, _ := orgcontext.UserIDFromContext(ctx)
	orgID, _ := orgcontext.OrgIDFromContext(ctx)
	return &authdomain.UserResponse{ID: userID.String(), OrganizationID: orgID.String()}, nil
}

type fakeProductService struct {
	productdomain.Service
	seenOrg   snowflake.ID
	listReq   productdomain.ListRequest
	createErr error
	getErr    error
}

func (f *fakeProductService) List(ctx context.Context, req productdomain.ListRequest) ([]productdomain.Response, error) {
	f.seenOrg, _ = orgcontext.OrgIDFromContext(ctx)
	f.listReq = req
	return []productdomain.Response{{ID: "1", Name: "Widget"}}, nil
}

func (f *fakeProductService) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.Response, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &productdomain.Response{ID: "2", Name: req.Name}, nil
}

func (f *fakeProductService) Get(ctx context.Context, id string) (*productdomain.Response, error) {
	return nil, f.getErr
}

type fakeInvoiceService struct {
	invoicedomain.Service
	calls     []string
	createErr error
}

func (f *fakeInvoiceService) Create(ctx context.Context, req invoicedomain.CreateRequest) (*invoicedomain.Response, error) {
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &invoicedomain.Response{ID: "10", CustomerName: req.CustomerName}, nil
}

func (f *fakeInvoiceService) AddItem(ctx context.Context, invoiceID string, req invoicedomain.ItemInput) (*invoicedomain.ItemResponse, error) {
	f.calls = append(f.calls, "add_item:"+invoiceID)
	return &invoicedomain.ItemResponse{ID: "11", InvoiceID: invoiceID, ProductName: req.ProductName}, nil
}

func (f *fakeInvoiceService) RecalculateTotals(ctx context.Context, invoiceID string) error {
	f.calls = append(f.calls, "recalculate:"+invoiceID)
	return nil
}

func (f *fakeInvoiceService) Get(ctx context.Context, id string) (*invoicedomain.Response, error) {
	f.calls = append(f.calls, "get:"+id)
	return &invoicedomain.Response{ID: id}, nil
}

func (f *fakeInvoiceService) RenderPDF(ctx context.Context, invoiceID string) (*invoicedomain.Document, error) {
	return &invoicedomain.Document{
		Filename:    "INV-20240115-0001.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}, nil
}

func (f *fakeInvoiceService) RenderReceipt(ctx context.Context, invoiceID string) (*invoicedomain.Document, error) {
	return nil, invoicedomain.ErrNotPaid
}

type fakeAccountService struct {
	accountdomain.Service
}

func (f *fakeAccountService) Update(ctx context.Context, req accountdomain.UpdateRequest) (*accountdomain.Response, error) {
	return &accountdomain.Response{GSTNumber: req.GSTNumber}, nil
}

type testServer struct {
	srv      *Server
	auth     *fakeAuthService
	products *fakeProductService
	invoices *fakeInvoiceService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := testServer{
		auth:     &fakeAuthService{},
		products: &fakeProductService{},
		invoices: &fakeInvoiceService{},
	}

	srv, err := NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{}, obstracing.MiddlewareConfig{}, nil, nil),
		Cfg:        config.Config{},
		Log:        zap.NewNop(),
		Authsvc:    ts.auth,
		Sessions:   session.NewManager(config.Config{}, nil),
		AccountSvc: &fakeAccountService{},
		ProductSvc: ts.products,
		InvoiceSvc: ts.invoices,
		TaxSvc:     taxservice.NewCalculator(),
	})
	require.NoError(t, err)
	ts.srv = srv
	return ts
}

func (ts testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthAndUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/products", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Type)
}

func TestAuthRequiredScopesRequestToOrganization(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/products?search=wid&limit=500&offset=5", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testOrgID, ts.products.seenOrg)
	assert.Equal(t, "wid", ts.products.listReq.Search)
	assert.Equal(t, maxPageSize, ts.products.listReq.Limit)
	assert.Equal(t, 5, ts.products.listReq.Offset)

	var body struct {
		Data []productdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Widget", body.Data[0].Name)

	w = ts.do(http.MethodGet, "/api/products?limit=-1", nil, validToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionCookieAccepted(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: validToken})
	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data authdomain.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, testUserID.String(), body.Data.ID)
	assert.Equal(t, testOrgID.String(), body.Data.OrganizationID)
}

func TestLoginWithGoogleSetsCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.loginResult = &authdomain.LoginResult{
		User:      authdomain.UserResponse{ID: "1", Email: "priya@example.com"},
		RawToken:  "raw-session",
		ExpiresAt: time.Now().Add(time.Hour),
		Created:   true,
	}

	w := ts.do(http.MethodPost, "/auth/google", gin.H{"credential": "id-token"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "raw-session", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = ts.do(http.MethodPost, "/auth/google", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "credential", decodeError(t, w).Errors[0].Field)

	ts.auth.loginErr = authdomain.ErrInvalidCredential
	w = ts.do(http.MethodPost, "/auth/google", gin.H{"credential": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/auth/logout", nil, validToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{validToken}, ts.auth.loggedOut)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(ts testServer)
		method   string
		path     string
		body     any
		status   int
		errType  string
		errField string
	}{
		{
			name:    "sku conflict",
			setup:   func(ts testServer) { ts.products.createErr = productdomain.ErrSKUExists },
			method:  http.MethodPost,
			path:    "/api/products",
			body:    gin.H{"name": "Widget", "sku": "W-1"},
			status:  http.StatusConflict,
			errType: "conflict",
		},
		{
			name:    "product missing",
			setup:   func(ts testServer) { ts.products.getErr = productdomain.ErrNotFound },
			method:  http.MethodGet,
			path:    "/api/products/123",
			status:  http.StatusNotFound,
			errType: "not_found",
		},
		{
			name:     "invalid product id",
			setup:    func(ts testServer) { ts.products.getErr = productdomain.ErrInvalidID },
			method:   http.MethodGet,
			path:     "/api/products/abc",
			status:   http.StatusBadRequest,
			errType:  "validation_error",
			errField: "id",
		},
		{
			name:     "missing customer name",
			setup:    func(ts testServer) { ts.invoices.createErr = invoicedomain.ErrInvalidCustomerName },
			method:   http.MethodPost,
			path:     "/api/invoices",
			body:     gin.H{"customer_name": ""},
			status:   http.StatusBadRequest,
			errType:  "validation_error",
			errField: "customer_name",
		},
		{
			name:    "persistence failure",
			setup:   func(ts testServer) { ts.invoices.createErr = invoicedomain.ErrPersistence },
			method:  http.MethodPost,
			path:    "/api/invoices",
			body:    gin.H{"customer_name": "Acme"},
			status:  http.StatusInternalServerError,
			errType: "persistence_error",
		},
		{
			name:    "receipt before payment",
			setup:   func(ts testServer) {},
			method:  http.MethodGet,
			path:    "/api/invoices/10/receipt",
			status:  http.StatusConflict,
			errType: "conflict",
		},
		{
			name:     "bad customer gstin",
			setup:    func(ts testServer) {},
			method:   http.MethodPost,
			path:     "/api/invoices",
			body:     gin.H{"customer_name": "Acme", "customer_gst": "NOTAGSTIN"},
			status:   http.StatusBadRequest,
			errType:  "validation_error",
			errField: "customer_gst",
		},
		{
			name:   "item tax rate out of range",
			setup:  func(ts testServer) {},
			method: http.MethodPost,
			path:   "/api/invoices",
			body: gin.H{"customer_name": "Acme", "items": []gin.H{
				{"product_name": "Widget", "quantity": "1", "rate": "10", "tax_rate": "120"},
			}},
			status:   http.StatusBadRequest,
			errType:  "validation_error",
			errField: "tax_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			tt.setup(ts)

			w := ts.do(tt.method, tt.path, tt.body, validToken)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			payload := decodeError(t, w)
			assert.Equal(t, tt.errType, payload.Type)
			if tt.errField != "" {
				require.NotEmpty(t, payload.Errors)
				assert.Equal(t, tt.errField, payload.Errors[0].Field)
			}
		})
	}
}

func TestAddInvoiceItemRecalculatesTotals(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/invoices/10/items", gin.H{
		"product_name": "Widget",
		"quantity":     "2",
		"rate":         "100",
	}, validToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"add_item:10", "recalculate:10", "get:10"}, ts.invoices.calls)
}

func TestRenderInvoicePDF(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/invoices/10/pdf?download=false", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="INV-20240115-0001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestUpdateAccountValidatesGSTIN(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPut, "/api/account", gin.H{"gst_number": "27AAPFU0939F1ZV"}, validToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPut, "/api/account", gin.H{"gst_number": "27AAPFU0939F1Z"}, validToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "gst_number", decodeError(t, w).Errors[0].Field)
}

func TestGSTBreakdownEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Data taxdomain.Breakdown `json:"data"`
	}

	w := ts.do(http.MethodPost, "/api/gst/breakdown", gin.H{
		"amount": "1000", "tax_rate": "18", "seller_state": "27", "buyer_state": "29",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, taxdomain.TaxTypeIGST, body.Data.Type)
	assert.True(t, decimal.NewFromInt(180).Equal(body.Data.IGST), body.Data.IGST.String())

	w = ts.do(http.MethodPost, "/api/gst/breakdown", gin.H{
		"amount": 1000, "tax_rate": 18, "seller_state": "27", "buyer_state": "27",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, taxdomain.TaxTypeCGSTSGST, body.Data.Type)
	assert.True(t, decimal.NewFromInt(90).Equal(body.Data.CGST))
	assert.True(t, decimal.NewFromInt(90).Equal(body.Data.SGST))

	w = ts.do(http.MethodPost, "/api/gst/breakdown", gin.H{"amount": "1000", "tax_rate": "-5"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "tax_rate", decodeError(t, w).Errors[0].Field)
}

func TestGSTEndpointsRejectUnusableInputs(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name  string
		path  string
		body  gin.H
		field string
		code  string
	}{
		{"breakdown rate below a hundredth", "/api/gst/breakdown", gin.H{"amount": "1000", "tax_rate": "18.125"}, "tax_rate", "invalid_tax_rate"},
		{"breakdown unknown seller state", "/api/gst/breakdown", gin.H{"amount": "1000", "tax_rate": "18", "seller_state": "99", "buyer_state": "27"}, "state", "invalid_state"},
		{"breakdown unknown buyer state", "/api/gst/breakdown", gin.H{"amount": "1000", "tax_rate": "18", "seller_state": "27", "buyer_state": "Maharashtra"}, "state", "invalid_state"},
		{"reverse rate below a hundredth", "/api/gst/reverse", gin.H{"total_amount": "1180", "tax_rate": "0.255"}, "tax_rate", "invalid_tax_rate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(http.MethodPost, tc.path, tc.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			payload := decodeError(t, w)
			assert.Equal(t, "validation_error", payload.Type)
			require.Len(t, payload.Errors, 1)
			assert.Equal(t, tc.field, payload.Errors[0].Field)
			assert.Equal(t, tc.code, payload.Errors[0].Code)
		})
	}

	w := ts.do(http.MethodPost, "/api/gst/breakdown", gin.H{"amount": "1000", "tax_rate": "18", "seller_state": "27"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGSTReverseEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/gst/reverse", gin.H{"total_amount": "1180", "tax_rate": "18"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data taxdomain.ReverseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, decimal.NewFromInt(1000).Equal(body.Data.BaseAmount))
	assert.True(t, decimal.NewFromInt(180).Equal(body.Data.TaxAmount))
}

func TestValidateGSTNumberEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Data taxdomain.GSTNumberResponse `json:"data"`
	}

	w := ts.do(http.MethodGet, "/api/gst/validate?gst_number=27aapfu0939f1zv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Valid)
	assert.Equal(t, "27AAPFU0939F1ZV", body.Data.GSTNumber)
	assert.Equal(t, "27", body.Data.StateCode)
	assert.Equal(t, "Maharashtra", body.Data.StateName)

	w = ts.do(http.MethodGet, "/api/gst/validate?gst_number=12345", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body.Data = taxdomain.GSTNumberResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Valid)
	assert.Empty(t, body.Data.StateCode)

	w = ts.do(http.MethodGet, "/api/gst/validate", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGSTReferenceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/gst/states", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var states struct {
		Data []taxdomain.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &states))
	assert.NotEmpty(t, states.Data)

	w = ts.do(http.MethodGet, "/api/gst/rates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rates struct {
		Data []taxdomain.RateSlab `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rates))
	assert.Len(t, rates.Data, 7)
}
