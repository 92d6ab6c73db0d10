package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditrepo "github.com/smallbiznis/folio/internal/audit/repository"
	auditservice "github.com/smallbiznis/folio/internal/audit/service"
	"github.com/smallbiznis/folio/internal/authorization"
	catalogrepo "github.com/smallbiznis/folio/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/folio/internal/catalog/service"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/migration"
	payoutdomain "github.com/smallbiznis/folio/internal/payout/domain"
	payoutrepo "github.com/smallbiznis/folio/internal/payout/repository"
	payoutservice "github.com/smallbiznis/folio/internal/payout/service"
	reportrepo "github.com/smallbiznis/folio/internal/report/repository"
	reportservice "github.com/smallbiznis/folio/internal/report/service"
	"github.com/smallbiznis/folio/internal/royalty"
	salerepo "github.com/smallbiznis/folio/internal/sale/repository"
	saleservice "github.com/smallbiznis/folio/internal/sale/service"
	"github.com/smallbiznis/folio/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

type testActor struct {
	role string
	id   string
}

var (
	admin  = testActor{role: "admin", id: "1"}
	system = testActor{role: "system", id: "checkout"}
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.Run(conn))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	cfg := config.Config{Currency: "USD"}
	catalogRepo := catalogrepo.Provide()

	auditSvc := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide()})
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	return NewServer(ServerParams{
		Gin:      NewEngine(false, nil),
		Cfg:      cfg,
		GenID:    node,
		AuthzSvc: authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		AuditSvc: auditSvc,
		CatalogSvc: catalogservice.New(catalogservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Cfg: cfg, Repo: catalogRepo,
		}),
		SaleSvc: saleservice.New(saleservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk,
			Rates:       royalty.StaticRates(royalty.DefaultRates()),
			Repo:        salerepo.Provide(),
			CatalogRepo: catalogRepo,
			AuditSvc:    auditSvc,
		}),
		ReportSvc: reportservice.New(reportservice.Params{
			DB: conn, Log: log, Clock: clk, Cfg: cfg,
			Repo:  reportrepo.Provide(),
			Cache: reportrepo.NewMemoryViewCache(time.Minute),
		}),
		PayoutSvc: payoutservice.New(payoutservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Cfg: cfg,
			Repo:        payoutrepo.Provide(),
			CatalogRepo: catalogRepo,
			Disburser:   payoutservice.NewLogDisburser(log),
			AuditSvc:    auditSvc,
		}),
	})
}

func (s *Server) do(t *testing.T, actor *testActor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(HeaderActorRole, actor.role)
		req.Header.Set(HeaderActorID, actor.id)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.NotNil(t, env.Error)
	return *env.Error
}

type seeded struct {
	authorID    string
	publisherID string
	bookID      string
}

func seedCatalog(t *testing.T, s *Server) seeded {
	t.Helper()
	var out seeded
	var resource struct {
		ID string `json:"id"`
	}

	w := s.do(t, &admin, http.MethodPost, "/api/authors", map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &resource)
	out.authorID = resource.ID

	w = s.do(t, &admin, http.MethodPost, "/api/publishers", map[string]any{"name": "Analytical Press", "email": "press@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &resource)
	out.publisherID = resource.ID

	w = s.do(t, &admin, http.MethodPost, "/api/books", map[string]any{
		"title":        "Notes, Vol. 1",
		"author_id":    out.authorID,
		"publisher_id": out.publisherID,
		"list_price":   25000,
		"currency":     "USD",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decodeData(t, w, &resource)
	out.bookID = resource.ID
	return out
}

func TestActorHeadersRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, nil, http.MethodGet, "/api/authors", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, &testActor{role: "owner", id: "9"}, http.MethodGet, "/api/authors", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordSaleAndReadReports(t *testing.T) {
	s := newTestServer(t)
	ids := seedCatalog(t, s)

	w := s.do(t, &system, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-1", "book_id": ids.bookID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale struct {
		SaleAmount     int64 `json:"sale_amount"`
		PlatformFee    int64 `json:"platform_fee"`
		AuthorRoyalty  int64 `json:"author_royalty"`
		PublisherShare int64 `json:"publisher_share"`
		NetAmount      int64 `json:"net_amount"`
	}
	decodeData(t, w, &sale)
	assert.Equal(t, int64(25000), sale.SaleAmount)
	assert.Equal(t, int64(2500), sale.PlatformFee)
	assert.Equal(t, int64(3750), sale.AuthorRoyalty)
	assert.Equal(t, int64(5000), sale.PublisherShare)
	assert.Equal(t, int64(13750), sale.NetAmount)

	author := testActor{role: "author", id: ids.authorID}
	w = s.do(t, &author, http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view struct {
		Degraded bool `json:"degraded"`
		Summary  struct {
			AuthorRoyalty int64 `json:"author_royalty"`
		} `json:"summary"`
		Monthly []struct {
			Period  string `json:"period"`
			Royalty int64  `json:"royalty"`
		} `json:"monthly"`
	}
	decodeData(t, w, &view)
	assert.False(t, view.Degraded)
	assert.Equal(t, int64(3750), view.Summary.AuthorRoyalty)
	require.Len(t, view.Monthly, 1)
	assert.Equal(t, "Mar 2024", view.Monthly[0].Period)

	w = s.do(t, &author, http.MethodGet, "/api/reports/sales?author_id=12345", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, &testActor{role: "customer", id: "5"}, http.MethodGet, "/api/reports/sales", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, &author, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-2", "book_id": ids.bookID, "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecordOrderDedupesAndValidates(t *testing.T) {
	s := newTestServer(t)
	ids := seedCatalog(t, s)

	body := map[string]any{"lines": []map[string]any{{"book_id": ids.bookID, "quantity": 2}}}
	w := s.do(t, &system, http.MethodPost, "/api/orders/ord-9/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first struct {
		SaleIDs []string `json:"sale_ids"`
	}
	decodeData(t, w, &first)

	w = s.do(t, &system, http.MethodPost, "/api/orders/ord-9/sales", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var second struct {
		SaleIDs []string `json:"sale_ids"`
	}
	decodeData(t, w, &second)
	assert.Equal(t, first.SaleIDs, second.SaleIDs)

	w = s.do(t, &system, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-10", "book_id": ids.bookID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_quantity", decodeError(t, w).Errors[0].Code)

	w = s.do(t, &system, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-11", "book_id": "424242", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCSVAsAuthor(t *testing.T) {
	s := newTestServer(t)
	ids := seedCatalog(t, s)

	w := s.do(t, &system, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-1", "book_id": ids.bookID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	author := testActor{role: "author", id: ids.authorID}
	w = s.do(t, &author, http.MethodGet, "/api/reports/export.csv", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, contentTypeCSV, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("author-%s-sales-2024-03-01.csv", ids.authorID))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Sale ID,Book Title,Publisher,Quantity,Sale Amount,Platform Fee,Author Royalty,Publisher Share,Date", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Notes, Vol. 1")
	assert.Contains(t, lines[1], ",250,25,37.5,50,2024-03-01")
}

func TestPayoutLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ids := seedCatalog(t, s)

	w := s.do(t, &system, http.MethodPost, "/api/sales", map[string]any{"order_id": "ord-1", "book_id": ids.bookID, "quantity": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	author := testActor{role: "author", id: ids.authorID}
	w = s.do(t, &author, http.MethodPost, "/api/payouts", map[string]any{
		"amount":          20000,
		"payment_method":  "bank_transfer",
		"payment_details": "NL91ABNA0417164300",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_balance", decodeError(t, w).Errors[0].Code)

	w = s.do(t, &author, http.MethodPost, "/api/payouts", map[string]any{
		"amount":         15000,
		"payment_method": "bank_transfer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var payout struct {
		ID     string              `json:"id"`
		Status payoutdomain.Status `json:"status"`
	}
	decodeData(t, w, &payout)
	assert.Equal(t, payoutdomain.StatusPending, payout.Status)

	w = s.do(t, &author, http.MethodPost, "/api/payouts/"+payout.ID+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, &admin, http.MethodPost, "/api/payouts/"+payout.ID+"/paid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, &admin, http.MethodPost, "/api/payouts/"+payout.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, &admin, http.MethodPost, "/api/payouts/"+payout.ID+"/paid", map[string]any{"notes": "settled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &payout)
	assert.Equal(t, payoutdomain.StatusPaid, payout.Status)

	other := testActor{role: "publisher", id: ids.publisherID}
	w = s.do(t, &other, http.MethodGet, "/api/payouts/"+payout.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, &author, http.MethodGet, "/api/payouts/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var balance payoutdomain.Balance
	decodeData(t, w, &balance)
	assert.Equal(t, payoutdomain.Balance{TotalEarnings: 15000, Outstanding: 15000, Available: 0}, balance)

	w = s.do(t, &admin, http.MethodGet, "/api/audit-logs?target_type=payout_request", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []struct {
		Action string `json:"action"`
	}
	decodeData(t, w, &logs)
	assert.Len(t, logs, 3)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{payoutdomain.ErrPayoutInProgress, http.StatusConflict, "conflict"},
		{fmt.Errorf("author 7: %w", payoutdomain.ErrNotFound), http.StatusNotFound, "not_found"},
		{royalty.ErrRatesExceedSale, http.StatusBadRequest, "validation_error"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "3", retryAfterSeconds(2100*time.Millisecond))
}

func TestCORSPreflightAllowsActorHeaders(t *testing.T) {
	r := gin.New()
	r.Use(corsMiddleware([]string{"https://shop.example.com"}))
	r.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", HeaderActorRole)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(HeaderActorRole))
}
