package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"pahana-billing/internal/domain"
	salerepo "pahana-billing/internal/repository/sale"
	customersvc "pahana-billing/internal/service/customer"
	itemsvc "pahana-billing/internal/service/item"
	staffsvc "pahana-billing/internal/service/staff"
)

const validToken = "good-token"

type stubStaffSvc struct {
	staff    *domain.Staff
	loginErr error
	created  staffsvc.CreateInput
}

func (s *stubStaffSvc) Login(_ context.Context, _, _ string) (*staffsvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &staffsvc.Session{Staff: *s.staff, AccessToken: validToken}, nil
}

func (s *stubStaffSvc) Logout(_ context.Context, _ string) error { return nil }

func (s *stubStaffSvc) LookupByToken(_ context.Context, token string) (*domain.Staff, error) {
	if token != validToken {
		return nil, staffsvc.ErrInvalidToken
	}
	return s.staff, nil
}

func (s *stubStaffSvc) List(_ context.Context) ([]domain.Staff, error) {
	return []domain.Staff{*s.staff}, nil
}

func (s *stubStaffSvc) Create(_ context.Context, in staffsvc.CreateInput) (*domain.Staff, error) {
	s.created = in
	return &domain.Staff{ID: 2, Username: in.Username, Role: in.Role}, nil
}

func (s *stubStaffSvc) Delete(_ context.Context, _ int64) error { return nil }

type stubCustomerSvc struct {
	byAccount map[string]domain.Customer
	createErr error
	lastID    int64
	lastInput customersvc.Input
}

func (s *stubCustomerSvc) List(_ context.Context, _ string) ([]domain.Customer, error) {
	return nil, nil
}

func (s *stubCustomerSvc) Get(_ context.Context, id int64) (*domain.Customer, error) {
	for _, c := range s.byAccount {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCustomerSvc) Resolve(_ context.Context, acc string) (*domain.Customer, error) {
	c, ok := s.byAccount[acc]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *stubCustomerSvc) Create(_ context.Context, in customersvc.Input) (*domain.Customer, error) {
	s.lastInput = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Customer{ID: 9, AccountNumber: in.AccountNumber, Name: in.Name}, nil
}

func (s *stubCustomerSvc) Update(_ context.Context, id int64, in customersvc.Input) (*domain.Customer, error) {
	s.lastID = id
	s.lastInput = in
	return &domain.Customer{ID: id, AccountNumber: in.AccountNumber, Name: in.Name}, nil
}

func (s *stubCustomerSvc) Delete(_ context.Context, _ int64) error { return domain.ErrInUse }

type stubCategorySvc struct{}

func (stubCategorySvc) List(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Books"}}, nil
}

func (stubCategorySvc) Create(_ context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.Invalid("name", "category name required")
	}
	return &domain.Category{ID: 2, Name: name}, nil
}

func (stubCategorySvc) Delete(_ context.Context, _ int64) error { return domain.ErrNotFound }

type stubItemSvc struct {
	lastQuery string
}

func (s *stubItemSvc) List(_ context.Context, q string) ([]domain.Item, error) {
	s.lastQuery = q
	return []domain.Item{{ID: 1, Name: "Exercise Book", Price: 150, Stock: 3}}, nil
}

func (s *stubItemSvc) Get(_ context.Context, _ int64) (*domain.Item, error) {
	return nil, domain.ErrNotFound
}

func (s *stubItemSvc) Create(_ context.Context, in itemsvc.Input) (*domain.Item, error) {
	return &domain.Item{ID: 5, Name: in.Name, Price: in.Price}, nil
}

func (s *stubItemSvc) Update(_ context.Context, id int64, in itemsvc.Input) (*domain.Item, error) {
	return &domain.Item{ID: id, Name: in.Name}, nil
}

func (s *stubItemSvc) Delete(_ context.Context, _ int64) error { return nil }

type stubSaleSvc struct {
	bill       *domain.Bill
	err        error
	lastReq    domain.SaleRequest
	lastStaff  *int64
	lastFilter salerepo.ListFilter
}

func (s *stubSaleSvc) Create(_ context.Context, req domain.SaleRequest, createdBy *int64) (*domain.Bill, error) {
	s.lastReq = req
	s.lastStaff = createdBy
	return s.bill, s.err
}

func (s *stubSaleSvc) Get(_ context.Context, _ int64) (*domain.Bill, error) { return s.bill, s.err }

func (s *stubSaleSvc) List(_ context.Context, f salerepo.ListFilter) ([]domain.Bill, error) {
	s.lastFilter = f
	return nil, nil
}

type fixture struct {
	router    *gin.Engine
	staff     *stubStaffSvc
	customers *stubCustomerSvc
	items     *stubItemSvc
	sales     *stubSaleSvc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		staff: &stubStaffSvc{staff: &domain.Staff{ID: 1, Username: "admin", Role: staffsvc.RoleAdmin}},
		customers: &stubCustomerSvc{byAccount: map[string]domain.Customer{
			"ACC-00001": {ID: 7, AccountNumber: "ACC-00001", Name: "Nimal"},
		}},
		items: &stubItemSvc{},
		sales: &stubSaleSvc{},
	}
	router, err := buildRouter(nil, nil, Deps{
		StaffSvc:    f.staff,
		CustomerSvc: f.customers,
		CategorySvc: stubCategorySvc{},
		ItemSvc:     f.items,
		SaleSvc:     f.sales,
		LoginRate:   rate.Inf,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	f.router = router
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+validToken)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(nil, nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestResolveCustomerByAccountNumber(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/customer/ACC-00001?accno=true", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"Nimal"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/api/customer/ACC-404?accno=true", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec) != "customer not found" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/api/customer/7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected lookup by id, got %d", rec.Code)
	}
	rec = f.do(http.MethodGet, "/api/customer/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
}

func TestCustomerWriteErrors(t *testing.T) {
	f := newFixture(t)

	f.customers.createErr = domain.Invalid("accountNumber", "account number must be between 5 and 30 characters")
	rec := f.do(http.MethodPost, "/api/customer/", `{"accountNumber":"A1","name":"x","address":"y"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"accountNumber"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	f.customers.createErr = domain.ErrAlreadyExists
	rec = f.do(http.MethodPost, "/api/customer/", `{"accountNumber":"ACC-00001","name":"x","address":"y"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = f.do(http.MethodPut, "/api/customer/", `{"id":7,"accountNumber":"ACC-00001","name":"Nimal P","address":"Kandy"}`)
	if rec.Code != http.StatusOK || f.customers.lastID != 7 || f.customers.lastInput.Name != "Nimal P" {
		t.Fatalf("unexpected update %d id=%d in=%+v", rec.Code, f.customers.lastID, f.customers.lastInput)
	}
	rec = f.do(http.MethodPut, "/api/customer/", `{"name":"no id"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = f.do(http.MethodDelete, "/api/customer/7", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for referenced customer, got %d", rec.Code)
	}
}

func TestCreateSale(t *testing.T) {
	f := newFixture(t)
	f.sales.bill = &domain.Bill{ID: 77, GrandTotal: 330, Customer: domain.Customer{ID: 7}}

	rec := f.do(http.MethodPost, "/api/sales-history/", `{"customerId":7,"salesItems":[{"itemId":1,"unit":2}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	if f.sales.lastReq.CustomerID != 7 || f.sales.lastReq.SalesItems[0].Unit != 2 {
		t.Fatalf("unexpected request %+v", f.sales.lastReq)
	}
	if f.sales.lastStaff == nil || *f.sales.lastStaff != 1 {
		t.Fatalf("expected sale attributed to staff 1")
	}
	var bill domain.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil || bill.ID != 77 || bill.GrandTotal != 330 {
		t.Fatalf("unexpected bill %+v err=%v", bill, err)
	}
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.sales.err = fmt.Errorf("%w for Blue Pen", domain.ErrInsufficientStock)

	rec := f.do(http.MethodPost, "/api/sales-history/", `{"customerId":7,"salesItems":[{"itemId":2,"unit":9}]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "insufficient stock for Blue Pen" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestListSales_ParsesFilter(t *testing.T) {
	for _, path := range []string{"/api/sales-history", "/api/sales-history/"} {
		f := newFixture(t)
		rec := f.do(http.MethodGet, path+"?includeItems=true&q=nim&sort=total&order=DESC", "")
		if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
			t.Fatalf("%s: unexpected response %d %s", path, rec.Code, rec.Body.String())
		}
		want := salerepo.ListFilter{Query: "nim", Sort: "total", Descending: true, IncludeItems: true}
		if f.sales.lastFilter != want {
			t.Fatalf("%s: unexpected filter %+v", path, f.sales.lastFilter)
		}
	}
}

func TestCatalogRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/item/?q=book", "")
	if rec.Code != http.StatusOK || f.items.lastQuery != "book" {
		t.Fatalf("unexpected item list %d q=%q", rec.Code, f.items.lastQuery)
	}
	rec = f.do(http.MethodGet, "/api/item/3", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/item/", `{"itemName":"Atlas","price":2500,"stock":4}`)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"itemName":"Atlas"`) {
		t.Fatalf("unexpected create %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodPost, "/api/category", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = f.do(http.MethodGet, "/api/category", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Books") {
		t.Fatalf("unexpected categories %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodDelete, "/api/category/4", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
