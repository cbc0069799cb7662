package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"pahana-billing/internal/domain"
	staffsvc "pahana-billing/internal/service/staff"
)

func TestLoginHandler_Success(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"username":"admin","password":"Abcdefg1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"accessToken":"good-token"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash must not be serialised: %s", rec.Body.String())
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.staff.loginErr = staffsvc.ErrInvalidCredentials
	req := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginHandler_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	router, err := buildRouter(nil, nil, Deps{
		StaffSvc:    f.staff,
		CustomerSvc: f.customers,
		CategorySvc: stubCategorySvc{},
		ItemSvc:     f.items,
		SaleSvc:     f.sales,
		LoginRate:   rate.Limit(0.0001),
		LoginBurst:  2,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"username":"admin","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third attempt to be limited, got %d", last)
	}
}

func TestIPRateLimiter_DropsIdleClients(t *testing.T) {
	rl := newIPRateLimiter(rate.Every(time.Hour), 1)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	if !rl.limiter("10.0.0.1").Allow() || !rl.limiter("10.0.0.2").Allow() {
		t.Fatalf("first attempt from each client should pass")
	}
	if rl.limiter("10.0.0.1").Allow() {
		t.Fatalf("second attempt within the window should be limited")
	}

	now = now.Add(5 * time.Minute)
	rl.limiter("10.0.0.2")
	now = now.Add(6 * time.Minute)
	rl.limiter("10.0.0.3")

	if len(rl.ips) != 2 {
		t.Fatalf("expected idle client to be dropped, have %d entries", len(rl.ips))
	}
	if _, ok := rl.ips["10.0.0.1"]; ok {
		t.Fatalf("10.0.0.1 should have been swept")
	}
	if _, ok := rl.ips["10.0.0.2"]; !ok {
		t.Fatalf("recently seen client should be kept")
	}
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer " + validToken, http.StatusOK},
		{"bearer " + validToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/staff/current", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.want, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	f.staff.staff = &domain.Staff{ID: 3, Username: "cashier", Role: staffsvc.RoleCashier}
	rec := f.do(http.MethodPost, "/api/staff", `{"username":"x","password":"Abcdefg1"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}

	f.staff.staff = &domain.Staff{ID: 1, Username: "admin", Role: staffsvc.RoleAdmin}
	rec = f.do(http.MethodPost, "/api/staff", `{"username":"x","password":"Abcdefg1","role":"cashier"}`)
	if rec.Code != http.StatusCreated || f.staff.created.Username != "x" {
		t.Fatalf("unexpected create %d %+v", rec.Code, f.staff.created)
	}
	rec = f.do(http.MethodDelete, "/api/staff/1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected self delete refused, got %d", rec.Code)
	}
}
