package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	salerepo "pahana-billing/internal/repository/sale"
	customersvc "pahana-billing/internal/service/customer"
	itemsvc "pahana-billing/internal/service/item"
	staffsvc "pahana-billing/internal/service/staff"
)

type staffService interface {
	Login(ctx context.Context, username, password string) (*staffsvc.Session, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
	Create(ctx context.Context, in staffsvc.CreateInput) (*domain.Staff, error)
	Delete(ctx context.Context, id int64) error
}

type customerService interface {
	List(ctx context.Context, query string) ([]domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	Resolve(ctx context.Context, accountNumber string) (*domain.Customer, error)
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	Update(ctx context.Context, id int64, in customersvc.Input) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type itemService interface {
	List(ctx context.Context, query string) ([]domain.Item, error)
	Get(ctx context.Context, id int64) (*domain.Item, error)
	Create(ctx context.Context, in itemsvc.Input) (*domain.Item, error)
	Update(ctx context.Context, id int64, in itemsvc.Input) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

type saleService interface {
	Create(ctx context.Context, req domain.SaleRequest, createdBy *int64) (*domain.Bill, error)
	Get(ctx context.Context, id int64) (*domain.Bill, error)
	List(ctx context.Context, f salerepo.ListFilter) ([]domain.Bill, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	StaffSvc    staffService
	CustomerSvc customerService
	CategorySvc categoryService
	ItemSvc     itemService
	SaleSvc     saleService

	CORSOrigins []string
	// LoginRate and LoginBurst bound login attempts per client IP.
	LoginRate  rate.Limit
	LoginBurst int
}

type handlers struct {
	logger *zap.Logger
	deps   Deps
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.StaffSvc == nil || deps.CustomerSvc == nil || deps.CategorySvc == nil || deps.ItemSvc == nil || deps.SaleSvc == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	if deps.LoginRate == 0 {
		deps.LoginRate = rate.Every(6 * time.Second)
	}
	if deps.LoginBurst == 0 {
		deps.LoginBurst = 5
	}
	logger = logging.OrNop(logger)

	router := gin.New()
	router.Use(logging.Middleware(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{logger: logger, deps: deps}
	limiter := newIPRateLimiter(deps.LoginRate, deps.LoginBurst)

	api := router.Group("/api")
	api.POST("/staff/login", limiter.middleware(), h.login)

	authed := api.Group("", authMiddleware(deps.StaffSvc))
	authed.POST("/staff/logout", h.logout)
	authed.GET("/staff/current", h.me)
	authed.GET("/staff", h.listStaff)
	authed.POST("/staff", requireRole(staffsvc.RoleAdmin), h.createStaff)
	authed.DELETE("/staff/:id", requireRole(staffsvc.RoleAdmin), h.deleteStaff)

	authed.GET("/customer/", h.listCustomers)
	authed.GET("/customer/:id", h.getCustomer)
	authed.POST("/customer/", h.createCustomer)
	authed.PUT("/customer/", h.updateCustomer)
	authed.DELETE("/customer/:id", h.deleteCustomer)

	authed.GET("/category", h.listCategories)
	authed.POST("/category", h.createCategory)
	authed.DELETE("/category/:id", h.deleteCategory)

	authed.GET("/item/", h.listItems)
	authed.GET("/item/:id", h.getItem)
	authed.POST("/item/", h.createItem)
	authed.PUT("/item/", h.updateItem)
	authed.DELETE("/item/:id", h.deleteItem)

	for _, path := range []string{"/sales-history", "/sales-history/"} {
		authed.POST(path, h.createSale)
		authed.GET(path, h.listSales)
	}
	authed.GET("/sales-history/:id", h.getSale)

	return router, nil
}
