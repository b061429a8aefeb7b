package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// HeaderAPIVersion выбирает версию API для маршрутов под /api.
const HeaderAPIVersion = "x-api-version"

const (
	msgMissingVersion = "Set 'x-api-version' header."
	msgUseV1          = "Use v1"
)

// OrderService — операции над заказами, нужные HTTP-слою.
type OrderService interface {
	Place(ctx context.Context, tableID domain.TableID, menuItemID domain.MenuItemID, quantity uint32) (domain.OrderRecord, error)
	SetQuantity(ctx context.Context, id domain.OrderID, quantity uint32) (domain.OrderRecord, error)
	Cancel(ctx context.Context, id domain.OrderID) (domain.OrderRecord, error)
	ClearTable(ctx context.Context, tableID domain.TableID) ([]domain.OrderRecord, error)
	Order(ctx context.Context, id domain.OrderID) (domain.OrderRecord, error)
	Orders(ctx context.Context) ([]domain.OrderRecord, error)
	OrdersForTable(ctx context.Context, tableID domain.TableID) ([]domain.OrderRecord, error)
	Tables(ctx context.Context) ([]domain.TableRecord, error)
	MenuItems(ctx context.Context) ([]domain.MenuItemRecord, error)
	Now() time.Time
}

// Options настраивает роутер.
type Options struct {
	AllowedOrigins []string
}

// Handler обслуживает REST API ресторана.
type Handler struct {
	service OrderService
	logger  *log.Entry
	router  *chi.Mux
}

// NewHandler собирает роутер с middleware и версионированными маршрутами.
func NewHandler(service OrderService, logger *log.Entry, opts Options) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	h := &Handler{
		service: service,
		logger:  logger,
		router:  newRouter(logger, opts),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP делает Handler совместимым с http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	versions := map[string]http.Handler{
		"v1": h.v1(),
		"v2": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, msgUseV1, http.StatusNotFound)
		}),
	}

	h.router.Mount("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version, ok := versions[r.Header.Get(HeaderAPIVersion)]
		if !ok {
			http.Error(w, msgMissingVersion, http.StatusNotFound)
			return
		}
		version.ServeHTTP(w, r)
	}))
}

func (h *Handler) v1() http.Handler {
	r := chi.NewRouter()

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.placeOrder)
		r.Get("/{id}", h.getOrder)
		r.Delete("/{id}", h.cancelOrder)
		r.Post("/{id}/setquantity", h.setQuantity)
	})
	r.Route("/table/{tableID}", func(r chi.Router) {
		r.Get("/orders", h.tableOrders)
		r.Post("/clear", h.clearTable)
	})
	r.Get("/tables", h.listTables)
	r.Get("/menu", h.listMenu)

	return r
}

func newRouter(logger *log.Entry, opts Options) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(tracing)
	router.Use(accessLog(logger))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderAPIVersion, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	return router
}
