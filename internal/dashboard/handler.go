// Package dashboard serves the hospital cache to local views over HTTP.
// Collection reads come from the cache. GET /stats also asks the backend
// for revenue aggregates, and POST /sync reloads everything.
package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/session"
	"github.com/hms/hms/internal/store"
	"github.com/hms/hms/pkg/pagination"
	"github.com/hms/hms/pkg/shape"
)

// Hospital is the cache and the operations the read API needs from it.
type Hospital interface {
	Store() *store.Store
	Sync(ctx context.Context) store.SyncReport
	Stats(ctx context.Context, threshold int) store.Stats
	LabResultPairs(id string) (shape.Pairing, bool)
}

// Sessions exposes the current identity.
type Sessions interface {
	Current() session.Session
}

type Handler struct {
	hospital  Hospital
	sessions  Sessions
	threshold int
}

func NewHandler(h Hospital, sessions Sessions, lowStockThreshold int) *Handler {
	return &Handler{hospital: h, sessions: sessions, threshold: lowStockThreshold}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	st := h.hospital.Store()
	collection(api, "/"+store.Patients, st.Patients())
	collection(api, "/"+store.StaffMembers, st.Staff())
	collection(api, "/"+store.Appointments, st.Appointments())
	collection(api, "/"+store.Diagnoses, st.Diagnoses())
	collection(api, "/"+store.LabOrders, st.LabOrders())
	collection(api, "/"+store.LabResults, st.LabResults())
	collection(api, "/"+store.Sales, st.Sales())
	collection(api, "/"+store.LabTests, st.LabTests())
	collection(api, "/"+store.Prescriptions, st.Prescriptions())

	// Registered ahead of /medicines/:id so the static segment wins.
	api.GET("/medicines/low-stock", h.LowStock)
	collection(api, "/"+store.Medicines, st.Medicines())

	api.GET("/lab-results/:id/pairs", h.LabResultPairs)
	api.GET("/stats", h.Stats)
	api.GET("/session", h.Session)
	api.POST("/sync", h.Sync)
}

func collection[T store.Entity[T]](api *echo.Group, path string, col *store.Collection[T]) {
	api.GET(path, listHandler(col))
	api.GET(path+"/:id", getHandler(col))
}

func listHandler[T store.Entity[T]](col *store.Collection[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := pagination.FromContext(c)
		items := col.All()
		resp := pagination.NewResponse(pagination.Window(items, p), len(items), p.Limit, p.Offset)
		resp.Links = p.Links(c.Request().URL.Path, len(items))
		return c.JSON(http.StatusOK, resp)
	}
}

// record is a cached member with its write state.
type record[T any] struct {
	Data T                `json:"data"`
	Sync store.SyncStatus `json:"sync"`
}

func getHandler[T store.Entity[T]](col *store.Collection[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		item, ok := col.Get(id)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, col.Name()+" "+id+" not found")
		}
		st, _ := col.State(id)
		return c.JSON(http.StatusOK, record[T]{Data: item, Sync: st})
	}
}

func (h *Handler) LabResultPairs(c echo.Context) error {
	pairs, ok := h.hospital.LabResultPairs(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "lab result not found")
	}
	return c.JSON(http.StatusOK, pairs)
}

func (h *Handler) LowStock(c echo.Context) error {
	threshold := h.threshold
	if q := c.QueryParam("threshold"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "threshold must be a non-negative integer")
		}
		threshold = n
	}
	items := h.hospital.Store().LowStock(threshold)
	return c.JSON(http.StatusOK, pagination.NewResponse(items, len(items), len(items), 0))
}

func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.hospital.Stats(c.Request().Context(), h.threshold))
}

type sessionView struct {
	User          *identity.User `json:"user"`
	Authenticated bool           `json:"isAuthenticated"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
}

// Session reports who is signed in. The token is never served.
func (h *Handler) Session(c echo.Context) error {
	cur := h.sessions.Current()
	v := sessionView{User: cur.User, Authenticated: cur.Authenticated}
	if !cur.ExpiresAt.IsZero() {
		v.ExpiresAt = &cur.ExpiresAt
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Sync(c echo.Context) error {
	if !h.sessions.Current().Authenticated {
		return echo.NewHTTPError(http.StatusUnauthorized, "sign in before syncing")
	}
	report := h.hospital.Sync(c.Request().Context())
	status := http.StatusOK
	if !report.OK() {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, report)
}
