package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/subtech/mina-dashboard/internal/apiclient"
	"github.com/subtech/mina-dashboard/internal/archive"
	"github.com/subtech/mina-dashboard/internal/middleware"
	"github.com/subtech/mina-dashboard/internal/monitor"
	"github.com/subtech/mina-dashboard/internal/session"
	"github.com/subtech/mina-dashboard/internal/tags"
	"github.com/subtech/mina-dashboard/internal/users"
	"github.com/subtech/mina-dashboard/internal/views"
)

// Authenticator is the login half of apiclient.Client.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error)
	Logout(ctx context.Context) error
}

// SnapshotArchive lists archived snapshots.
type SnapshotArchive interface {
	Recent(ctx context.Context, limit int) ([]archive.SnapshotRow, error)
}

type Handler struct {
	Monitor  *monitor.Monitor
	Sessions session.Store
	Auth     Authenticator
	Users    *users.Service
	Hub      *Hub
	Archive  SnapshotArchive // nil when archiving is off

	Location     *time.Location
	LoginLimiter *middleware.LoginLimiter
	Origins      []string
	Timeout      time.Duration
}

func (h *Handler) Routes() http.Handler {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(h.Origins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Long-lived: stays outside the request timeout.
	r.Get("/ws", h.Hub.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(timeout))

		r.With(h.LoginLimiter.Handler).Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.Get("/session", h.Session)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.Sessions))

			r.Get("/tags", h.Tags)
			r.Get("/tags/history", h.History)
			r.Post("/tags/refresh", h.Refresh)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/plano", h.Plano)
			r.Get("/plano/sidebar", h.Sidebar)
			r.Get("/archive/snapshots", h.ArchivedSnapshots)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", h.ListUsers)
				r.Post("/users", h.CreateUser)
				r.Put("/users/{id}", h.UpdateUser)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})
	})
	return r
}

// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Credenciales inválidas")
		return
	}

	if _, err := h.Auth.Login(r.Context(), req.Email, req.Password); err != nil {
		respondBackendError(w, err)
		return
	}
	h.Session(w, r)
}

// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionView struct {
	Authenticated bool            `json:"authenticated"`
	User          *session.Claims `json:"user,omitempty"`
	Nav           []views.NavLink `json:"nav"`
}

// GET /api/v1/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if !session.HasValidToken(r.Context(), h.Sessions) {
		respondJSON(w, http.StatusOK, sessionView{Nav: []views.NavLink{}})
		return
	}
	claims, err := session.CurrentClaims(r.Context(), h.Sessions)
	if err != nil {
		claims = &session.Claims{}
	}
	respondJSON(w, http.StatusOK, sessionView{
		Authenticated: true,
		User:          claims,
		Nav:           views.NavLinks(claims.Role),
	})
}

type tagsView struct {
	Latest    []views.TagRow `json:"latest"`
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`
	Version   uint64         `json:"version"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

func (h *Handler) tagsView() tagsView {
	snap := h.Monitor.Snapshot()
	v := tagsView{
		Latest:  views.Rows(tags.LatestPerEtiqueta(snap.Tags), h.Location),
		Loading: h.Monitor.Loading(),
		Error:   h.Monitor.Err(),
		Version: snap.Version,
	}
	if !snap.UpdatedAt.IsZero() {
		v.UpdatedAt = &snap.UpdatedAt
	}
	return v
}

// GET /api/v1/tags
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.tagsView())
}

// GET /api/v1/tags/history?filter=
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	snap := h.Monitor.Snapshot()
	respondJSON(w, http.StatusOK, views.Rows(tags.History(snap.Tags, r.URL.Query().Get("filter")), h.Location))
}

// POST /api/v1/tags/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.Monitor.Refresh(r.Context(), monitor.RefreshOptions{Silent: false})
	switch {
	case errors.Is(err, monitor.ErrRefreshInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case err != nil:
		respondBackendError(w, err)
	default:
		respondJSON(w, http.StatusOK, h.tagsView())
	}
}

type dashboardView struct {
	views.Dashboard
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// GET /api/v1/dashboard?filter=
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.Monitor.Snapshot()
	respondJSON(w, http.StatusOK, dashboardView{
		Dashboard: views.BuildDashboard(snap.Tags, r.URL.Query().Get("filter"), h.Location),
		Loading:   h.Monitor.Loading(),
		Error:     h.Monitor.Err(),
	})
}

// GET /api/v1/plano
func (h *Handler) Plano(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, views.BuildPlano(h.Monitor.Snapshot().Tags))
}

// GET /api/v1/plano/sidebar?ubicacion=&categoria=
func (h *Handler) Sidebar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ubicacion, categoria := q.Get("ubicacion"), q.Get("categoria")
	if ubicacion == "" || categoria == "" {
		respondError(w, http.StatusBadRequest, "ubicacion and categoria are required")
		return
	}
	respondJSON(w, http.StatusOK, views.Sidebar(h.Monitor.Snapshot().Tags, ubicacion, categoria, h.Location))
}

// GET /api/v1/archive/snapshots?limit=
func (h *Handler) ArchivedSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		respondError(w, http.StatusNotFound, "archive disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.Archive.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
