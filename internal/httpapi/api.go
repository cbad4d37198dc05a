// Package httpapi is the reference backend for the donation coordination
// API. The client façade treats this server as authoritative and only falls
// back to local storage when it is unreachable.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/obs"
)

// ReadyProbe checks readiness, typically a database ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tune the HTTP layer. Zero values get sensible defaults.
type Options struct {
	Version      string
	Ready        ReadyProbe
	RateLimitRPS float64
	RateBurst    int
	MaxBodyBytes int64
	CORSOrigin   string
}

// API is the HTTP layer over the store.
type API struct {
	store donations.Store
	users auth.UserStore
	opts  Options
	log   *zap.Logger
}

func New(store donations.Store, users auth.UserStore, opts Options) *API {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 50
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 100
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &API{store: store, users: users, opts: opts, log: obs.Logger()}
}

// Router mounts the API surface.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(a.requestContext)
	r.Use(a.requestLogger)
	r.Use(SecurityHeaders)
	r.Use(CORS(a.opts.CORSOrigin))
	r.Use(MaxBodyBytes(a.opts.MaxBodyBytes))
	r.Use(RateLimit(a.opts.RateLimitRPS, a.opts.RateBurst))

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Get("/info", a.info)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.login)
		r.Post("/auth/signup", a.signup)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)
			r.Get("/auth/me", a.me)

			r.Route("/donations", func(r chi.Router) {
				r.Get("/", a.listDonations)
				r.Post("/", a.createDonation)
				r.Get("/my", a.myDonations)
				r.Get("/{id}", a.getDonation)
				r.Patch("/{id}", a.updateDonation)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", a.listRequests)
				r.Post("/", a.createRequest)
				r.Get("/my", a.myRequests)

				r.Group(func(r chi.Router) {
					r.Use(RequireRole(auth.RoleCoordinator))
					r.Get("/accepted", a.acceptedRequests)
					r.Patch("/{id}", a.updateRequest)
				})
			})
		})
	})

	return r
}

// Handler returns the router wrapped with metrics.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.Router())
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := chimw.GetReqID(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, donations.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, donations.ErrInvalidInput),
		errors.Is(err, donations.ErrInvalidQuantity),
		errors.Is(err, donations.ErrInvalidStatus):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
