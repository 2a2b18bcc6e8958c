// Package httptransport assembles the HTTP surface: middleware chain, domain
// handlers, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compliancehandler "veriledger/internal/compliance/handler"
	identityhandler "veriledger/internal/identity/handler"
	ledgerhandler "veriledger/internal/ledger/handler"
	"veriledger/internal/platform/metrics"
	"veriledger/internal/platform/middleware"
	"veriledger/internal/transport/http/shared"
	trusthandler "veriledger/internal/trust/handler"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/platform/events"
)

// EventLister reads the audit trail for a wallet.
type EventLister interface {
	List(ctx context.Context, wallet domain.WalletID) ([]events.Event, error)
}

// InvariantChecker reports whether ledger state is internally consistent.
// Used by the readiness endpoint.
type InvariantChecker interface {
	CheckInvariants() error
}

// Deps bundles everything the router mounts.
type Deps struct {
	Identity   identityhandler.Service
	Claims     identityhandler.ClaimStore
	Trust      *trusthandler.Handler
	Compliance *compliancehandler.Handler
	Ledger     ledgerhandler.Service
	Events     EventLister
	Checker    InvariantChecker
	Validator  middleware.JWTValidator
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewRouter wires middleware and mounts all endpoints. Everything under /v1
// requires a bearer token; health and metrics stay open.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady(deps.Checker))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Use(middleware.ContentTypeJSON)

		identityhandler.New(deps.Identity, deps.Claims, deps.Logger).Register(r)
		deps.Trust.Register(r)
		deps.Compliance.Register(r)
		ledgerhandler.New(deps.Ledger, deps.Logger).Register(r)

		r.Get("/events/{wallet}", handleEvents(deps.Events))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(checker InvariantChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.CheckInvariants(); err != nil {
				shared.WriteError(w, err)
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleEvents(lister EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "event history is not enabled"))
			return
		}
		wallet, err := domain.ParseWalletID(chi.URLParam(r, "wallet"))
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "wallet path parameter is invalid"))
			return
		}
		list, err := lister.List(r.Context(), wallet)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]any{"events": list})
	}
}
