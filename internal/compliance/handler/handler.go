// Package handler exposes compliance engine administration over HTTP. Modules
// are constructed from a request-supplied kind and parameters, then bound to
// the engine; unbinding goes by module name.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"veriledger/internal/compliance"
	"veriledger/internal/compliance/modules"
	"veriledger/internal/transport/http/shared"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

// Engine defines the compliance operations the handler depends on.
type Engine interface {
	BindModule(ctx context.Context, module compliance.Module) error
	UnbindModule(ctx context.Context, name string) error
	ModuleNames() []string
	CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, string, error)
}

// Handler wires compliance endpoints to the engine.
type Handler struct {
	engine    Engine
	countries modules.CountrySource
	logger    *slog.Logger
}

// New constructs a compliance handler. countries backs the country modules
// built from bind requests.
func New(engine Engine, countries modules.CountrySource, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, countries: countries, logger: logger}
}

// Register mounts compliance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/compliance/modules", h.HandleListModules)
	r.Post("/compliance/modules", h.HandleBindModule)
	r.Delete("/compliance/modules/{name}", h.HandleUnbindModule)
	r.Get("/compliance/check", h.HandleCheck)
}

// HandleListModules handles GET /compliance/modules.
func (h *Handler) HandleListModules(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, ModulesResponse{Modules: h.engine.ModuleNames()})
}

// HandleBindModule handles POST /compliance/modules.
func (h *Handler) HandleBindModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[BindModuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	module, err := h.buildModule(req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.engine.BindModule(ctx, module); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "compliance module bound",
		"request_id", requestID,
		"module", module.Name(),
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"module": module.Name()})
}

// HandleUnbindModule handles DELETE /compliance/modules/{name}.
func (h *Handler) HandleUnbindModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	name := chi.URLParam(r, "name")
	if name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "module name is required"))
		return
	}

	if err := h.engine.UnbindModule(ctx, name); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "compliance module unbound",
		"request_id", requestID,
		"module", name,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheck handles GET /compliance/check. It is a dry run: no module state
// changes, only the aggregated CanTransfer verdict.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var from domain.WalletID
	if raw := q.Get("from"); raw != "" {
		parsed, err := domain.ParseWalletID(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid from wallet"))
			return
		}
		from = parsed
	}
	to, err := domain.ParseWalletID(q.Get("to"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid to wallet"))
		return
	}
	amount, err := strconv.ParseUint(q.Get("amount"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid amount"))
		return
	}

	allowed, rejectedBy, err := h.engine.CanTransfer(ctx, from, to, amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, CheckResponse{Allowed: allowed, RejectedBy: rejectedBy})
}

func (h *Handler) buildModule(req *BindModuleRequest) (compliance.Module, error) {
	switch req.Kind {
	case "max-balance":
		return modules.NewMaxBalance(req.Max), nil
	case "max-holders":
		return modules.NewMaxHolders(int(req.Max)), nil
	case "supply-cap":
		return modules.NewSupplyCap(req.Max), nil
	case "daily-limit":
		return modules.NewDailyLimit(req.Max), nil
	case "transfer-window":
		return modules.NewTransferWindow(req.OpensAt, req.ClosesAt), nil
	case "country-allow-list":
		return modules.NewCountryAllowList(h.countries, req.countryCodes()), nil
	case "country-deny-list":
		return modules.NewCountryDenyList(h.countries, req.countryCodes()), nil
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown module kind %q", req.Kind)
	}
}
