// Package handler exposes identity registry operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veriledger/internal/identity/models"
	"veriledger/internal/transport/http/shared"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

// Service defines the identity operations the handler depends on.
type Service interface {
	Register(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID, country domain.CountryCode) error
	UpdateIdentity(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID) error
	UpdateCountry(ctx context.Context, wallet domain.WalletID, country domain.CountryCode) error
	Delete(ctx context.Context, wallet domain.WalletID) error
	Binding(ctx context.Context, wallet domain.WalletID) (models.Binding, error)
	IsVerified(ctx context.Context, wallet domain.WalletID) (bool, error)
}

// ClaimStore defines the claim attestation operations the handler depends on.
type ClaimStore interface {
	Attest(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) error
	Revoke(ctx context.Context, identity domain.IdentityID, issuer domain.IssuerID, topic domain.ClaimTopic) error
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	claims  ClaimStore
	logger  *slog.Logger
}

// New constructs an identity handler. claims may be nil when claim
// attestation is managed out of process.
func New(service Service, claims ClaimStore, logger *slog.Logger) *Handler {
	return &Handler{service: service, claims: claims, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.HandleRegister)
	r.Get("/identities/{wallet}", h.HandleGet)
	r.Get("/identities/{wallet}/verified", h.HandleIsVerified)
	r.Put("/identities/{wallet}/identity", h.HandleUpdateIdentity)
	r.Put("/identities/{wallet}/country", h.HandleUpdateCountry)
	r.Delete("/identities/{wallet}", h.HandleDelete)

	if h.claims != nil {
		r.Post("/claims", h.HandleAttestClaim)
		r.Delete("/claims", h.HandleRevokeClaim)
	}
}

// HandleRegister handles POST /identities.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Register(ctx, req.wallet, req.identity, req.country); err != nil {
		h.logger.ErrorContext(ctx, "identity registration failed",
			"request_id", requestID,
			"wallet", req.Wallet,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity registered",
		"request_id", requestID,
		"wallet", req.Wallet,
		"country", req.Country,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// HandleGet handles GET /identities/{wallet}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	binding, err := h.service.Binding(ctx, wallet)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromBinding(binding))
}

// HandleIsVerified handles GET /identities/{wallet}/verified.
func (h *Handler) HandleIsVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	verified, err := h.service.IsVerified(ctx, wallet)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification check failed",
			"request_id", requestcontext.RequestID(ctx),
			"wallet", wallet,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, VerifiedResponse{Wallet: wallet.String(), Verified: verified})
}

// HandleUpdateIdentity handles PUT /identities/{wallet}/identity.
func (h *Handler) HandleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[UpdateIdentityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateIdentity(ctx, wallet, req.identity); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity updated",
		"request_id", requestID,
		"wallet", wallet,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleUpdateCountry handles PUT /identities/{wallet}/country.
func (h *Handler) HandleUpdateCountry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[UpdateCountryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateCountry(ctx, wallet, req.country); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "investor country updated",
		"request_id", requestID,
		"wallet", wallet,
		"country", req.Country,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleDelete handles DELETE /identities/{wallet}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, wallet); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity removed",
		"request_id", requestID,
		"wallet", wallet,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAttestClaim handles POST /claims.
func (h *Handler) HandleAttestClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.claims.Attest(ctx, req.identity, req.issuer, domain.ClaimTopic(req.Topic)); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim attested",
		"request_id", requestID,
		"identity", req.Identity,
		"issuer", req.Issuer,
		"topic", req.Topic,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "attested"})
}

// HandleRevokeClaim handles DELETE /claims.
func (h *Handler) HandleRevokeClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.claims.Revoke(ctx, req.identity, req.issuer, domain.ClaimTopic(req.Topic)); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim revoked",
		"request_id", requestID,
		"identity", req.Identity,
		"issuer", req.Issuer,
		"topic", req.Topic,
	)
	w.WriteHeader(http.StatusNoContent)
}

func walletParam(r *http.Request) (domain.WalletID, error) {
	wallet, err := domain.ParseWalletID(chi.URLParam(r, "wallet"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "wallet path parameter is invalid")
	}
	return wallet, nil
}
