// Package handler exposes token ledger operations over HTTP. Authorization
// lives in the service layer; the handler parses, relays and logs.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veriledger/internal/ledger/service"
	"veriledger/internal/transport/http/shared"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

// Service defines the ledger operations the handler depends on.
type Service interface {
	Token() service.TokenInfo
	BalanceOf(wallet domain.WalletID) uint64
	TotalSupply() uint64
	FrozenTokens(wallet domain.WalletID) uint64
	IsFrozen(wallet domain.WalletID) bool
	Paused() bool

	Transfer(ctx context.Context, from, to domain.WalletID, amount uint64) error
	BatchTransfer(ctx context.Context, from domain.WalletID, items []service.TransferItem) error
	ForcedTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) error
	Mint(ctx context.Context, to domain.WalletID, amount uint64) error
	BatchMint(ctx context.Context, items []service.TransferItem) error
	Burn(ctx context.Context, from domain.WalletID, amount uint64) error
	FreezeAddress(ctx context.Context, wallet domain.WalletID, frozen bool) error
	FreezePartialTokens(ctx context.Context, wallet domain.WalletID, amount uint64) error
	UnfreezePartialTokens(ctx context.Context, wallet domain.WalletID, amount uint64) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	RecoveryAddress(ctx context.Context, lostWallet, newWallet domain.WalletID, identity domain.IdentityID) error
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/token", h.HandleToken)
	r.Get("/balances/{wallet}", h.HandleBalance)

	r.Post("/transfers", h.HandleTransfer)
	r.Post("/transfers/batch", h.HandleBatchTransfer)
	r.Post("/transfers/forced", h.HandleForcedTransfer)

	r.Post("/supply/mint", h.HandleMint)
	r.Post("/supply/mint/batch", h.HandleBatchMint)
	r.Post("/supply/burn", h.HandleBurn)

	r.Put("/wallets/{wallet}/frozen", h.HandleFreezeAddress)
	r.Post("/wallets/{wallet}/frozen-tokens", h.HandleFreezeTokens)
	r.Delete("/wallets/{wallet}/frozen-tokens", h.HandleUnfreezeTokens)

	r.Post("/ledger/pause", h.HandlePause)
	r.Post("/ledger/unpause", h.HandleUnpause)
	r.Post("/recoveries", h.HandleRecovery)
}

// HandleToken handles GET /token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	info := h.service.Token()
	shared.WriteJSON(w, http.StatusOK, TokenResponse{
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: h.service.TotalSupply(),
		Paused:      h.service.Paused(),
	})
}

// HandleBalance handles GET /balances/{wallet}.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, BalanceResponse{
		Wallet:       wallet.String(),
		Balance:      h.service.BalanceOf(wallet),
		FrozenTokens: h.service.FrozenTokens(wallet),
		Frozen:       h.service.IsFrozen(wallet),
	})
}

// HandleTransfer handles POST /transfers.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Transfer(ctx, req.from, req.to, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestID,
			"from", req.From,
			"to", req.To,
			"amount", req.Amount,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "transfer completed",
		"request_id", requestID,
		"from", req.From,
		"to", req.To,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HandleBatchTransfer handles POST /transfers/batch.
func (h *Handler) HandleBatchTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[BatchTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.BatchTransfer(ctx, req.from, req.items); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch transfer completed",
		"request_id", requestID,
		"from", req.From,
		"items", len(req.Items),
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HandleForcedTransfer handles POST /transfers/forced.
func (h *Handler) HandleForcedTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.ForcedTransfer(ctx, req.from, req.to, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "forced transfer completed",
		"request_id", requestID,
		"actor", requestcontext.Actor(ctx),
		"from", req.From,
		"to", req.To,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HandleMint handles POST /supply/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Mint(ctx, req.to, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tokens minted",
		"request_id", requestID,
		"to", req.To,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "minted"})
}

// HandleBatchMint handles POST /supply/mint/batch.
func (h *Handler) HandleBatchMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[BatchMintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.BatchMint(ctx, req.items); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch mint completed",
		"request_id", requestID,
		"items", len(req.Items),
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "minted"})
}

// HandleBurn handles POST /supply/burn.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[BurnRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Burn(ctx, req.from, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tokens burned",
		"request_id", requestID,
		"from", req.From,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "burned"})
}

// HandleFreezeAddress handles PUT /wallets/{wallet}/frozen.
func (h *Handler) HandleFreezeAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[FreezeAddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.FreezeAddress(ctx, wallet, req.Frozen); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wallet freeze flag set",
		"request_id", requestID,
		"wallet", wallet,
		"frozen", req.Frozen,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleFreezeTokens handles POST /wallets/{wallet}/frozen-tokens.
func (h *Handler) HandleFreezeTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.FreezePartialTokens(ctx, wallet, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tokens frozen",
		"request_id", requestID,
		"wallet", wallet,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "frozen"})
}

// HandleUnfreezeTokens handles DELETE /wallets/{wallet}/frozen-tokens.
func (h *Handler) HandleUnfreezeTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	wallet, err := walletParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UnfreezePartialTokens(ctx, wallet, req.Amount); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tokens unfrozen",
		"request_id", requestID,
		"wallet", wallet,
		"amount", req.Amount,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "unfrozen"})
}

// HandlePause handles POST /ledger/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Pause(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ledger paused",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// HandleUnpause handles POST /ledger/unpause.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Unpause(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ledger unpaused",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// HandleRecovery handles POST /recoveries.
func (h *Handler) HandleRecovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[RecoveryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RecoveryAddress(ctx, req.lostWallet, req.newWallet, req.identity); err != nil {
		h.logger.ErrorContext(ctx, "wallet recovery failed",
			"request_id", requestID,
			"lost_wallet", req.LostWallet,
			"new_wallet", req.NewWallet,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "wallet recovered",
		"request_id", requestID,
		"lost_wallet", req.LostWallet,
		"new_wallet", req.NewWallet,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "recovered"})
}

func walletParam(r *http.Request) (domain.WalletID, error) {
	wallet, err := domain.ParseWalletID(chi.URLParam(r, "wallet"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "wallet path parameter is invalid")
	}
	return wallet, nil
}
