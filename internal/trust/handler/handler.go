// Package handler exposes claim-topic and trusted-issuer administration over
// HTTP. Both registries are owner-gated; the handler only parses and relays.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"veriledger/internal/transport/http/shared"
	"veriledger/internal/trust/issuers"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
	"veriledger/pkg/requestcontext"
)

// TopicsRegistry defines the claim-topic operations the handler depends on.
type TopicsRegistry interface {
	Add(ctx context.Context, topic domain.ClaimTopic) error
	Remove(ctx context.Context, topic domain.ClaimTopic) error
	Topics() []domain.ClaimTopic
}

// IssuersRegistry defines the trusted-issuer operations the handler depends on.
type IssuersRegistry interface {
	Add(ctx context.Context, issuer domain.IssuerID, topics []domain.ClaimTopic) error
	UpdateTopics(ctx context.Context, issuer domain.IssuerID, topics []domain.ClaimTopic) error
	Remove(ctx context.Context, issuer domain.IssuerID) error
	Issuers() []issuers.TrustedIssuer
	ForTopic(topic domain.ClaimTopic) []domain.IssuerID
}

// Handler wires trust model endpoints to the registries.
type Handler struct {
	topics  TopicsRegistry
	issuers IssuersRegistry
	logger  *slog.Logger
}

// New constructs a trust handler.
func New(topics TopicsRegistry, issuers IssuersRegistry, logger *slog.Logger) *Handler {
	return &Handler{topics: topics, issuers: issuers, logger: logger}
}

// Register mounts trust model endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/claim-topics", h.HandleListTopics)
	r.Post("/claim-topics", h.HandleAddTopic)
	r.Delete("/claim-topics/{topic}", h.HandleRemoveTopic)

	r.Get("/trusted-issuers", h.HandleListIssuers)
	r.Post("/trusted-issuers", h.HandleAddIssuer)
	r.Put("/trusted-issuers/{issuer}/topics", h.HandleUpdateIssuerTopics)
	r.Delete("/trusted-issuers/{issuer}", h.HandleRemoveIssuer)
}

// HandleListTopics handles GET /claim-topics.
func (h *Handler) HandleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.topics.Topics()
	out := make([]uint64, 0, len(topics))
	for _, t := range topics {
		out = append(out, uint64(t))
	}
	shared.WriteJSON(w, http.StatusOK, TopicsResponse{Topics: out})
}

// HandleAddTopic handles POST /claim-topics.
func (h *Handler) HandleAddTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[TopicRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.topics.Add(ctx, domain.ClaimTopic(req.Topic)); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim topic added",
		"request_id", requestID,
		"topic", req.Topic,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// HandleRemoveTopic handles DELETE /claim-topics/{topic}.
func (h *Handler) HandleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	topic, err := domain.ParseClaimTopic(chi.URLParam(r, "topic"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid topic"))
		return
	}

	if err := h.topics.Remove(ctx, topic); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim topic removed",
		"request_id", requestID,
		"topic", topic,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleListIssuers handles GET /trusted-issuers. An optional ?topic= filter
// narrows the list to issuers trusted for that topic.
func (h *Handler) HandleListIssuers(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("topic"); raw != "" {
		topic, err := domain.ParseClaimTopic(raw)
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid topic filter"))
			return
		}
		ids := h.issuers.ForTopic(topic)
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, id.String())
		}
		shared.WriteJSON(w, http.StatusOK, IssuerIDsResponse{Issuers: out})
		return
	}

	list := h.issuers.Issuers()
	out := make([]IssuerResponse, 0, len(list))
	for _, ti := range list {
		out = append(out, FromTrustedIssuer(ti))
	}
	shared.WriteJSON(w, http.StatusOK, IssuersResponse{Issuers: out})
}

// HandleAddIssuer handles POST /trusted-issuers.
func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := shared.DecodeAndPrepare[IssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.issuers.Add(ctx, req.issuer, req.topics); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "trusted issuer added",
		"request_id", requestID,
		"issuer", req.Issuer,
		"topics", req.Topics,
	)
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// HandleUpdateIssuerTopics handles PUT /trusted-issuers/{issuer}/topics.
func (h *Handler) HandleUpdateIssuerTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, err := issuerParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	req, ok := shared.DecodeAndPrepare[TopicSetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.issuers.UpdateTopics(ctx, issuer, req.topics); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "trusted issuer topics updated",
		"request_id", requestID,
		"issuer", issuer,
		"topics", req.Topics,
	)
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleRemoveIssuer handles DELETE /trusted-issuers/{issuer}.
func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, err := issuerParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.issuers.Remove(ctx, issuer); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "trusted issuer removed",
		"request_id", requestID,
		"issuer", issuer,
	)
	w.WriteHeader(http.StatusNoContent)
}

func issuerParam(r *http.Request) (domain.IssuerID, error) {
	issuer, err := domain.ParseIssuerID(strings.TrimSpace(chi.URLParam(r, "issuer")))
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "issuer path parameter is invalid")
	}
	return issuer, nil
}
