package handler

import (
	"strings"

	"veriledger/internal/trust/issuers"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// TopicRequest is the body for POST /claim-topics.
type TopicRequest struct {
	Topic uint64 `json:"topic"`
}

func (r *TopicRequest) Validate() error {
	return nil
}

// IssuerRequest is the body for POST /trusted-issuers.
type IssuerRequest struct {
	Issuer string   `json:"issuer"`
	Topics []uint64 `json:"topics"`

	// Parsed values (populated by Validate)
	issuer domain.IssuerID
	topics []domain.ClaimTopic
}

func (r *IssuerRequest) Validate() error {
	r.Issuer = strings.TrimSpace(r.Issuer)
	if r.Issuer == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	issuer, err := domain.ParseIssuerID(r.Issuer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid issuer")
	}
	r.issuer = issuer
	r.topics = toClaimTopics(r.Topics)
	return nil
}

// TopicSetRequest is the body for PUT /trusted-issuers/{issuer}/topics.
type TopicSetRequest struct {
	Topics []uint64 `json:"topics"`

	topics []domain.ClaimTopic
}

func (r *TopicSetRequest) Validate() error {
	r.topics = toClaimTopics(r.Topics)
	return nil
}

func toClaimTopics(raw []uint64) []domain.ClaimTopic {
	out := make([]domain.ClaimTopic, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.ClaimTopic(t))
	}
	return out
}

// TopicsResponse is the body for GET /claim-topics.
type TopicsResponse struct {
	Topics []uint64 `json:"topics"`
}

// IssuerResponse is the representation of one trusted issuer.
type IssuerResponse struct {
	Issuer string   `json:"issuer"`
	Topics []uint64 `json:"topics"`
}

// FromTrustedIssuer maps a registry entry to its response form.
func FromTrustedIssuer(ti issuers.TrustedIssuer) IssuerResponse {
	topics := make([]uint64, 0, len(ti.Topics))
	for _, t := range ti.Topics {
		topics = append(topics, uint64(t))
	}
	return IssuerResponse{Issuer: ti.Issuer.String(), Topics: topics}
}

// IssuersResponse is the body for GET /trusted-issuers.
type IssuersResponse struct {
	Issuers []IssuerResponse `json:"issuers"`
}

// IssuerIDsResponse is the body for GET /trusted-issuers?topic=N.
type IssuerIDsResponse struct {
	Issuers []string `json:"issuers"`
}
