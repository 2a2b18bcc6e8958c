package handler

import (
	"strings"
	"time"

	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// BindModuleRequest is the body for POST /compliance/modules.
//
// Max carries the single numeric parameter for max-balance, max-holders,
// supply-cap and daily-limit. Countries feeds the country list modules.
// OpensAt/ClosesAt bound the transfer-window module.
type BindModuleRequest struct {
	Kind      string    `json:"kind"`
	Max       uint64    `json:"max,omitempty"`
	Countries []uint16  `json:"countries,omitempty"`
	OpensAt   time.Time `json:"opens_at,omitempty"`
	ClosesAt  time.Time `json:"closes_at,omitempty"`
}

func (r *BindModuleRequest) Validate() error {
	r.Kind = strings.TrimSpace(r.Kind)
	if r.Kind == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	switch r.Kind {
	case "max-balance", "max-holders", "supply-cap", "daily-limit":
		if r.Max == 0 {
			return dErrors.New(dErrors.CodeValidation, "max must be greater than zero")
		}
	case "country-allow-list", "country-deny-list":
		if len(r.Countries) == 0 {
			return dErrors.New(dErrors.CodeValidation, "countries is required")
		}
	case "transfer-window":
		if !r.OpensAt.IsZero() && !r.ClosesAt.IsZero() && r.ClosesAt.Before(r.OpensAt) {
			return dErrors.New(dErrors.CodeValidation, "closes_at must not precede opens_at")
		}
	}
	return nil
}

func (r *BindModuleRequest) countryCodes() []domain.CountryCode {
	out := make([]domain.CountryCode, 0, len(r.Countries))
	for _, c := range r.Countries {
		out = append(out, domain.CountryCode(c))
	}
	return out
}

// ModulesResponse is the body for GET /compliance/modules.
type ModulesResponse struct {
	Modules []string `json:"modules"`
}

// CheckResponse is the body for GET /compliance/check.
type CheckResponse struct {
	Allowed    bool   `json:"allowed"`
	RejectedBy string `json:"rejected_by,omitempty"`
}
