package handler

import (
	"strings"

	"veriledger/internal/ledger/service"
	"veriledger/pkg/domain"
	dErrors "veriledger/pkg/domain-errors"
)

// TransferRequest is the body for POST /transfers and POST /transfers/forced.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	// Parsed values (populated by Validate)
	from domain.WalletID
	to   domain.WalletID
}

func (r *TransferRequest) Validate() error {
	from, err := parseWallet(r.From, "from")
	if err != nil {
		return err
	}
	to, err := parseWallet(r.To, "to")
	if err != nil {
		return err
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	r.from, r.to = from, to
	return nil
}

// BatchItem is one entry of a batch transfer or batch mint.
type BatchItem struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// BatchTransferRequest is the body for POST /transfers/batch.
type BatchTransferRequest struct {
	From  string      `json:"from"`
	Items []BatchItem `json:"items"`

	from  domain.WalletID
	items []service.TransferItem
}

func (r *BatchTransferRequest) Validate() error {
	from, err := parseWallet(r.From, "from")
	if err != nil {
		return err
	}
	r.from = from

	items, err := toTransferItems(r.Items, from)
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

// BatchMintRequest is the body for POST /supply/mint/batch.
type BatchMintRequest struct {
	Items []BatchItem `json:"items"`

	items []service.TransferItem
}

func (r *BatchMintRequest) Validate() error {
	items, err := toTransferItems(r.Items, "")
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

// MintRequest is the body for POST /supply/mint.
type MintRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`

	to domain.WalletID
}

func (r *MintRequest) Validate() error {
	to, err := parseWallet(r.To, "to")
	if err != nil {
		return err
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	r.to = to
	return nil
}

// BurnRequest is the body for POST /supply/burn.
type BurnRequest struct {
	From   string `json:"from"`
	Amount uint64 `json:"amount"`

	from domain.WalletID
}

func (r *BurnRequest) Validate() error {
	from, err := parseWallet(r.From, "from")
	if err != nil {
		return err
	}
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	r.from = from
	return nil
}

// FreezeAddressRequest is the body for PUT /wallets/{wallet}/frozen.
type FreezeAddressRequest struct {
	Frozen bool `json:"frozen"`
}

func (r *FreezeAddressRequest) Validate() error {
	return nil
}

// AmountRequest is the body for partial freeze and unfreeze.
type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

func (r *AmountRequest) Validate() error {
	return validateAmount(r.Amount)
}

// RecoveryRequest is the body for POST /recoveries.
type RecoveryRequest struct {
	LostWallet string `json:"lost_wallet"`
	NewWallet  string `json:"new_wallet"`
	Identity   string `json:"identity"`

	lostWallet domain.WalletID
	newWallet  domain.WalletID
	identity   domain.IdentityID
}

func (r *RecoveryRequest) Validate() error {
	lost, err := parseWallet(r.LostWallet, "lost_wallet")
	if err != nil {
		return err
	}
	next, err := parseWallet(r.NewWallet, "new_wallet")
	if err != nil {
		return err
	}
	if lost == next {
		return dErrors.New(dErrors.CodeValidation, "lost_wallet and new_wallet must differ")
	}

	r.Identity = strings.TrimSpace(r.Identity)
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	identity, err := domain.ParseIdentityID(r.Identity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid identity")
	}

	r.lostWallet, r.newWallet, r.identity = lost, next, identity
	return nil
}

// TokenResponse is the body for GET /token.
type TokenResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply uint64 `json:"total_supply"`
	Paused      bool   `json:"paused"`
}

// BalanceResponse is the body for GET /balances/{wallet}.
type BalanceResponse struct {
	Wallet       string `json:"wallet"`
	Balance      uint64 `json:"balance"`
	FrozenTokens uint64 `json:"frozen_tokens"`
	Frozen       bool   `json:"frozen"`
}

func parseWallet(raw, field string) (domain.WalletID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	wallet, err := domain.ParseWalletID(raw)
	if err != nil {
		return "", dErrors.Wrapf(err, dErrors.CodeValidation, "invalid %s", field)
	}
	return wallet, nil
}

func validateAmount(amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	return nil
}

func toTransferItems(raw []BatchItem, from domain.WalletID) ([]service.TransferItem, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "items is required")
	}
	out := make([]service.TransferItem, 0, len(raw))
	for i, item := range raw {
		to, err := parseWallet(item.To, "to")
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "item %d: invalid to wallet", i)
		}
		if err := validateAmount(item.Amount); err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "item %d: amount must be greater than zero", i)
		}
		out = append(out, service.TransferItem{From: from, To: to, Amount: item.Amount})
	}
	return out, nil
}
