package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriledger/internal/accesscontrol"
	"veriledger/internal/ledger/service"
	"veriledger/internal/platform/middleware"
	"veriledger/pkg/domain"
)

const signingKey = "test-signing-key"

// allowAll satisfies the compliance port without any bound modules.
type allowAll struct{}

func (allowAll) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, string, error) {
	return true, "", nil
}
func (allowAll) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	return nil
}
func (allowAll) Created(ctx context.Context, to domain.WalletID, amount uint64) error   { return nil }
func (allowAll) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error { return nil }

// verifiedSet marks listed wallets as verified.
type verifiedSet map[domain.WalletID]bool

func (v verifiedSet) IsVerified(ctx context.Context, wallet domain.WalletID) (bool, error) {
	return v[wallet], nil
}
func (v verifiedSet) Register(ctx context.Context, wallet domain.WalletID, identity domain.IdentityID, country domain.CountryCode) error {
	v[wallet] = true
	return nil
}
func (v verifiedSet) Delete(ctx context.Context, wallet domain.WalletID) error {
	delete(v, wallet)
	return nil
}
func (v verifiedSet) InvestorCountry(ctx context.Context, wallet domain.WalletID) (domain.CountryCode, error) {
	return 840, nil
}

type env struct {
	router http.Handler
	svc    *service.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	roles := accesscontrol.New("owner")
	require.NoError(t, roles.AddAgent("owner", "agent"))

	svc := service.New(service.Deps{
		Token:      service.TokenInfo{Name: "Test", Symbol: "TST"},
		Identity:   verifiedSet{"wallet-alice": true, "wallet-bob": true},
		Compliance: allowAll{},
		Roles:      roles,
		Logger:     logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequireAuth(middleware.NewHMACValidator(signingKey), logger))
	New(svc, logger).Register(r)
	return &env{router: r, svc: svc}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: subject,
	}).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

func (e *env) do(t *testing.T, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, subject))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestMintAndTransferOverHTTP(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/supply/mint", "agent", map[string]any{
		"to": "wallet-alice", "amount": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/transfers", "wallet-alice", map[string]any{
		"from": "wallet-alice", "to": "wallet-bob", "amount": 40,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/balances/wallet-bob", "wallet-bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balance BalanceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&balance))
	assert.Equal(t, uint64(40), balance.Balance)
}

func TestTransfer_RequiresAuth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/transfers", "", map[string]any{
		"from": "wallet-alice", "to": "wallet-bob", "amount": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransfer_SenderMismatchIsForbidden(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/transfers", "wallet-bob", map[string]any{
		"from": "wallet-alice", "to": "wallet-bob", "amount": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransfer_InvalidBody(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer "+token(t, "wallet-alice"))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/transfers", "wallet-alice", map[string]any{
		"from": "wallet-alice", "to": "", "amount": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/transfers", "wallet-alice", map[string]any{
		"from": "wallet-alice", "to": "wallet-bob", "amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_BusinessRejectionsMapTo422(t *testing.T) {
	e := newEnv(t)

	// Insufficient balance: nothing was minted.
	rec := e.do(t, http.MethodPost, "/transfers", "wallet-alice", map[string]any{
		"from": "wallet-alice", "to": "wallet-bob", "amount": 10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "insufficient_balance", body["error"])
}

func TestPauseEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/ledger/pause", "agent", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/token", "agent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.True(t, info.Paused)

	// Pausing twice is an invalid state transition.
	rec = e.do(t, http.MethodPost, "/ledger/pause", "agent", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.do(t, http.MethodPost, "/ledger/unpause", "agent", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFreezeEndpoints(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/supply/mint", "agent", map[string]any{
		"to": "wallet-alice", "amount": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/wallets/wallet-alice/frozen-tokens", "agent", map[string]any{
		"amount": 60,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/balances/wallet-alice", "agent", nil)
	var balance BalanceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&balance))
	assert.Equal(t, uint64(60), balance.FrozenTokens)

	// Over-freezing maps to 422.
	rec = e.do(t, http.MethodPost, "/wallets/wallet-alice/frozen-tokens", "agent", map[string]any{
		"amount": 50,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
