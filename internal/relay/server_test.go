package relay

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/ledger/memory"
)

func newTestServer(t *testing.T, mock *mockChain) (*Server, *memory.MemoryStorage) {
	t.Helper()

	signer, err := NewSigner(testPrivKey, testChainID, mock)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	store := memory.NewMemoryStorage()
	txLog := memory.NewTxLedger(store)
	loginLog := memory.NewLoginLedger(store)
	oracle := NewOracle(mock, nil, "sepolia", 0, nil)
	tokens := domain.NewTokenRegistry(domain.DefaultTokens)

	engine := NewEngine(signer, mock, oracle, txLog, tokens, Config{
		Network:         "sepolia",
		ExplorerURL:     "https://sepolia.etherscan.io",
		DefaultGasLimit: 21000,
		ConfirmTimeout:  2 * time.Second,
		PollInterval:    time.Millisecond,
	}, nil)

	srv := NewServer(0, engine, oracle, txLog, loginLog, "sepolia", nil, nil)
	return srv, store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rr.Body.String(), err)
	}
	return rr, payload
}

func TestServer_TransferValidationReturns400(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
		`{"tokenSymbol":"ETH","amount":"-3","toAddress":"`+testTo+`"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if payload["success"] != false {
		t.Error("success must be false")
	}
	if mock.balanceCalls != 0 {
		t.Error("validation failures must not reach the chain")
	}
}

func TestServer_TransferInsufficientFundsReturns400(t *testing.T) {
	mock := newMockChain()
	mock.balance = big.NewInt(1)
	srv, _ := newTestServer(t, mock)

	rr, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
		`{"tokenSymbol":"ETH","amount":"1","toAddress":"`+testTo+`"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if mock.sendCount != 0 {
		t.Error("nothing may be broadcast")
	}
}

func TestServer_TransferBroadcastFailureReturns500(t *testing.T) {
	mock := newMockChain()
	mock.sendErr = errors.New("nonce too low")
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
		`{"tokenSymbol":"ETH","amount":"0.1","toAddress":"`+testTo+`"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if payload["error"] != "transaction failed" {
		t.Errorf("error = %v, want %q", payload["error"], "transaction failed")
	}
}

func TestServer_TransferRevertedReturns200Failed(t *testing.T) {
	mock := newMockChain()
	mock.failReceipts = true
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
		`{"tokenSymbol":"ETH","amount":"0.1","toAddress":"`+testTo+`"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["status"] != "failed" {
		t.Errorf("status field = %v, want failed", payload["status"])
	}
	if payload["success"] != true {
		t.Error("a mined transaction is a successful relay operation")
	}
}

func TestServer_TransferSuccess(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
		`{"tokenSymbol":"ETH","amount":"0.25","toAddress":"`+testTo+`"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	hash, _ := payload["txHash"].(string)
	if !strings.HasPrefix(hash, "0x") {
		t.Fatalf("txHash = %v", payload["txHash"])
	}
	if payload["explorerUrl"] != "https://sepolia.etherscan.io/tx/"+hash {
		t.Errorf("explorerUrl = %v", payload["explorerUrl"])
	}

	// The broadcast hash must be retrievable afterwards.
	rr, payload = doJSON(t, srv.Handler(), http.MethodGet, "/api/transaction/"+hash, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", rr.Code)
	}
	tx, _ := payload["transaction"].(map[string]any)
	if tx["txHash"] != hash {
		t.Errorf("looked-up hash = %v", tx["txHash"])
	}
}

func TestServer_TransactionByUnknownHashReturns404(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, _ := doJSON(t, srv.Handler(), http.MethodGet, "/api/transaction/0xdeadbeef", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestServer_HistoryEmptyForUnknownAddress(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet,
		"/api/transactions/0x0000000000000000000000000000000000000001", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["count"] != float64(0) {
		t.Errorf("count = %v, want 0", payload["count"])
	}
}

func TestServer_HistoryNewestFirstWithLimit(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	for i := 0; i < 3; i++ {
		rr, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/transaction",
			`{"tokenSymbol":"ETH","amount":"0.01","toAddress":"`+testTo+`"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("transfer %d: status = %d", i, rr.Code)
		}
	}

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet,
		"/api/transactions/"+testAddress+"?limit=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["count"] != float64(2) {
		t.Errorf("count = %v, want 2", payload["count"])
	}

	txs, _ := payload["transactions"].([]any)
	if len(txs) != 2 {
		t.Fatalf("got %d records", len(txs))
	}
	first, _ := txs[0].(map[string]any)
	second, _ := txs[1].(map[string]any)
	if first["nonce"].(float64) < second["nonce"].(float64) {
		t.Error("history must be newest first")
	}
}

func TestServer_BalanceDegradedFlag(t *testing.T) {
	mock := newMockChain()
	mock.balanceErr = errors.New("provider down")
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/wallet/balance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (degraded reads still answer)", rr.Code)
	}
	if payload["degraded"] != true {
		t.Error("degraded flag missing")
	}
	if payload["balance"] != "0" {
		t.Errorf("balance = %v, want 0", payload["balance"])
	}
}

func TestServer_GasEndpoint(t *testing.T) {
	mock := newMockChain()
	mock.gasPrice = big.NewInt(1000000000)
	mock.tip = big.NewInt(1)
	srv, _ := newTestServer(t, mock)

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/gas", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["gasPrice"] != "1000000000" {
		t.Errorf("gasPrice = %v", payload["gasPrice"])
	}
	if payload["maxFeePerGas"] != "2000000001" {
		t.Errorf("maxFeePerGas = %v", payload["maxFeePerGas"])
	}
}

func TestServer_LoginRoundTrip(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/login",
		`{"walletAddress":"`+testAddress+`","deviceInfo":"test-suite","location":"local"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d", rr.Code)
	}

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/logins/"+testAddress, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("history status = %d", rr.Code)
	}
	if payload["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", payload["count"])
	}
	logins, _ := payload["logins"].([]any)
	entry, _ := logins[0].(map[string]any)
	if entry["event"] != "login" {
		t.Errorf("event = %v, want login (default)", entry["event"])
	}
}

func TestServer_LoginRequiresAddress(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)

	rr, _ := doJSON(t, srv.Handler(), http.MethodPost, "/api/login", `{"deviceInfo":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestServer_Health(t *testing.T) {
	mock := newMockChain()
	srv, _ := newTestServer(t, mock)
	srv.checks = []HealthCheck{
		{Name: "ok", Check: func(ctx context.Context) error { return nil }},
	}

	rr, payload := doJSON(t, srv.Handler(), http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload["status"] != "ok" {
		t.Errorf("status = %v", payload["status"])
	}
	if payload["wallet"] != testAddress {
		t.Errorf("wallet = %v", payload["wallet"])
	}

	srv.checks = append(srv.checks, HealthCheck{
		Name:  "db",
		Check: func(ctx context.Context) error { return errors.New("connection refused") },
	})
	_, payload = doJSON(t, srv.Handler(), http.MethodGet, "/api/health", "")
	if payload["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", payload["status"])
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", defaultHistoryLimit},
		{"10", 10},
		{"0", defaultHistoryLimit},
		{"-5", defaultHistoryLimit},
		{"junk", defaultHistoryLimit},
		{"9999", maxHistoryLimit},
	}
	for _, tc := range cases {
		if got := parseLimit(tc.in); got != tc.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
