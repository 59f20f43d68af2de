package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/relay/internal/core/domain"
	"github.com/vietddude/relay/internal/core/units"
	"github.com/vietddude/relay/internal/ledger"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HealthCheck probes one dependency. Name appears in logs only; the HTTP
// health payload stays in the documented shape.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server provides the relay's HTTP endpoints.
type Server struct {
	engine   *Engine
	oracle   *Oracle
	txLog    ledger.TransactionLedger
	loginLog ledger.LoginLedger
	network  string
	checks   []HealthCheck
	server   *http.Server
	log      *slog.Logger
}

// NewServer creates the HTTP server and wires its routes.
func NewServer(
	port int,
	engine *Engine,
	oracle *Oracle,
	txLog ledger.TransactionLedger,
	loginLog ledger.LoginLedger,
	network string,
	checks []HealthCheck,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		engine:   engine,
		oracle:   oracle,
		txLog:    txLog,
		loginLog: loginLog,
		network:  network,
		checks:   checks,
		log:      log,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	mux.HandleFunc("GET /api/wallet/balance", s.handleBalance)
	mux.HandleFunc("GET /api/gas", s.handleGas)
	mux.HandleFunc("POST /api/transaction", s.handleTransfer)
	mux.HandleFunc("GET /api/transactions/{address}", s.handleTransactionHistory)
	mux.HandleFunc("GET /api/transaction/{hash}", s.handleTransactionByHash)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/logins/{address}", s.handleLoginHistory)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler exposes the route tree (used by tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	reading := s.oracle.Balance(r.Context(), s.engine.signer.Address())

	resp := map[string]any{
		"success":    true,
		"address":    s.engine.signer.Address(),
		"balance":    units.FormatWei(reading.Wei),
		"balanceWei": reading.Wei.String(),
	}
	if reading.Degraded {
		resp["degraded"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	reading := s.oracle.Fees(r.Context())

	resp := map[string]any{
		"success":  true,
		"gasPrice": reading.GasPrice.String(),
	}
	if reading.MaxFeePerGas != nil {
		resp["maxFeePerGas"] = reading.MaxFeePerGas.String()
	}
	if reading.MaxPriorityFeePerGas != nil {
		resp["maxPriorityFeePerGas"] = reading.MaxPriorityFeePerGas.String()
	}
	if reading.Degraded {
		resp["degraded"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var intent domain.TransferIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := s.engine.Transfer(r.Context(), intent, clientIP(r))
	if err != nil {
		s.writeTransferError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"txHash":            result.TxHash,
		"blockNumber":       result.BlockNumber,
		"gasUsed":           result.GasUsed,
		"effectiveGasPrice": result.EffectiveGasPrice,
		"status":            string(result.Status),
		"explorerUrl":       result.ExplorerURL,
	})
}

// writeTransferError maps pipeline errors onto the documented HTTP codes:
// admission failures are 400, everything past admission is 500. A mined
// transaction with a failure flag never reaches here; that is a 200.
func (s *Server) writeTransferError(w http.ResponseWriter, err error) {
	if ve, ok := domain.AsValidationError(err); ok {
		writeError(w, http.StatusBadRequest, ve.Error(), ve.Field)
		return
	}
	if errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrInsufficientBalanceForFees) {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	var timeout *ErrConfirmTimeout
	if errors.As(err, &timeout) {
		writeError(w, http.StatusInternalServerError, "transaction failed", timeout.Error())
		return
	}

	s.log.Error("transfer failed", "error", err)
	writeError(w, http.StatusInternalServerError, "transaction failed", err.Error())
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	limit := parseLimit(r.URL.Query().Get("limit"))

	recs, err := s.txLog.ListByAddress(r.Context(), address, limit)
	if err != nil {
		s.log.Error("transaction history read failed", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read transaction history", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": recs,
		"count":        len(recs),
	})
}

func (s *Server) handleTransactionByHash(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")

	rec, err := s.txLog.GetByHash(r.Context(), hash)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found", "")
		return
	}
	if err != nil {
		s.log.Error("transaction lookup failed", "hash", hash, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read transaction", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"transaction": rec,
	})
}

type loginRequest struct {
	WalletAddress string `json:"walletAddress"`
	DeviceInfo    string `json:"deviceInfo"`
	Location      string `json:"location"`
	Event         string `json:"event"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "walletAddress is required", "")
		return
	}
	if req.Event == "" {
		req.Event = "login"
	}

	rec := &domain.LoginRecord{
		Timestamp:     time.Now().UTC(),
		IPAddress:     clientIP(r),
		WalletAddress: req.WalletAddress,
		DeviceInfo:    req.DeviceInfo,
		Location:      req.Location,
		Event:         req.Event,
	}
	if err := s.loginLog.Append(r.Context(), rec); err != nil {
		s.log.Error("login record write failed", "address", req.WalletAddress, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record login", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLoginHistory(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	limit := parseLimit(r.URL.Query().Get("limit"))

	recs, err := s.loginLog.ListByAddress(r.Context(), address, limit)
	if err != nil {
		s.log.Error("login history read failed", "address", address, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read login history", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"logins":  recs,
		"count":   len(recs),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.checks {
		g.Go(func() error {
			if err := c.Check(gctx); err != nil {
				s.log.Warn("health check failed", "check", c.Name, "error", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"wallet":    s.engine.signer.Address(),
		"network":   s.network,
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultHistoryLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg, details string) {
	resp := map[string]any{
		"success": false,
		"error":   msg,
	}
	if details != "" {
		resp["details"] = details
	}
	writeJSON(w, code, resp)
}
