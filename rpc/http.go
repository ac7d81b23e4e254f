package rpc

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stipend/core"
	"stipend/native/common"
	"stipend/native/membership"
	"stipend/native/stipend"
	"stipend/native/token"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the node over a single JSON-RPC endpoint. Admin methods
// require the configured bearer token.
type Server struct {
	node      *core.Node
	authToken string
}

// NewServer constructs an RPC server. An empty authToken disables every
// admin method.
func NewServer(node *core.Node, authToken string) *Server {
	return &Server{node: node, authToken: strings.TrimSpace(authToken)}
}

// Router returns the HTTP handler serving the RPC endpoint plus the health
// and metrics routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message, Data: data}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "unable to read request body", err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}
	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "stipend_claim":
		s.handleClaim(w, req)
	case "stipend_withdraw":
		s.handleWithdraw(w, req)
	case "stipend_participant":
		s.handleParticipant(w, req)
	case "stipend_poolStats":
		s.handlePoolStats(w, req)
	case "stipend_unclaimed":
		s.handleUnclaimed(w, req)
	case "stipend_sweep":
		s.requireAdmin(w, r, req, s.handleSweep)
	case "stipend_setTreasury":
		s.requireAdmin(w, r, req, s.handleSetTreasury)
	case "stipend_setHalt":
		s.requireAdmin(w, r, req, s.handleSetHalt)
	case "stipend_pause":
		s.requireAdmin(w, r, req, s.handlePause)
	case "stipend_unpause":
		s.requireAdmin(w, r, req, s.handleUnpause)
	case "membership_issue":
		s.requireAdmin(w, r, req, s.handleMembershipIssue)
	case "membership_owner":
		s.handleMembershipOwner(w, req)
	case "membership_of":
		s.handleMembershipOf(w, req)
	case "token_balance":
		s.handleTokenBalance(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request, req *RPCRequest, next func(http.ResponseWriter, *RPCRequest)) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "admin token required", nil)
		return
	}
	next(w, req)
}

// writeEngineError maps module errors onto JSON-RPC error codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusBadRequest
	code := codeServerError
	switch {
	case errors.Is(err, stipend.ErrPermissionDenied):
		status = http.StatusForbidden
		code = codeUnauthorized
	case errors.Is(err, stipend.ErrInvalidArgument),
		errors.Is(err, membership.ErrInvalidOwner),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidRecipient):
		code = codeInvalidParams
	case errors.Is(err, stipend.ErrNotYetOpen),
		errors.Is(err, stipend.ErrScheduleEnded),
		errors.Is(err, stipend.ErrAlreadyClaimed),
		errors.Is(err, stipend.ErrPopulationZero),
		errors.Is(err, stipend.ErrPeriodBudgetExhausted),
		errors.Is(err, stipend.ErrInsufficientBalance),
		errors.Is(err, stipend.ErrAlreadySwept),
		errors.Is(err, stipend.ErrPeriodNotElapsed),
		errors.Is(err, stipend.ErrHalted),
		errors.Is(err, stipend.ErrReentrantCall),
		errors.Is(err, common.ErrModulePaused),
		errors.Is(err, membership.ErrAlreadyIssued),
		errors.Is(err, membership.ErrNotIssued):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address length %d", len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

func hexAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
