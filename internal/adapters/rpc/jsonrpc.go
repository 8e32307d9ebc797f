package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorizeRPC(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := s.extractRPCToken(r)
	started := time.Now()
	if !s.rpcLimiter.Allow(rpcRateLimitKey(r, token), started) {
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcCodeRateLimited, Message: "rate limit exceeded"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if rpcErr := validateRPCAPIVersion(req.APIVersion); rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	cacheKey := rpcIdempotencyKey(r.Header.Get(rpcIdempotencyHeader), token)
	requestHash := ""
	if cacheKey != "" {
		requestHash = rpcRequestHash(req)
		cached, hit, conflict := s.idempotency.get(cacheKey, requestHash, started)
		if conflict {
			writeRPC(w, rpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: rpcCodeIdempotencyConflict, Message: "idempotency key reused with a different request"},
			})
			return
		}
		if hit {
			cached.ID = req.ID
			writeRPC(w, cached)
			return
		}
	}

	reqID := fmt.Sprintf("rpc_%d", started.UnixNano())
	s.logger.Info("rpc request", "component", "rpc", "request_id", reqID, "method", req.Method, "rpc_id", string(req.ID))
	result, rpcErr := s.dispatchRPC(r, req.Method, req.Params)
	if rpcErr != nil {
		s.logger.Error("rpc failed", "component", "rpc", "request_id", reqID, "method", req.Method, "rpc_code", rpcErr.Code, "latency_ms", time.Since(started).Milliseconds())
	} else {
		s.logger.Info("rpc response", "component", "rpc", "request_id", reqID, "method", req.Method, "latency_ms", time.Since(started).Milliseconds())
	}
	resp := rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	}
	if cacheKey != "" {
		s.idempotency.set(cacheKey, requestHash, resp, time.Now())
	}
	writeRPC(w, resp)
}

func (s *Server) dispatchRPC(r *http.Request, method string, rawParams json.RawMessage) (any, *rpcError) {
	ctx := r.Context()
	switch method {
	case "health_check":
		return map[string]any{"status": "ok", "api": rpcVersionInfo()}, nil
	case "bot.command":
		ev, err := decodeCommandParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		ev.Message = s.outbox.NextRef(ev.RequesterID)
		return handlerResult(ev.Message, s.service.HandleCommand(ctx, ev))
	case "bot.text":
		ev, err := decodeTextParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		ev.Message = s.outbox.NextRef(ev.RequesterID)
		return handlerResult(ev.Message, s.service.HandleText(ctx, ev))
	case "bot.upload":
		ev, err := decodeUploadParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		ev.Message = s.outbox.NextRef(ev.RequesterID)
		return handlerResult(ev.Message, s.service.HandleUpload(ctx, ev))
	case "bot.choice":
		ev, err := decodeChoiceParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		return handlerResult(ev.Message, s.service.HandleChoice(ctx, ev))
	default:
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}
