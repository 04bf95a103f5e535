package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	domainService "chaindetect/internal/domain/service"
	"chaindetect/internal/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.TransactionChecker = (*TxChecker)(nil)

// TxChecker asks a single endpoint whether it knows a transaction hash via
// eth_getTransactionByHash, over HTTP/HTTPS or WS/WSS.
type TxChecker struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewTxChecker creates a new transaction existence checker instance.
func NewTxChecker(cfg config.DetectorConfig, logger *zap.Logger) *TxChecker {
	return &TxChecker{
		client: &fasthttp.Client{
			ReadTimeout: cfg.GetRPCTimeout(),
		},
		logger: logger.Named("TxChecker"),
	}
}

// jsonRPCRequest is the outbound JSON-RPC envelope.
type jsonRPCRequest struct {
	Jsonrpc string   `json:"jsonrpc"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
	ID      int      `json:"id"`
}

// jsonRPCResponse defines the basic structure for a JSON-RPC response.
type jsonRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

// jsonRPCError defines the structure for a JSON-RPC error.
type jsonRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HasTransaction reports whether the endpoint returns a non-null transaction
// object for hash.
func (c *TxChecker) HasTransaction(ctx context.Context, endpoint entity.RPCURL, hash string) (bool, error) {
	payload, err := json.Marshal(jsonRPCRequest{
		Jsonrpc: "2.0",
		Method:  "eth_getTransactionByHash",
		Params:  []string{hash},
		ID:      1,
	})
	if err != nil {
		return false, fmt.Errorf("%w: building tx lookup payload: %v", apperrors.ErrInternal, err)
	}

	if endpoint.IsWebsocket() {
		return c.lookupWS(ctx, endpoint.String(), payload)
	}
	return c.lookupHTTP(ctx, endpoint.String(), payload)
}

// lookupHTTP performs the JSON-RPC lookup over HTTP/HTTPS.
func (c *TxChecker) lookupHTTP(ctx context.Context, rpcURL string, payload []byte) (bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	timeout := c.client.ReadTimeout
	if deadline, hasDeadline := ctx.Deadline(); hasDeadline {
		requestTimeout := time.Until(deadline)
		if requestTimeout > 0 && (timeout <= 0 || requestTimeout < timeout) {
			timeout = requestTimeout
		}
	}

	var requestErr error
	if timeout <= 0 {
		requestErr = c.client.Do(req, resp)
	} else {
		requestErr = c.client.DoTimeout(req, resp, timeout)
	}

	if requestErr != nil {
		if errors.Is(requestErr, fasthttp.ErrTimeout) {
			c.logger.Debug("Tx lookup timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(requestErr),
			)
			return false, fmt.Errorf("%w: tx lookup via %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, requestErr,
			)
		}
		c.logger.Debug("Tx lookup request failed", zap.String("url", rpcURL), zap.Error(requestErr))
		return false, fmt.Errorf("%w: tx lookup via %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, requestErr,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("Tx lookup returned non-OK status",
			zap.String("url", rpcURL), zap.Int("statusCode", resp.StatusCode()),
		)
		return false, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	return c.parseLookupResponse(rpcURL, resp.Body())
}

// lookupWS performs the JSON-RPC lookup over WS/WSS.
func (c *TxChecker) lookupWS(ctx context.Context, rpcURL string, payload []byte) (bool, error) {
	handshakeTimeout := c.client.ReadTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		c.logger.Debug("WS dial failed", zap.String("url", rpcURL), zap.Error(err))
		if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: ws dial to %s timed out: %v", apperrors.ErrTimeout, rpcURL, err)
		}
		return false, fmt.Errorf("%w: ws dial to %s failed: %v", apperrors.ErrExternalServiceFailure, rpcURL, err)
	}
	defer conn.Close()

	operationTimeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < operationTimeout {
			operationTimeout = until
		}
	}
	if operationTimeout <= 0 {
		operationTimeout = 2 * time.Second
	}

	_ = conn.SetWriteDeadline(time.Now().Add(operationTimeout))
	_ = conn.SetReadDeadline(time.Now().Add(operationTimeout))

	if wErr := conn.WriteMessage(websocket.TextMessage, payload); wErr != nil {
		c.logger.Debug("WS write failed", zap.String("url", rpcURL), zap.Error(wErr))
		return false, fmt.Errorf("%w: ws write to %s failed: %v", apperrors.ErrExternalServiceFailure, rpcURL, wErr)
	}

	_, message, rErr := conn.ReadMessage()
	if rErr != nil {
		c.logger.Debug("WS read failed", zap.String("url", rpcURL), zap.Error(rErr))
		if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: ws read from %s timed out: %v", apperrors.ErrTimeout, rpcURL, rErr)
		}
		return false, fmt.Errorf("%w: ws read from %s failed: %v", apperrors.ErrExternalServiceFailure, rpcURL, rErr)
	}

	return c.parseLookupResponse(rpcURL, message)
}

// parseLookupResponse validates the JSON-RPC envelope and reports whether the
// result carries a non-null transaction object.
func (c *TxChecker) parseLookupResponse(rpcURL string, body []byte) (bool, error) {
	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("Tx lookup returned invalid JSON",
			zap.String("url", rpcURL), zap.ByteString("body", body), zap.Error(err),
		)
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("Tx lookup returned JSON-RPC error",
			zap.String("url", rpcURL),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message),
		)
		return false, fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, rpcResp.Error.Code, rpcResp.Error.Message,
		)
	}

	if rpcResp.Jsonrpc != "2.0" {
		c.logger.Debug("Tx lookup returned invalid JSON-RPC structure",
			zap.String("url", rpcURL), zap.ByteString("body", body),
		)
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL,
		)
	}

	// A missing hash comes back as result:null, which is a plain negative.
	if len(rpcResp.Result) == 0 || bytes.Equal(rpcResp.Result, []byte("null")) {
		return false, nil
	}

	return true, nil
}
