package http

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"chaindetect/internal/application/port"
	"chaindetect/internal/pkg/apperrors"
)

// DetectHandler exposes the detection engine over HTTP.
type DetectHandler struct {
	service port.DetectService
	logger  *zap.Logger
}

// NewDetectHandler creates a new detection handler instance.
func NewDetectHandler(service port.DetectService, logger *zap.Logger) *DetectHandler {
	return &DetectHandler{
		service: service,
		logger:  logger.Named("DetectHandler"),
	}
}

// Detect handles GET /detect?q=<input> requests.
func (h *DetectHandler) Detect(ctx *fasthttp.RequestCtx) {
	query := string(ctx.QueryArgs().Peek("q"))
	if query == "" {
		ctx.Error("Bad Request: missing 'q' query parameter", fasthttp.StatusBadRequest)
		return
	}

	result, err := h.service.Detect(ctx, query)
	if err != nil {
		if errors.Is(err, apperrors.ErrRateLimited) {
			h.logger.Warn("Detection rate limited", zap.String("input", query))
			ctx.Error("Too Many Requests", fasthttp.StatusTooManyRequests)
			return
		}
		h.logger.Error("Detection failed", zap.String("input", query), zap.Error(err))
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(result); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
