package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
	"github.com/paygrid/tx_engine_app/internal/dto"
	"github.com/paygrid/tx_engine_app/internal/middleware"
	"github.com/paygrid/tx_engine_app/internal/platform/config"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
)

// transactionHandler handles HTTP requests that feed the stream processor.
type transactionHandler struct {
	processor portssvc.TxProcessorSvc
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(processor portssvc.TxProcessorSvc) *transactionHandler {
	return &transactionHandler{processor: processor}
}

// registerTransactionRoutes registers the ingest and stats routes.
func registerTransactionRoutes(rg *gin.RouterGroup, cfg *config.Config, processor portssvc.TxProcessorSvc, ingestLimiter *limiter.Limiter, cache *redis.Client) {
	h := newTransactionHandler(processor)

	ingest := []gin.HandlerFunc{middleware.RateLimit(ingestLimiter)}
	if cache != nil {
		ingest = append(ingest, middleware.Idempotency(cache, cfg.IdempotencyTTL))
	}
	ingest = append(ingest, h.submitTransaction)

	rg.POST("/transactions", ingest...)
	rg.GET("/stats", h.getStats)
}

// submitTransaction applies one transaction record to the engine. Rejections
// are reported to the caller but are never fatal: engine state is exactly as
// it was before the rejected record.
func (h *transactionHandler) submitTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SubmitTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	record, err := req.ToDomain()
	if err != nil {
		logger.Warn("Malformed transaction record", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.TransactionRejectedResponse{
			Status:   "rejected",
			Category: domain.OutcomeMalformed,
			Error:    err.Error(),
		})
		return
	}

	logger = logger.With(
		slog.String("type", string(record.Type)),
		slog.Uint64("client_id", uint64(record.ClientID)),
		slog.Uint64("tx_id", uint64(record.TxID)),
	)

	if err := h.processor.Process(c.Request.Context(), record); err != nil {
		category := categoryForError(err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, apperrors.ErrMalformedRecord) {
			status = http.StatusBadRequest
		}
		logger.Warn("Transaction rejected",
			slog.String("category", category),
			slog.String("error", err.Error()))
		c.JSON(status, dto.TransactionRejectedResponse{
			Status:   "rejected",
			Category: category,
			Error:    err.Error(),
		})
		return
	}

	logger.Info("Transaction applied")
	c.JSON(http.StatusCreated, dto.TransactionAcceptedResponse{
		Status:   "applied",
		TxID:     record.TxID,
		ClientID: record.ClientID,
	})
}

// getStats returns the processor's per-outcome counters.
func (h *transactionHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToStatsResponse(h.processor.Stats()))
}

func categoryForError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return domain.OutcomeInsufficientFunds
	case errors.Is(err, apperrors.ErrAccountLocked):
		return domain.OutcomeAccountLocked
	case errors.Is(err, apperrors.ErrUnknownReference):
		return domain.OutcomeUnknownReference
	case errors.Is(err, apperrors.ErrDuplicateTransaction):
		return domain.OutcomeDuplicateTx
	default:
		return domain.OutcomeMalformed
	}
}
