package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paygrid/tx_engine_app/internal/apperrors"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
	"github.com/paygrid/tx_engine_app/internal/dto"
	"github.com/paygrid/tx_engine_app/internal/middleware"
)

// accountHandler handles HTTP requests for account snapshots.
type accountHandler struct {
	processor portssvc.TxProcessorSvc
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(processor portssvc.TxProcessorSvc) *accountHandler {
	return &accountHandler{processor: processor}
}

// registerAccountRoutes registers routes related to account snapshots.
func registerAccountRoutes(rg *gin.RouterGroup, processor portssvc.TxProcessorSvc) {
	h := newAccountHandler(processor)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.GET("/:clientID", h.getAccount)
	}
}

// listAccounts returns a snapshot of every account touched so far, sorted by
// client id.
func (h *accountHandler) listAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToListAccountsResponse(h.processor.Snapshots()))
}

// getAccount returns one client's snapshot.
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	clientID, err := strconv.ParseUint(c.Param("clientID"), 10, 16)
	if err != nil {
		logger.Warn("Invalid client id", slog.String("client_id", c.Param("clientID")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "client id must be an integer between 0 and 65535"})
		return
	}

	snap, err := h.processor.Snapshot(uint16(clientID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown client"})
			return
		}
		logger.Error("Failed to fetch account snapshot", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch account"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(snap))
}
