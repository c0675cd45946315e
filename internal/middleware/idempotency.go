package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// bodyCaptureWriter tees the response body so it can be replayed for a
// repeated idempotency key.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency enforces idempotent semantics across unsafe HTTP methods by
// persisting responses in Redis keyed by the provided Idempotency-Key header.
// A repeated key replays the stored response instead of reprocessing the
// record; a key whose first request is still in flight answers 409.
func Idempotency(cache *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context())

		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing Idempotency-Key header"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyTimeout)
		defer cancel()

		cacheKey := idempotencyPrefix + key

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request currently processing"})
				return
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("Failed to decode stored idempotent response", slog.String("key", key), slog.String("error", err.Error()))
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
				return
			}

			for header, value := range stored.Headers {
				if strings.EqualFold(header, "Content-Length") {
					continue
				}
				c.Header(header, value)
			}
			c.String(stored.Status, stored.Body)
			c.Abort()
			return
		}

		if err != redis.Nil {
			logger.Error("Idempotency lookup failed", slog.String("key", key), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency store failure"})
			return
		}

		if err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Err(); err != nil {
			logger.Error("Idempotency reservation failed", slog.String("key", key), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency reservation failure"})
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cleanupCancel()

		// Server-side failures are not pinned to the key; the caller may retry.
		if writer.Status() >= http.StatusInternalServerError {
			cache.Del(cleanupCtx, cacheKey) // best effort cleanup
			return
		}

		stored := storedResponse{
			Status:  writer.Status(),
			Body:    writer.body.String(),
			Headers: map[string]string{},
		}
		for header, values := range writer.Header() {
			if len(values) > 0 {
				stored.Headers[header] = values[0]
			}
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("Failed to encode idempotent response", slog.String("key", key), slog.String("error", err.Error()))
			cache.Del(cleanupCtx, cacheKey)
			return
		}

		if err := cache.Set(cleanupCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("Failed to persist idempotent response", slog.String("key", key), slog.String("error", err.Error()))
			cache.Del(cleanupCtx, cacheKey)
		}
	}
}
