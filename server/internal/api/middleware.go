package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const ctxRequestID = "request_id"

// unmatchedRoute labels requests that hit no registered route so that
// arbitrary paths cannot blow up metric cardinality.
const unmatchedRoute = "unmatched"

// requestID reuses the caller's X-Request-ID or mints a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "api: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"bytes", c.Writer.Size(),
			"took", time.Since(start),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

// observe is a no-op unless the handler was built WithMetrics.
func (h *Handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		h.metrics.ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := fmt.Sprint(recovered)
		slog.Error("api: handler panicked",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"err", msg,
			"request_id", c.GetString(ctxRequestID),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error:   msgInternal,
			Message: msg,
			Path:    c.Request.URL.Path,
		})
	})
}

// cors allows any origin to read. Preflights are answered here.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
		c.Header("Access-Control-Expose-Headers", HeaderRequestID)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func notFound(c *gin.Context) {
	slog.Warn("api: route not found", "method", c.Request.Method, "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, errorResponse{
		Error:   msgNotFound,
		Message: fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path),
		Path:    c.Request.URL.Path,
	})
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllowed})
}
