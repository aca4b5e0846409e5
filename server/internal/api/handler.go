package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/botdeck/botdeck/pkg/paginate"
	"github.com/botdeck/botdeck/server/internal/metrics"
	"github.com/botdeck/botdeck/server/internal/query"
)

// Handler is the HTTP handler for the whole API.
// It reads bots, workers and logs through the query service.
type Handler struct {
	svc    *query.Service
	engine *gin.Engine

	metrics     *metrics.Metrics
	metricsPath string

	shuttingDown atomic.Bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records request metrics into m and serves its registry at path.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(h *Handler) {
		h.metrics = m
		h.metricsPath = path
	}
}

// New creates a Handler wired to svc and registers all routes.
func New(svc *query.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc}
	for _, opt := range opts {
		opt(h)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestID(), accessLog(), h.observe(), recovery(), cors())
	r.NoRoute(notFound)
	r.NoMethod(methodNotAllowed)

	r.GET("/", h.health)
	r.GET("/health", h.health)

	bots := r.Group("/bots")
	bots.GET("", h.listBots)
	bot := bots.Group("/:bid")
	bot.GET("", h.getBot)
	bot.GET("/workers", h.listWorkersOfBot)
	bot.GET("/logs", h.listLogsOfBot)
	bot.GET("/workers/:wid/logs", h.listLogsOfWorker)

	if h.metrics != nil && h.metricsPath != "" {
		r.GET(h.metricsPath, gin.WrapH(metrics.Handler(h.metrics.Registry())))
	}

	h.engine = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

// SetShuttingDown makes the health endpoints report 503 while v is true.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(c *gin.Context) {
	if h.shuttingDown.Load() {
		slog.Debug("api: health hit during shutdown")
		c.String(http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	c.String(http.StatusOK, "OK")
}

// listBots returns GET /bots.
func (h *Handler) listBots(c *gin.Context) {
	res := h.svc.ListBots(pageParams(c))
	slog.Info("api: bots listed",
		"returned", len(res.Data), "total", res.Pagination.Total, "page", res.Pagination.Page)
	c.JSON(http.StatusOK, res)
}

// getBot returns GET /bots/:bid.
func (h *Handler) getBot(c *gin.Context) {
	bid := c.Param("bid")
	b, ok := h.svc.GetBot(bid)
	if !ok {
		botNotFound(c, bid)
		return
	}
	c.JSON(http.StatusOK, b)
}

// listWorkersOfBot returns GET /bots/:bid/workers. An unknown bot gets an
// empty page, not a 404.
func (h *Handler) listWorkersOfBot(c *gin.Context) {
	bid := c.Param("bid")
	res := h.svc.ListWorkersOfBot(bid, pageParams(c))
	slog.Info("api: workers listed",
		"bot_id", bid, "returned", len(res.Data), "total", res.Pagination.Total)
	c.JSON(http.StatusOK, res)
}

// listLogsOfBot returns GET /bots/:bid/logs. The bot is only looked up when
// there are no logs for it, to tell "no logs" from "no such bot".
func (h *Handler) listLogsOfBot(c *gin.Context) {
	bid := c.Param("bid")
	res := h.svc.ListLogsOfBot(bid, pageParams(c))
	if res.Pagination.Total == 0 {
		if _, ok := h.svc.GetBot(bid); !ok {
			botNotFound(c, bid)
			return
		}
	}
	slog.Info("api: bot logs listed",
		"bot_id", bid, "returned", len(res.Data), "total", res.Pagination.Total, "page", res.Pagination.Page)
	c.JSON(http.StatusOK, res)
}

// listLogsOfWorker returns GET /bots/:bid/workers/:wid/logs. Only :wid
// selects the logs.
func (h *Handler) listLogsOfWorker(c *gin.Context) {
	wid := c.Param("wid")
	res := h.svc.ListLogsOfWorker(wid, pageParams(c))
	slog.Info("api: worker logs listed",
		"worker_id", wid, "returned", len(res.Data), "total", res.Pagination.Total, "page", res.Pagination.Page)
	c.JSON(http.StatusOK, res)
}

// --- helpers ----------------------------------------------------------------

func pageParams(c *gin.Context) paginate.Params {
	return paginate.ParseParams(c.Query("page"), c.Query("limit"))
}

func botNotFound(c *gin.Context, bid string) {
	slog.Warn("api: bot not found", "bot_id", bid)
	c.JSON(http.StatusNotFound, errorResponse{Error: msgBotNotFound})
}
