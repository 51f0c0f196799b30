package api

import (
	"context"
	"net/http"
	"time"

	"ADRFeed/internal/domain/models"
	xlogger "ADRFeed/pkg/logger"
	"ADRFeed/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	serviceMessage = "Calculadora ADRs Backend v2.5"
	serviceVersion = "2.5"
	serviceMode    = "production"
	neverUpdated   = "never"
)

// Endpoints is the route list advertised by the index route.
var Endpoints = []string{
	"/api/market-data",
	"/api/health",
	"/api/update",
	"/api/vix",
	"/api/gold",
	"/api/iron",
	"/api/adrs",
	"/api/macro",
}

// MarketService is what the HTTP layer needs from the refresher.
type MarketService interface {
	Snapshot() *models.MarketSnapshot
	Refresh(ctx context.Context) *models.MarketSnapshot
}

// MarketEchoHandler serves the market snapshot over Echo.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	service MarketService
	stream  *StreamHub
	path    string
	now     func() time.Time
}

func NewMarketEchoHandler(logger *xlogger.Logger, service MarketService) *MarketEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketEchoHandler{logger: logger, service: service, now: time.Now}
}

// WithStream registers hub on path. A nil hub leaves the route out.
func (h *MarketEchoHandler) WithStream(hub *StreamHub, path string) *MarketEchoHandler {
	h.stream = hub
	h.path = path
	return h
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)

	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/market-data", h.MarketData)
	g.GET("/update", h.Update)
	g.GET("/vix", h.slot(models.SlotVIX))
	g.GET("/gold", h.slot(models.SlotGold))
	g.GET("/iron", h.slot(models.SlotIron))
	g.GET("/adrs", h.ADRs)
	g.GET("/macro", h.Macro)

	if h.stream != nil && h.path != "" {
		e.GET(h.path, h.stream.Handle)
	}
}

func (h *MarketEchoHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, models.IndexResponse{
		Message:   serviceMessage,
		Status:    "online",
		Endpoints: Endpoints,
	})
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	snap := h.service.Snapshot()
	last := snap.Timestamp
	if last == "" {
		last = neverUpdated
	}
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Timestamp:  util.FormatISO(h.now()),
		DataStatus: string(snap.Status),
		LastUpdate: last,
		Mode:       serviceMode,
		Version:    serviceVersion,
	})
}

func (h *MarketEchoHandler) MarketData(c echo.Context) error {
	return c.JSON(http.StatusOK, marketDataResponse(h.service.Snapshot(), h.now()))
}

// Update runs a refresh cycle before answering. The cycle is detached from
// the request so a client disconnect does not abort it.
func (h *MarketEchoHandler) Update(c echo.Context) error {
	start := h.now()
	snap := h.service.Refresh(context.WithoutCancel(c.Request().Context()))
	h.logger.Info("manual refresh",
		xlogger.String("data_status", string(snap.Status)),
		xlogger.Duration("duration_ms", h.now().Sub(start)),
	)
	return c.JSON(http.StatusOK, models.UpdateResponse{
		Status:    "updated",
		Timestamp: util.FormatISO(h.now()),
	})
}

func (h *MarketEchoHandler) slot(name models.Slot) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.EntryOrEmpty(h.service.Snapshot().Slot(name)))
	}
}

func (h *MarketEchoHandler) ADRs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Snapshot().ADRs)
}

func (h *MarketEchoHandler) Macro(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Snapshot().Macro)
}

// marketDataResponse falls back to now when the snapshot was never refreshed.
func marketDataResponse(snap *models.MarketSnapshot, now time.Time) models.MarketDataResponse {
	ts := snap.Timestamp
	if ts == "" {
		ts = util.FormatISO(now)
	}
	return models.MarketDataResponse{
		Status:    "success",
		Timestamp: ts,
		Data:      snap.Data(),
	}
}
