package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	models "BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	"BarPull/internal/usecase"
	"BarPull/pkg/cache"
	xhttp "BarPull/pkg/http"
	xlogger "BarPull/pkg/logger"
	xutil "BarPull/pkg/util"
)

// BarsEchoHandler serves stored bars and triggers ingestion runs.
type BarsEchoHandler struct {
	logger  *xlogger.Logger
	bars    *usecase.BarsUseCase
	ingest  *usecase.IngestUseCase
	manager *usecase.DataManager
	replay  *usecase.ReplayUseCase
	cache   cache.Service
	ttl     time.Duration
	now     func() time.Time
}

// HandlerOption configures BarsEchoHandler.
type HandlerOption func(*BarsEchoHandler)

// WithLatestCache caches latest-bar responses for ttl. A nil cache disables it.
func WithLatestCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *BarsEchoHandler) {
		h.cache = c
		h.ttl = ttl
	}
}

// WithReplay enables POST /api/replay.
func WithReplay(r *usecase.ReplayUseCase) HandlerOption {
	return func(h *BarsEchoHandler) {
		h.replay = r
	}
}

func NewBarsEchoHandler(
	logger *xlogger.Logger,
	bars *usecase.BarsUseCase,
	ingest *usecase.IngestUseCase,
	manager *usecase.DataManager,
	opts ...HandlerOption,
) *BarsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &BarsEchoHandler{logger: logger, bars: bars, ingest: ingest, manager: manager, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BarsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bars", h.GetBars)
	g.GET("/bars/latest", h.Latest)
	g.POST("/ingest", h.Ingest)
	g.GET("/providers", h.Providers)
	if h.replay != nil {
		g.POST("/replay", h.Replay)
	}
}

func (h *BarsEchoHandler) GetBars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	from, ok := xutil.ParseTime(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("from: unrecognized time %q", req.From))
	}
	to := h.now().UTC()
	if req.To != "" {
		if to, ok = xutil.ParseTime(req.To); !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("to: unrecognized time %q", req.To))
		}
	}
	iv := domrepo.Interval(req.Interval)
	from, to = xutil.AlignRange(from, to, iv.Duration())

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Provider: req.Provider,
		Symbol:   req.Symbol,
		Interval: iv,
		From:     from,
		To:       to,
		Limit:    req.Limit,
	})
	if err != nil {
		return h.fail(c, "get bars", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BarsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestBarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	ctx := c.Request().Context()
	key := latestKey(req.Provider, req.Symbol, req.Interval)

	if h.cache != nil {
		if bar, err := cache.GetJSON[models.Bar](ctx, h.cache, key); err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.SuccessResponse(c, bar)
		}
	}

	bar, err := h.bars.Latest(ctx, req.Provider, req.Symbol, domrepo.Interval(req.Interval))
	if err != nil {
		return h.fail(c, "latest bar", err)
	}
	if h.cache != nil {
		if err := cache.SetJSON(ctx, h.cache, key, bar, h.ttl); err != nil {
			h.logger.Warn("latest bar cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return xhttp.SuccessResponse(c, bar)
}

func (h *BarsEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	params := models.FetchParams{Symbol: req.Symbol, Interval: req.Interval, Limit: req.Limit}
	var ok bool
	if req.From != "" {
		if params.From, ok = xutil.ParseTime(req.From); !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("from: unrecognized time %q", req.From))
		}
	}
	if req.To != "" {
		if params.To, ok = xutil.ParseTime(req.To); !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("to: unrecognized time %q", req.To))
		}
	}

	ctx := c.Request().Context()
	report, err := h.ingest.Ingest(ctx, req.Provider, params)
	if err != nil {
		return h.fail(c, "ingest", err)
	}
	if report.Stored > 0 {
		h.invalidateLatest(c, report.Provider, report.Symbol, report.Interval)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *BarsEchoHandler) Replay(c echo.Context) error {
	req := &models.ReplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	report, err := h.replay.Replay(c.Request().Context(), req.Provider, req.Symbol, domrepo.Interval(req.Interval))
	if err != nil {
		return h.fail(c, "replay", err)
	}
	if report.Stored > 0 {
		h.invalidateLatest(c, report.Provider, report.Symbol, report.Interval)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *BarsEchoHandler) invalidateLatest(c echo.Context, provider, symbol, interval string) {
	if h.cache == nil {
		return
	}
	key := latestKey(provider, symbol, interval)
	if err := h.cache.Delete(c.Request().Context(), key); err != nil {
		h.logger.Warn("latest bar cache invalidation failed", xlogger.String("key", key), xlogger.Error(err))
	}
}

func (h *BarsEchoHandler) Providers(c echo.Context) error {
	names := h.manager.Providers()
	return xhttp.ListResponse(c, names, int64(len(names)))
}

func (h *BarsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain error kinds to distinct HTTP codes.
func toAppError(err error) *xhttp.AppError {
	var (
		appErr   *xhttp.AppError
		paramErr *models.ParamError
		fetchErr *models.DataFetchError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrUnknownProvider):
		return xhttp.NewAppError(xhttp.CodeUnknownProvider, "provider", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &paramErr):
		return xhttp.NewAppError(xhttp.CodeBadRequest, paramErr.Field, err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrInvalidQuery):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.As(err, &fetchErr):
		return xhttp.NewAppError(xhttp.CodeDataFetch, "", err.Error(), http.StatusBadGateway).
			WithParam("provider", fetchErr.Provider).WithError(err)
	case errors.Is(err, models.ErrSchema):
		return xhttp.NewAppError(xhttp.CodeSchema, "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrBarNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func latestKey(provider, symbol, interval string) string {
	return cache.Key("latest",
		strings.ToLower(strings.TrimSpace(provider)),
		strings.ToUpper(strings.TrimSpace(symbol)),
		interval,
	)
}
