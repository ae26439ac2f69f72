package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sectorrotation/internal/config"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/logger"
	l1_service "sectorrotation/internal/service/l1"
	l3_service "sectorrotation/internal/service/l3"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApiHandler struct {
	// strategy settings requests are applied on top of
	Defaults        config.Config
	BacktestService l3_service.BacktestService
	HoldingsService l1_service.HoldingsService
	// released by cmd.CloseDependencies
	Closer func() error
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to sectorrotation"})
	})
	router.POST("/backtest", m.backtest)
	router.POST("/current", m.currentSelection)
	router.GET("/holdings/:sector", m.holdings)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	code := http.StatusInternalServerError
	if errors.As(err, &domain.ConfigError{}) {
		code = http.StatusBadRequest
	}
	returnErrorJsonCode(err, c, code)
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.FromContext(c.Request.Context()).Errorw("request failed", "status", code, "error", err.Error())
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// logRequestMiddleware tags every request with an id and a request-scoped
// logger, then logs the outcome once the handler returns
func (m ApiHandler) logRequestMiddleware(ctx *gin.Context) {
	w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: ctx.Writer}
	ctx.Writer = w

	requestID := uuid.New()
	ctx.Set("requestID", requestID.String())
	lg := zap.S().With("requestID", requestID.String())
	ctx.Request = ctx.Request.WithContext(logger.WithContext(ctx.Request.Context(), lg))

	start := time.Now().UTC()
	ctx.Next()

	lg.Infow(
		"handled request",
		"method", ctx.Request.Method,
		"route", ctx.FullPath(),
		"status", ctx.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"responseBytes", w.body.Len(),
	)
}
