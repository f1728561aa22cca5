// Package gateway serves a development proxy in front of the SICALI backend,
// plus health, metrics, docs and export download endpoints.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/middleware"
	"github.com/noah-isme/sicali-client/pkg/config"
	"github.com/noah-isme/sicali-client/pkg/logger"
	corsmiddleware "github.com/noah-isme/sicali-client/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sicali-client/pkg/middleware/requestid"
)

// NewRouter builds the gateway engine around a.
func NewRouter(a *app.App) (*gin.Engine, error) {
	cfg := a.Config
	target, err := url.Parse(cfg.API.BaseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid API_BASE_URL %q", cfg.API.BaseURL)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	h := NewHandler(target, a.Client, a.Wait, a.Signer, a.Files, a.Logger.Named("gateway"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	r.GET("/exports/:token", h.Download)
	r.Any("/api/*path", h.Proxy)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
