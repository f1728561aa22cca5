package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/export"
	"github.com/noah-isme/sicali-client/pkg/httpclient"
	"github.com/noah-isme/sicali-client/pkg/response"
)

const (
	readyProbePath = "/ciclos"
	readyTimeout   = 5 * time.Second
)

type backendProber interface {
	Get(ctx context.Context, path string, query url.Values) (*httpclient.Result, error)
}

type linkParser interface {
	Parse(token string) (string, time.Time, error)
}

type fileLocator interface {
	Path(name string) string
}

// Handler serves the gateway's own endpoints and forwards /api to the backend.
type Handler struct {
	backend    backendProber
	storeReady func(ctx context.Context) error
	links      linkParser
	files      fileLocator
	proxy      *httputil.ReverseProxy
	logger     *zap.Logger
}

// NewHandler constructs a Handler forwarding to target. storeReady may be nil.
func NewHandler(target *url.URL, backend backendProber, storeReady func(ctx context.Context) error, links linkParser, files fileLocator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		backend:    backend,
		storeReady: storeReady,
		links:      links,
		files:      files,
		logger:     logger,
	}
	h.proxy = newProxy(target, logger)
	return h
}

// Health responds with a generic OK payload.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports ready once the session store answered and the backend serves
// the cycle list.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if h.storeReady != nil {
		if err := h.storeReady(ctx); err != nil {
			h.logger.Warn("readiness: session store", zap.Error(err))
			response.Error(c, appErrors.Wrap(err, "STORE_UNAVAILABLE", http.StatusServiceUnavailable, "session store unavailable"))
			return
		}
	}

	res, err := h.backend.Get(ctx, readyProbePath, nil)
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		h.logger.Warn("readiness: backend", zap.Error(err))
		cause := appErrors.FromError(err)
		response.Error(c, appErrors.Wrap(err, cause.Code, http.StatusServiceUnavailable, cause.Message))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Download serves a stored export named by a signed link token.
func (h *Handler) Download(c *gin.Context) {
	name, _, err := h.links.Parse(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusForbidden, "Enlace de descarga inválido o expirado"))
		return
	}

	file := h.files.Path(name)
	if file == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Archivo no encontrado"))
		return
	}
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Archivo no encontrado"))
			return
		}
		response.Error(c, err)
		return
	}

	if format, err := export.ParseFormat(strings.TrimPrefix(path.Ext(name), ".")); err == nil {
		c.Header("Content-Type", format.ContentType())
	}
	c.FileAttachment(file, path.Base(name))
}

// Proxy forwards /api/* to the backend with the /api prefix removed.
func (h *Handler) Proxy(c *gin.Context) {
	h.proxy.ServeHTTP(c.Writer, c.Request)
}

func newProxy(target *url.URL, logger *zap.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		req.URL.Path = strings.TrimPrefix(req.URL.Path, "/api")
		if req.URL.RawPath != "" {
			req.URL.RawPath = strings.TrimPrefix(req.URL.RawPath, "/api")
		}
		director(req)
		req.Host = target.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logger.Warn("proxy request failed", zap.String("path", req.URL.Path), zap.Error(err))
		status := http.StatusBadGateway
		appErr := appErrors.Wrap(err, appErrors.ErrNetwork.Code, status, appErrors.ErrNetwork.Message)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			appErr = appErrors.Wrap(err, appErrors.ErrTimeout.Code, status, appErrors.ErrTimeout.Message)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = writeJSON(w, response.Envelope{Error: appErr})
	}
	return proxy
}
