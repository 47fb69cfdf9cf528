package web

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// Recover turns a handler panic into a 500 and an error report
func Recover(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					panicErr := errors.Wrapf(errors.ErrInternal, "panic: %v", r)
					log.ErrorWithContext(c.Request().Context(), panicErr, map[string]string{
						"route": c.Path(),
					})
					log.Debugw("Panic stack", "stack", string(debug.Stack()))
					err = echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			return next(c)
		}
	}
}

// RequestLogging logs every request, probes and scrapes at debug level
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := []interface{}{
				"method", req.Method,
				"uri", req.RequestURI,
				"status", c.Response().Status,
				"latency", time.Since(start),
				"remote", c.RealIP(),
			}

			if isProbe(req.URL.Path) {
				log.Debugw("HTTP request", fields...)
			} else {
				log.Infow("HTTP request", fields...)
			}
			return nil
		}
	}
}

// HTTPMetrics records requests by route template to keep label cardinality low
func HTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}
