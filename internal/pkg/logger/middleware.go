package logger

import (
	"time"

	"github.com/labstack/echo/v4"
)

// EchoMiddleware logs each HTTP request with latency and status, choosing the
// log level from the response code.
func EchoMiddleware(l *ZapLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			path := c.Request().URL.Path
			if raw := c.Request().URL.RawQuery; raw != "" {
				path = path + "?" + raw
			}

			err := next(c)

			latency := time.Since(start)
			status := c.Response().Status
			fields := []Field{
				String("method", c.Request().Method),
				String("path", path),
				String("client_ip", c.RealIP()),
				String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				Int("status", status),
				Duration("latency", latency),
			}
			if err != nil {
				fields = append(fields, Err(err))
			}

			switch {
			case status >= 500:
				l.Logger.Error("Server error", fields...)
			case status >= 400:
				l.Logger.Warn("Client error", fields...)
			default:
				l.Logger.Info("Request processed", fields...)
			}

			return err
		}
	}
}
