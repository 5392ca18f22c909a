package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const (
	XUserIDHeader = "X-User-Id"

	actingUserKey = "actingUserID"
)

// ActingUser puts the caller id from the X-User-Id header into the echo
// context. Handlers read it with GetActingUser and pass it down explicitly.
func ActingUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := strings.TrimSpace(c.Request().Header.Get(XUserIDHeader))
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "X-User-Id header is required")
		}
		c.Set(actingUserKey, userID)
		return next(c)
	}
}

func GetActingUser(c echo.Context) (string, error) {
	userID, ok := c.Get(actingUserKey).(string)
	if !ok || userID == "" {
		return "", errors.New("acting user is not set")
	}
	return userID, nil
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	log = log.Named("echo")
	return middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
}
