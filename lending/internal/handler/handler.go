package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	md "github.com/Astemirdum/library-lending/pkg/middleware"
	"github.com/Astemirdum/library-lending/pkg/serializer"
	"github.com/Astemirdum/library-lending/pkg/validate"
	_ "github.com/Astemirdum/library-lending/swagger"
)

type Handler struct {
	lendingSvc LendingService
	auditSvc   AuditService
	log        *zap.Logger
}

func New(lendingSvc LendingService, auditSvc AuditService, log *zap.Logger) *Handler {
	return &Handler{
		lendingSvc: lendingSvc,
		auditSvc:   auditSvc,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HideBanner = true
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderContentType, md.XUserIDHeader},
		AllowCredentials: true,
	}))
	e.JSONSerializer = serializer.JSONSerializer{}
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/lendings", h.ListLendings)
	api.GET("/lendings/overdue", h.ListOverdue)
	api.GET("/lendings/count", h.CountLendings)
	api.GET("/lendings/overdue/count", h.CountOverdue)
	api.GET("/lendings/monthly", h.MonthlyLendings)
	api.GET("/lendings/stats", h.Stats)
	api.GET("/lendings/:id", h.GetLending)
	api.GET("/audit", h.ListAudit)

	api.POST("/lendings", h.Lend, md.ActingUser)
	api.PUT("/lendings/return/:lendingId", h.ReturnBook, md.ActingUser)
	api.PATCH("/books/:bookId/copies", h.SetTotalCopies, md.ActingUser)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps domain errors onto status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrOutOfStock),
		errors.Is(err, errs.ErrAlreadyReturned),
		errors.Is(err, errs.ErrInvalidLoanPeriod),
		errors.Is(err, errs.ErrInvalidCopies):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrPersistence):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
