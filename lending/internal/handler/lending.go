package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-lending/lending/internal/model"
	md "github.com/Astemirdum/library-lending/pkg/middleware"
)

// Lend godoc
// @Summary      Lend a book
// @Description  Reserves a copy and opens a lending record
// @Tags         lendings
// @Accept       json
// @Produce      json
// @Param        X-User-Id  header    string             true  "acting user id"
// @Param        request    body      model.LendRequest  true  "lend request"
// @Success      201        {object}  model.Lending
// @Failure      400,401,404,503  {object}  echo.HTTPError
// @Router       /lendings [post]
func (h *Handler) Lend(c echo.Context) error {
	userID, err := md.GetActingUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var req model.LendRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.ActingUserID = userID

	lending, err := h.lendingSvc.Lend(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, lending)
}

// ReturnBook godoc
// @Summary      Return a book
// @Description  Closes a lending record and releases its copy
// @Tags         lendings
// @Produce      json
// @Param        X-User-Id  header    string  true  "acting user id"
// @Param        lendingId  path      string  true  "lending id"
// @Success      200        {object}  model.Lending
// @Failure      400,401,404,503  {object}  echo.HTTPError
// @Router       /lendings/return/{lendingId} [put]
func (h *Handler) ReturnBook(c echo.Context) error {
	userID, err := md.GetActingUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	lendingID := c.Param("lendingId")
	if lendingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty lendingId")
	}
	lending, err := h.lendingSvc.ReturnBook(c.Request().Context(), userID, lendingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lending)
}

// GetLending godoc
// @Summary      Get lending
// @Description  Lending record with derived status, book and reader
// @Tags         lendings
// @Produce      json
// @Param        id   path      string  true  "lending id"
// @Success      200  {object}  model.LendingDetails
// @Failure      404,503  {object}  echo.HTTPError
// @Router       /lendings/{id} [get]
func (h *Handler) GetLending(c echo.Context) error {
	ctx := c.Request().Context()
	lending, err := h.lendingSvc.GetLending(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	details, err := h.lendingSvc.Populate(ctx, []model.Lending{lending})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, details[0])
}

type lendingPage struct {
	model.Paging `json:",inline"`
	Items        []model.LendingDetails `json:"items"`
}

// ListLendings godoc
// @Summary      List lendings
// @Description  Filtered page of lending records with book and reader
// @Tags         lendings
// @Produce      json
// @Param        status    query     string   false  "derived status"  Enums(BORROWED, OVERDUE, RETURNED)
// @Param        active    query     boolean  false  "only records not yet returned"
// @Param        readerId  query     string   false  "reader id"
// @Param        bookId    query     string   false  "book id"
// @Param        dueFrom   query     string   false  "due date lower bound, RFC 3339 or YYYY-MM-DD"
// @Param        dueTo     query     string   false  "due date upper bound, RFC 3339 or YYYY-MM-DD"
// @Param        page      query     integer  false  "page number, from 1"
// @Param        size      query     integer  false  "page size, default 20"
// @Success      200       {object}  lendingPage
// @Failure      400,503   {object}  echo.HTTPError
// @Router       /lendings [get]
func (h *Handler) ListLendings(c echo.Context) error {
	var (
		filter     model.LendingFilter
		page, size int
		err        error
	)
	if status := c.QueryParam("status"); status != "" {
		filter.Status = model.Status(status)
		if !filter.Status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
		}
	}
	if active := c.QueryParam("active"); active != "" {
		if filter.Active, err = strconv.ParseBool(active); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active is invalid")
		}
	}
	filter.ReaderID = c.QueryParam("readerId")
	filter.BookID = c.QueryParam("bookId")
	if filter.DueFrom, err = parseDate(c.QueryParam("dueFrom")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "dueFrom is invalid")
	}
	if filter.DueTo, err = parseDate(c.QueryParam("dueTo")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "dueTo is invalid")
	}
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}

	ctx := c.Request().Context()
	lendings, err := h.lendingSvc.ListLendings(ctx, filter, page, size)
	if err != nil {
		return httpError(err)
	}
	items, err := h.lendingSvc.Populate(ctx, lendings.Items)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lendingPage{Paging: lendings.Paging, Items: items})
}

// parseDate accepts RFC 3339 timestamps and plain dates; empty means unset.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Errorf("unsupported date %q", s)
}

// ListOverdue godoc
// @Summary      List overdue lendings
// @Description  Open records past their due date; pending overdue transitions are persisted
// @Tags         lendings
// @Produce      json
// @Success      200  {array}   model.LendingDetails
// @Failure      503  {object}  echo.HTTPError
// @Router       /lendings/overdue [get]
func (h *Handler) ListOverdue(c echo.Context) error {
	ctx := c.Request().Context()
	lendings, err := h.lendingSvc.ListOverdue(ctx)
	if err != nil {
		return httpError(err)
	}
	details, err := h.lendingSvc.Populate(ctx, lendings)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, details)
}

type countResponse struct {
	Count int `json:"count"`
}

// CountLendings godoc
// @Summary      Count lendings
// @Tags         lendings
// @Produce      json
// @Success      200  {object}  countResponse
// @Failure      503  {object}  echo.HTTPError
// @Router       /lendings/count [get]
func (h *Handler) CountLendings(c echo.Context) error {
	n, err := h.lendingSvc.CountLendings(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// CountOverdue godoc
// @Summary      Count overdue lendings
// @Tags         lendings
// @Produce      json
// @Success      200  {object}  countResponse
// @Failure      503  {object}  echo.HTTPError
// @Router       /lendings/overdue/count [get]
func (h *Handler) CountOverdue(c echo.Context) error {
	n, err := h.lendingSvc.CountOverdue(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// MonthlyLendings godoc
// @Summary      Monthly lendings
// @Tags         lendings
// @Produce      json
// @Success      200  {array}   model.MonthlyCount
// @Failure      503  {object}  echo.HTTPError
// @Router       /lendings/monthly [get]
func (h *Handler) MonthlyLendings(c echo.Context) error {
	monthly, err := h.lendingSvc.MonthlyLendings(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, monthly)
}

// Stats godoc
// @Summary      Lending stats
// @Tags         lendings
// @Produce      json
// @Success      200  {object}  model.LendingStats
// @Failure      503  {object}  echo.HTTPError
// @Router       /lendings/stats [get]
func (h *Handler) Stats(c echo.Context) error {
	var stats model.LendingStats
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		stats.Total, err = h.lendingSvc.CountLendings(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Overdue, err = h.lendingSvc.CountOverdue(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Monthly, err = h.lendingSvc.MonthlyLendings(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// SetTotalCopies godoc
// @Summary      Set total copies
// @Description  Changes a title's total copies; available copies are clamped to it
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        X-User-Id  header    string                  true  "acting user id"
// @Param        bookId     path      string                  true  "book id"
// @Param        request    body      model.SetCopiesRequest  true  "new total"
// @Success      200        {object}  model.Book
// @Failure      400,401,404,503  {object}  echo.HTTPError
// @Router       /books/{bookId}/copies [patch]
func (h *Handler) SetTotalCopies(c echo.Context) error {
	userID, err := md.GetActingUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	var req model.SetCopiesRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.lendingSvc.SetTotalCopies(c.Request().Context(), userID, c.Param("bookId"), *req.TotalCopies)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// ListAudit godoc
// @Summary      List audit events
// @Description  Audit trail, newest first
// @Tags         audit
// @Produce      json
// @Param        limit  query     integer  false  "max events, default 100"
// @Success      200    {array}   model.AuditEvent
// @Failure      400,503  {object}  echo.HTTPError
// @Router       /audit [get]
func (h *Handler) ListAudit(c echo.Context) error {
	var (
		limit int
		err   error
	)
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if limit, err = strconv.Atoi(limitParam); err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit is invalid")
		}
	}
	events, err := h.auditSvc.List(c.Request().Context(), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, events)
}
