package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/clock"
	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
)

// Auditor accepts audit events without blocking or failing the caller.
type Auditor interface {
	Record(ctx context.Context, event model.AuditEvent)
}

type Service struct {
	log     *zap.Logger
	repo    repository.Repository
	clock   clock.Clock
	auditor Auditor
	policy  Policy
}

func NewService(repo repository.Repository, clk clock.Clock, auditor Auditor, policy Policy, log *zap.Logger) *Service {
	return &Service{
		log:     log.Named("service"),
		repo:    repo,
		clock:   clk,
		auditor: auditor,
		policy:  policy,
	}
}

// Lend reserves a copy and opens a lending record as one unit. The audit
// event is emitted only once both writes are committed.
func (s *Service) Lend(ctx context.Context, req model.LendRequest) (model.Lending, error) {
	now := s.clock.Now()
	var (
		lending model.Lending
		book    model.Book
		reader  model.Reader
		days    int
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if book, err = s.repo.GetBook(ctx, req.BookID); err != nil {
			return err
		}
		if reader, err = s.repo.GetReader(ctx, req.ReaderID); err != nil {
			return err
		}
		// unknown book or reader is reported before a bad loan period
		if days, err = s.policy.LoanDays(req.LoanDays); err != nil {
			return err
		}
		if _, err = s.repo.ReserveCopy(ctx, req.BookID); err != nil {
			return err
		}
		lending, err = s.repo.CreateLending(ctx, model.Lending{
			ID:         uuid.NewString(),
			BookID:     req.BookID,
			ReaderID:   req.ReaderID,
			BorrowedAt: now,
			DueDate:    now.AddDate(0, 0, days),
			Status:     model.StatusBorrowed,
		})
		return err
	})
	if err != nil {
		return model.Lending{}, errors.Wrap(err, "lend")
	}

	s.log.Info("book lent",
		zap.String("lending_id", lending.ID),
		zap.String("book_id", lending.BookID),
		zap.String("reader_id", lending.ReaderID),
		zap.Time("due_date", lending.DueDate))
	s.auditor.Record(ctx, model.AuditEvent{
		UserID:      req.ActingUserID,
		Action:      model.ActionLend,
		Entity:      model.AuditEntityLending,
		EntityID:    lending.ID,
		Description: fmt.Sprintf("Lent book %q to reader %q for %d days.", book.Title, reader.Name, days),
	})
	return lending, nil
}

// ReturnBook closes a lending record and puts its copy back on the shelf.
// Of two concurrent returns of one record exactly one succeeds.
func (s *Service) ReturnBook(ctx context.Context, actingUserID, lendingID string) (model.Lending, error) {
	now := s.clock.Now()
	var (
		lending model.Lending
		book    model.Book
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetLending(ctx, lendingID)
		if err != nil {
			return err
		}
		if current.ReturnedAt != nil {
			return errs.ErrAlreadyReturned
		}
		if lending, err = s.repo.MarkReturned(ctx, lendingID, now); err != nil {
			return err
		}
		if _, err = s.repo.ReleaseCopy(ctx, lending.BookID); err != nil {
			return err
		}
		book, err = s.repo.GetBook(ctx, lending.BookID)
		return err
	})
	if err != nil {
		return model.Lending{}, errors.Wrap(err, "return")
	}

	s.log.Info("book returned", zap.String("lending_id", lending.ID), zap.String("book_id", lending.BookID))
	s.auditor.Record(ctx, model.AuditEvent{
		UserID:      actingUserID,
		Action:      model.ActionReturn,
		Entity:      model.AuditEntityLending,
		EntityID:    lending.ID,
		Description: fmt.Sprintf("Returned book %q from reader %q.", book.Title, lending.ReaderID),
	})
	return lending, nil
}

func (s *Service) GetLending(ctx context.Context, id string) (model.Lending, error) {
	l, err := s.repo.GetLending(ctx, id)
	if err != nil {
		return model.Lending{}, err
	}
	return l.WithDerivedStatus(s.clock.Now()), nil
}

func (s *Service) ListLendings(ctx context.Context, filter model.LendingFilter, page, size int) (model.ListLendings, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size

	now := s.clock.Now()
	items, err := s.repo.ListLendings(ctx, filter, now)
	if err != nil {
		return model.ListLendings{}, err
	}
	total, err := s.repo.CountLendings(ctx, filter, now)
	if err != nil {
		return model.ListLendings{}, err
	}
	for i := range items {
		items[i] = items[i].WithDerivedStatus(now)
	}
	return model.ListLendings{
		Paging: model.Paging{Page: page, PageSize: len(items), TotalElements: total},
		Items:  items,
	}, nil
}

// Populate attaches each record's book and reader, reading every title
// and reader once per call.
func (s *Service) Populate(ctx context.Context, lendings []model.Lending) ([]model.LendingDetails, error) {
	var (
		books   = make(map[string]model.Book)
		readers = make(map[string]model.Reader)
		res     = make([]model.LendingDetails, 0, len(lendings))
	)
	for _, l := range lendings {
		book, ok := books[l.BookID]
		if !ok {
			var err error
			if book, err = s.repo.GetBook(ctx, l.BookID); err != nil {
				return nil, errors.Wrap(err, "populate")
			}
			books[l.BookID] = book
		}
		reader, ok := readers[l.ReaderID]
		if !ok {
			var err error
			if reader, err = s.repo.GetReader(ctx, l.ReaderID); err != nil {
				return nil, errors.Wrap(err, "populate")
			}
			readers[l.ReaderID] = reader
		}
		res = append(res, model.LendingDetails{Lending: l, Book: book, Reader: reader})
	}
	return res, nil
}

func (s *Service) CountLendings(ctx context.Context) (int, error) {
	return s.repo.CountLendings(ctx, model.LendingFilter{}, s.clock.Now())
}

// CountOverdue counts by derived status and never touches persisted state.
func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	return s.repo.CountLendings(ctx, model.LendingFilter{Status: model.StatusOverdue}, s.clock.Now())
}

func (s *Service) MonthlyLendings(ctx context.Context) ([]model.MonthlyCount, error) {
	return s.repo.MonthlyLendings(ctx)
}

// SetTotalCopies edits a title's stock; available copies never exceed the new total.
func (s *Service) SetTotalCopies(ctx context.Context, actingUserID, bookID string, total int) (model.Book, error) {
	if total < 0 {
		return model.Book{}, errs.ErrInvalidCopies
	}
	book, err := s.repo.SetTotalCopies(ctx, bookID, total)
	if err != nil {
		return model.Book{}, err
	}
	s.auditor.Record(ctx, model.AuditEvent{
		UserID:      actingUserID,
		Action:      model.ActionUpdate,
		Entity:      model.AuditEntityBook,
		EntityID:    book.ID,
		Description: fmt.Sprintf("Set total copies of %q to %d.", book.Title, total),
	})
	return book, nil
}

const defaultPageSize = 20
