package repository

import (
	"context"
	"time"

	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// Transactor runs fn as one unit: either every write made through the
// repository with the ctx passed to fn is kept, or none is.
// Nested calls join the outer unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Inventory owns the copy counters of a book title.
type Inventory interface {
	GetBook(ctx context.Context, bookID string) (model.Book, error)
	// ReserveCopy decrements available copies, failing with ErrOutOfStock at zero.
	ReserveCopy(ctx context.Context, bookID string) (int, error)
	// ReleaseCopy increments available copies, never above total copies.
	ReleaseCopy(ctx context.Context, bookID string) (int, error)
	// SetTotalCopies changes the title's total and clamps available copies to it.
	SetTotalCopies(ctx context.Context, bookID string, total int) (model.Book, error)
}

type Readers interface {
	GetReader(ctx context.Context, readerID string) (model.Reader, error)
}

type LendingStore interface {
	CreateLending(ctx context.Context, l model.Lending) (model.Lending, error)
	GetLending(ctx context.Context, id string) (model.Lending, error)
	ListLendings(ctx context.Context, filter model.LendingFilter, now time.Time) ([]model.Lending, error)
	CountLendings(ctx context.Context, filter model.LendingFilter, now time.Time) (int, error)
	// MarkReturned sets returned_at only if it is unset, the loser of a
	// concurrent return gets ErrAlreadyReturned.
	MarkReturned(ctx context.Context, id string, at time.Time) (model.Lending, error)
	// TransitionStatus moves an open record from one persisted status to
	// another and reports whether this call changed it.
	TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error)
	MonthlyLendings(ctx context.Context) ([]model.MonthlyCount, error)
}

type Repository interface {
	Transactor
	Inventory
	Readers
	LendingStore
}

var (
	_ Repository = (*repository)(nil)
	_ Repository = (*Memory)(nil)
)

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()[:3]
}
