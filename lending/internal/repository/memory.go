package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// Memory is the in-process repository. WithinTx serialises units on one
// mutex and undoes a failed unit's writes from a journal.
type Memory struct {
	mu       sync.Mutex
	books    map[string]model.Book
	readers  map[string]model.Reader
	lendings map[string]model.Lending
}

func NewMemory() *Memory {
	return &Memory{
		books:    make(map[string]model.Book),
		readers:  make(map[string]model.Reader),
		lendings: make(map[string]model.Lending),
	}
}

var errDuplicateID = errors.New("duplicate lending id")

type memTxKey struct{}

type journal struct {
	owner *Memory
	undo  []func()
}

func (j *journal) add(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

func (m *Memory) txJournal(ctx context.Context) *journal {
	if j, ok := ctx.Value(memTxKey{}).(*journal); ok && j.owner == m {
		return j
	}
	return nil
}

// lock takes the store mutex unless ctx is already inside one of its units.
func (m *Memory) lock(ctx context.Context) (*journal, func()) {
	if j := m.txJournal(ctx); j != nil {
		return j, func() {}
	}
	m.mu.Lock()
	return nil, m.mu.Unlock
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.txJournal(ctx) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	j := &journal{owner: m}
	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
	}()
	if err := fn(context.WithValue(ctx, memTxKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

// Seed is the fixture format loaded by the memory storage mode.
type Seed struct {
	Books   []model.Book   `json:"books"`
	Readers []model.Reader `json:"readers"`
}

func (m *Memory) Seed(seed Seed) error {
	for _, b := range seed.Books {
		if err := m.AddBook(b); err != nil {
			return errors.Wrapf(err, "book %s", b.ID)
		}
	}
	for _, r := range seed.Readers {
		m.AddReader(r)
	}
	return nil
}

func (m *Memory) AddBook(b model.Book) error {
	if b.TotalCopies < 0 || b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return errs.ErrInvalidCopies
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
	return nil
}

func (m *Memory) AddReader(r model.Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers[r.ID] = r
}

func (m *Memory) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	_, unlock := m.lock(ctx)
	defer unlock()
	b, ok := m.books[bookID]
	if !ok {
		return model.Book{}, errs.NotFound(errs.EntityBook, bookID)
	}
	return b, nil
}

func (m *Memory) ReserveCopy(ctx context.Context, bookID string) (int, error) {
	j, unlock := m.lock(ctx)
	defer unlock()
	b, ok := m.books[bookID]
	if !ok {
		return 0, errs.NotFound(errs.EntityBook, bookID)
	}
	if b.AvailableCopies <= 0 {
		return 0, errs.ErrOutOfStock
	}
	prev := b
	b.AvailableCopies--
	m.books[bookID] = b
	j.add(func() { m.books[bookID] = prev })
	return b.AvailableCopies, nil
}

func (m *Memory) ReleaseCopy(ctx context.Context, bookID string) (int, error) {
	j, unlock := m.lock(ctx)
	defer unlock()
	b, ok := m.books[bookID]
	if !ok {
		return 0, errs.NotFound(errs.EntityBook, bookID)
	}
	prev := b
	b.AvailableCopies = min(b.AvailableCopies+1, b.TotalCopies)
	m.books[bookID] = b
	j.add(func() { m.books[bookID] = prev })
	return b.AvailableCopies, nil
}

func (m *Memory) SetTotalCopies(ctx context.Context, bookID string, total int) (model.Book, error) {
	if total < 0 {
		return model.Book{}, errs.ErrInvalidCopies
	}
	j, unlock := m.lock(ctx)
	defer unlock()
	b, ok := m.books[bookID]
	if !ok {
		return model.Book{}, errs.NotFound(errs.EntityBook, bookID)
	}
	prev := b
	b.TotalCopies = total
	b.AvailableCopies = min(b.AvailableCopies, total)
	m.books[bookID] = b
	j.add(func() { m.books[bookID] = prev })
	return b, nil
}

func (m *Memory) GetReader(ctx context.Context, readerID string) (model.Reader, error) {
	_, unlock := m.lock(ctx)
	defer unlock()
	r, ok := m.readers[readerID]
	if !ok {
		return model.Reader{}, errs.NotFound(errs.EntityReader, readerID)
	}
	return r, nil
}

func (m *Memory) CreateLending(ctx context.Context, l model.Lending) (model.Lending, error) {
	j, unlock := m.lock(ctx)
	defer unlock()
	if _, ok := m.books[l.BookID]; !ok {
		return model.Lending{}, errs.NotFound(errs.EntityBook, l.BookID)
	}
	if _, ok := m.readers[l.ReaderID]; !ok {
		return model.Lending{}, errs.NotFound(errs.EntityReader, l.ReaderID)
	}
	if _, ok := m.lendings[l.ID]; ok {
		return model.Lending{}, errs.Persistence("CreateLending", errDuplicateID)
	}
	m.lendings[l.ID] = l
	j.add(func() { delete(m.lendings, l.ID) })
	return l, nil
}

func (m *Memory) GetLending(ctx context.Context, id string) (model.Lending, error) {
	_, unlock := m.lock(ctx)
	defer unlock()
	l, ok := m.lendings[id]
	if !ok {
		return model.Lending{}, errs.NotFound(errs.EntityLending, id)
	}
	return l, nil
}

func (m *Memory) ListLendings(ctx context.Context, filter model.LendingFilter, now time.Time) ([]model.Lending, error) {
	_, unlock := m.lock(ctx)
	defer unlock()

	items := make([]model.Lending, 0)
	for _, l := range m.lendings {
		if matchLending(l, filter, now) {
			items = append(items, l)
		}
	}
	sort.Slice(items, func(i, k int) bool {
		if !items[i].BorrowedAt.Equal(items[k].BorrowedAt) {
			return items[i].BorrowedAt.After(items[k].BorrowedAt)
		}
		return items[i].ID < items[k].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return []model.Lending{}, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (m *Memory) CountLendings(ctx context.Context, filter model.LendingFilter, now time.Time) (int, error) {
	_, unlock := m.lock(ctx)
	defer unlock()
	count := 0
	for _, l := range m.lendings {
		if matchLending(l, filter, now) {
			count++
		}
	}
	return count, nil
}

func matchLending(l model.Lending, filter model.LendingFilter, now time.Time) bool {
	if filter.Status != "" && model.DeriveStatus(l.ReturnedAt, l.DueDate, now) != filter.Status {
		return false
	}
	if filter.Active && l.ReturnedAt != nil {
		return false
	}
	if filter.ReaderID != "" && l.ReaderID != filter.ReaderID {
		return false
	}
	if filter.BookID != "" && l.BookID != filter.BookID {
		return false
	}
	if filter.DueFrom != nil && l.DueDate.Before(*filter.DueFrom) {
		return false
	}
	if filter.DueTo != nil && l.DueDate.After(*filter.DueTo) {
		return false
	}
	return true
}

func (m *Memory) MarkReturned(ctx context.Context, id string, at time.Time) (model.Lending, error) {
	j, unlock := m.lock(ctx)
	defer unlock()
	l, ok := m.lendings[id]
	if !ok {
		return model.Lending{}, errs.NotFound(errs.EntityLending, id)
	}
	if l.ReturnedAt != nil {
		return model.Lending{}, errs.ErrAlreadyReturned
	}
	prev := l
	l.ReturnedAt = &at
	l.Status = model.StatusReturned
	m.lendings[id] = l
	j.add(func() { m.lendings[id] = prev })
	return l, nil
}

func (m *Memory) TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	j, unlock := m.lock(ctx)
	defer unlock()
	l, ok := m.lendings[id]
	if !ok || l.Status != from || l.ReturnedAt != nil {
		return false, nil
	}
	prev := l
	l.Status = to
	m.lendings[id] = l
	j.add(func() { m.lendings[id] = prev })
	return true, nil
}

func (m *Memory) MonthlyLendings(ctx context.Context) ([]model.MonthlyCount, error) {
	_, unlock := m.lock(ctx)
	defer unlock()
	var counts [13]int
	for _, l := range m.lendings {
		counts[l.BorrowedAt.Month()]++
	}
	res := make([]model.MonthlyCount, 0)
	for month := 1; month <= 12; month++ {
		if counts[month] > 0 {
			res = append(res, model.MonthlyCount{Month: monthName(month), Count: counts[month]})
		}
	}
	return res, nil
}
