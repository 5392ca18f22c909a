package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
)

func Test_applyLendingFilter(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	from := now.AddDate(0, 0, -7)

	tests := []struct {
		name     string
		filter   model.LendingFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "no filter",
			wantSQL: "SELECT id FROM lendings",
		},
		{
			name:     "overdue",
			filter:   model.LendingFilter{Status: model.StatusOverdue},
			wantSQL:  "SELECT id FROM lendings WHERE returned_at IS NULL AND due_date < $1",
			wantArgs: []interface{}{now},
		},
		{
			name:     "borrowed by reader",
			filter:   model.LendingFilter{Status: model.StatusBorrowed, ReaderID: "r-1"},
			wantSQL:  "SELECT id FROM lendings WHERE returned_at IS NULL AND due_date >= $1 AND reader_id = $2",
			wantArgs: []interface{}{now, "r-1"},
		},
		{
			name:    "returned",
			filter:  model.LendingFilter{Status: model.StatusReturned},
			wantSQL: "SELECT id FROM lendings WHERE returned_at IS NOT NULL",
		},
		{
			name:     "book and due from",
			filter:   model.LendingFilter{BookID: "b-1", DueFrom: &from},
			wantSQL:  "SELECT id FROM lendings WHERE book_id = $1 AND due_date >= $2",
			wantArgs: []interface{}{"b-1", from},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := applyLendingFilter(qb.Select("id").From(lendingsTableName), tt.filter, now).ToSql()
			require.NoError(t, err)
			require.Equal(t, tt.wantSQL, query)
			if tt.wantArgs == nil {
				require.Empty(t, args)
				return
			}
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_monthName(t *testing.T) {
	require.Equal(t, "Jan", monthName(1))
	require.Equal(t, "Dec", monthName(12))
	require.Equal(t, "", monthName(0))
}

type fakeDB struct {
	queryRow func(sql string, args ...any) pgx.Row
	query    func(sql string, args ...any) (pgx.Rows, error)
	exec     func(sql string, args ...any) (pgconn.CommandTag, error)
	beginErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.exec(sql, args...)
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.query(sql, args...)
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return f.queryRow(sql, args...)
}

func (f *fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return nil, f.beginErr
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

// fakeRows serves fixed rows through the pgx.Rows interface, enough for
// pgx.CollectOneRow with pgx.RowToStructByName.
type fakeRows struct {
	columns []string
	rows    [][]any
	next    int
	cur     []any
	err     error
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Values() ([]any, error)        { return r.cur, nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, 0, len(r.columns))
	for _, c := range r.columns {
		fds = append(fds, pgconn.FieldDescription{Name: c})
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.next >= len(r.rows) {
		return false
	}
	r.cur = r.rows[r.next]
	r.next++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	return assign(dest, r.cur)
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		if d == nil {
			continue
		}
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(values[i]))
	}
	return nil
}

var (
	createdAt   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	dune        = model.Book{ID: "b-1", ISBN: "978-0441013593", Title: "Dune", Author: "Frank Herbert", TotalCopies: 2, CreatedAt: createdAt}
	openLending = model.Lending{
		ID:         "l-1",
		BookID:     "b-1",
		ReaderID:   "r-1",
		BorrowedAt: createdAt,
		DueDate:    createdAt.AddDate(0, 0, 14),
		Status:     model.StatusBorrowed,
	}
)

func bookRows(books ...model.Book) *fakeRows {
	rows := &fakeRows{columns: bookColumns}
	for _, b := range books {
		rows.rows = append(rows.rows, []any{b.ID, b.ISBN, b.Title, b.Author, b.CategoryID, b.TotalCopies, b.AvailableCopies, b.CreatedAt})
	}
	return rows
}

func lendingRows(lendings ...model.Lending) *fakeRows {
	rows := &fakeRows{columns: lendingColumns}
	for _, l := range lendings {
		rows.rows = append(rows.rows, []any{l.ID, l.BookID, l.ReaderID, l.BorrowedAt, l.DueDate, l.ReturnedAt, l.Status})
	}
	return rows
}

func newFakeRepo(t *testing.T, db *fakeDB) *repository {
	t.Helper()
	repo, err := NewRepository(db, zap.NewNop())
	require.NoError(t, err)
	return repo
}

func Test_repository_ReserveCopy(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		books   []model.Book
		want    int
		wantErr error
	}{
		{
			name: "ok",
			row:  fakeRow{values: []any{1}},
			want: 1,
		},
		{
			name:    "no copies left",
			row:     fakeRow{err: pgx.ErrNoRows},
			books:   []model.Book{dune},
			wantErr: errs.ErrOutOfStock,
		},
		{
			name:    "unknown book",
			row:     fakeRow{err: pgx.ErrNoRows},
			wantErr: errs.ErrNotFound,
		},
		{
			name:    "storage down",
			row:     fakeRow{err: errors.New("conn reset")},
			wantErr: errs.ErrPersistence,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(t, &fakeDB{
				queryRow: func(sql string, args ...any) pgx.Row {
					require.Contains(t, sql, "available_copies > 0")
					require.Equal(t, []any{pgx.NamedArgs{"id": "b-1"}}, args)
					return tt.row
				},
				query: func(sql string, args ...any) (pgx.Rows, error) {
					require.Contains(t, sql, "FROM books")
					return bookRows(tt.books...), nil
				},
			})
			got, err := repo.ReserveCopy(context.Background(), "b-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_repository_MarkReturned(t *testing.T) {
	at := createdAt.AddDate(0, 0, 3)
	returned := openLending
	returned.ReturnedAt = &at
	returned.Status = model.StatusReturned

	tests := []struct {
		name     string
		updated  []model.Lending
		existing []model.Lending
		want     model.Lending
		wantErr  error
	}{
		{
			name:    "ok",
			updated: []model.Lending{returned},
			want:    returned,
		},
		{
			name:     "already returned",
			existing: []model.Lending{returned},
			wantErr:  errs.ErrAlreadyReturned,
		},
		{
			name:    "unknown lending",
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(t, &fakeDB{
				query: func(sql string, args ...any) (pgx.Rows, error) {
					if strings.HasPrefix(sql, "UPDATE lendings") {
						require.Contains(t, sql, "returned_at IS NULL")
						return lendingRows(tt.updated...), nil
					}
					require.Contains(t, sql, "FROM lendings")
					return lendingRows(tt.existing...), nil
				},
			})
			got, err := repo.MarkReturned(context.Background(), "l-1", at)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_repository_TransitionStatus(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		err     error
		want    bool
		wantErr error
	}{
		{name: "changed", tag: "UPDATE 1", want: true},
		{name: "lost the race", tag: "UPDATE 0"},
		{name: "storage down", err: errors.New("conn reset"), wantErr: errs.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(t, &fakeDB{
				exec: func(sql string, args ...any) (pgconn.CommandTag, error) {
					require.Contains(t, sql, "status = @from and returned_at is null")
					require.Equal(t, []any{pgx.NamedArgs{"id": "l-1", "from": "BORROWED", "to": "OVERDUE"}}, args)
					return pgconn.NewCommandTag(tt.tag), tt.err
				},
			})
			got, err := repo.TransitionStatus(context.Background(), "l-1", model.StatusBorrowed, model.StatusOverdue)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_repository_lendingWriteErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantEntity string
		wantErr    error
	}{
		{
			name:       "book fk",
			err:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "lendings_book_id_fkey"},
			wantEntity: errs.EntityBook,
		},
		{
			name:       "reader fk",
			err:        errors.Wrap(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "lendings_reader_id_fkey"}, "insert"),
			wantEntity: errs.EntityReader,
		},
		{
			name:    "unknown fk",
			err:     &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "lendings_other_fkey"},
			wantErr: errs.ErrPersistence,
		},
		{
			name:    "duplicate id",
			err:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "lendings_pkey"},
			wantErr: errs.ErrPersistence,
		},
		{
			name:    "conn error",
			err:     errors.New("conn reset"),
			wantErr: errs.ErrPersistence,
		},
	}
	repo := newFakeRepo(t, &fakeDB{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.lendingWriteErr(openLending, tt.err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			var nf *errs.NotFoundError
			require.ErrorAs(t, err, &nf)
			require.Equal(t, tt.wantEntity, nf.Entity)
		})
	}
}

func Test_repository_CreateLending_ForeignKey(t *testing.T) {
	repo := newFakeRepo(t, &fakeDB{
		query: func(sql string, args ...any) (pgx.Rows, error) {
			require.True(t, strings.HasPrefix(sql, "INSERT INTO lendings"))
			return nil, &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "lendings_reader_id_fkey"}
		},
	})
	_, err := repo.CreateLending(context.Background(), openLending)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.EqualError(t, err, `reader "r-1" not found`)
}

func Test_repository_WithinTx_BeginFails(t *testing.T) {
	repo := newFakeRepo(t, &fakeDB{beginErr: errors.New("too many clients")})
	called := false
	err := repo.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.False(t, called)
}
