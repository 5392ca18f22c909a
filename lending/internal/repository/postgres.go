package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// DB is the part of *pgxpool.Pool the repository runs on.
type DB interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ DB = (*pgxpool.Pool)(nil)

type repository struct {
	db  DB
	log *zap.Logger
}

func NewRepository(db DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName    = `books`
	readersTableName  = `readers`
	lendingsTableName = `lendings`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns    = []string{"id", "isbn", "title", "author", "category_id", "total_copies", "available_copies", "created_at"}
	readerColumns  = []string{"id", "name", "email", "phone", "address", "created_at"}
	lendingColumns = []string{"id", "book_id", "reader_id", "borrowed_at", "due_date", "returned_at", "status"}
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func (r *repository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

func (r *repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errs.Persistence("begin tx", err)
	}
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error("tx rollback", zap.Error(rbErr))
		}
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return errs.Persistence("commit tx", err)
	}
	return nil
}

func (r *repository) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errs.Persistence("GetBook", err)
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.NotFound(errs.EntityBook, bookID)
		}
		return model.Book{}, errs.Persistence("GetBook", err)
	}
	return book, nil
}

func (r *repository) ReserveCopy(ctx context.Context, bookID string) (int, error) {
	const q = `
update books
    set available_copies = available_copies - 1
where id = @id and available_copies > 0
returning available_copies`
	var available int
	err := r.conn(ctx).QueryRow(ctx, q, pgx.NamedArgs{"id": bookID}).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, err := r.GetBook(ctx, bookID); err != nil {
				return 0, err
			}
			return 0, errs.ErrOutOfStock
		}
		return 0, errs.Persistence("ReserveCopy", err)
	}
	return available, nil
}

func (r *repository) ReleaseCopy(ctx context.Context, bookID string) (int, error) {
	const q = `
update books
    set available_copies = least(available_copies + 1, total_copies)
where id = @id
returning available_copies`
	var available int
	err := r.conn(ctx).QueryRow(ctx, q, pgx.NamedArgs{"id": bookID}).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.NotFound(errs.EntityBook, bookID)
		}
		return 0, errs.Persistence("ReleaseCopy", err)
	}
	return available, nil
}

func (r *repository) SetTotalCopies(ctx context.Context, bookID string, total int) (model.Book, error) {
	if total < 0 {
		return model.Book{}, errs.ErrInvalidCopies
	}
	query, args, err := qb.Update(booksTableName).
		Set("total_copies", total).
		Set("available_copies", sq.Expr("least(available_copies, ?)", total)).
		Where(sq.Eq{"id": bookID}).
		Suffix("returning " + columnList(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errs.Persistence("SetTotalCopies", err)
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.NotFound(errs.EntityBook, bookID)
		}
		return model.Book{}, errs.Persistence("SetTotalCopies", err)
	}
	return book, nil
}

func (r *repository) GetReader(ctx context.Context, readerID string) (model.Reader, error) {
	query, args, err := qb.Select(readerColumns...).
		From(readersTableName).
		Where(sq.Eq{"id": readerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reader{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Reader{}, errs.Persistence("GetReader", err)
	}
	reader, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reader])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reader{}, errs.NotFound(errs.EntityReader, readerID)
		}
		return model.Reader{}, errs.Persistence("GetReader", err)
	}
	return reader, nil
}

func (r *repository) CreateLending(ctx context.Context, l model.Lending) (model.Lending, error) {
	query, args, err := qb.Insert(lendingsTableName).
		Columns(lendingColumns...).
		Values(l.ID, l.BookID, l.ReaderID, l.BorrowedAt, l.DueDate, l.ReturnedAt, l.Status).
		Suffix("returning " + columnList(lendingColumns)).
		ToSql()
	if err != nil {
		return model.Lending{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Lending{}, r.lendingWriteErr(l, err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lending])
	if err != nil {
		r.log.Error("CreateLending", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Lending{}, r.lendingWriteErr(l, err)
	}
	return created, nil
}

func (r *repository) lendingWriteErr(l model.Lending, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		switch pgErr.ConstraintName {
		case "lendings_book_id_fkey":
			return errs.NotFound(errs.EntityBook, l.BookID)
		case "lendings_reader_id_fkey":
			return errs.NotFound(errs.EntityReader, l.ReaderID)
		}
	}
	return errs.Persistence("CreateLending", err)
}

func (r *repository) GetLending(ctx context.Context, id string) (model.Lending, error) {
	query, args, err := qb.Select(lendingColumns...).
		From(lendingsTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Lending{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Lending{}, errs.Persistence("GetLending", err)
	}
	l, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lending])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lending{}, errs.NotFound(errs.EntityLending, id)
		}
		return model.Lending{}, errs.Persistence("GetLending", err)
	}
	return l, nil
}

func (r *repository) ListLendings(ctx context.Context, filter model.LendingFilter, now time.Time) ([]model.Lending, error) {
	q := applyLendingFilter(qb.Select(lendingColumns...).From(lendingsTableName), filter, now).
		OrderBy("borrowed_at desc", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLendings", zap.String("query", query), zap.Any("args", args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Persistence("ListLendings", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Lending])
	if err != nil {
		return nil, errs.Persistence("ListLendings", err)
	}
	return items, nil
}

func (r *repository) CountLendings(ctx context.Context, filter model.LendingFilter, now time.Time) (int, error) {
	query, args, err := applyLendingFilter(qb.Select("count(*)").From(lendingsTableName), filter, now).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errs.Persistence("CountLendings", err)
	}
	return count, nil
}

// applyLendingFilter keeps status predicates in line with model.DeriveStatus.
func applyLendingFilter(q sq.SelectBuilder, filter model.LendingFilter, now time.Time) sq.SelectBuilder {
	switch filter.Status {
	case model.StatusReturned:
		q = q.Where(sq.NotEq{"returned_at": nil})
	case model.StatusOverdue:
		q = q.Where(sq.Eq{"returned_at": nil}).Where(sq.Lt{"due_date": now})
	case model.StatusBorrowed:
		q = q.Where(sq.Eq{"returned_at": nil}).Where(sq.GtOrEq{"due_date": now})
	}
	if filter.Active {
		q = q.Where(sq.Eq{"returned_at": nil})
	}
	if filter.ReaderID != "" {
		q = q.Where(sq.Eq{"reader_id": filter.ReaderID})
	}
	if filter.BookID != "" {
		q = q.Where(sq.Eq{"book_id": filter.BookID})
	}
	if filter.DueFrom != nil {
		q = q.Where(sq.GtOrEq{"due_date": *filter.DueFrom})
	}
	if filter.DueTo != nil {
		q = q.Where(sq.LtOrEq{"due_date": *filter.DueTo})
	}
	return q
}

func (r *repository) MarkReturned(ctx context.Context, id string, at time.Time) (model.Lending, error) {
	query, args, err := qb.Update(lendingsTableName).
		Set("returned_at", at).
		Set("status", model.StatusReturned).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"returned_at": nil}).
		Suffix("returning " + columnList(lendingColumns)).
		ToSql()
	if err != nil {
		return model.Lending{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Lending{}, errs.Persistence("MarkReturned", err)
	}
	l, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Lending])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, err := r.GetLending(ctx, id); err != nil {
				return model.Lending{}, err
			}
			return model.Lending{}, errs.ErrAlreadyReturned
		}
		return model.Lending{}, errs.Persistence("MarkReturned", err)
	}
	return l, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	const q = `
update lendings
    set status = @to
where id = @id and status = @from and returned_at is null`
	tag, err := r.conn(ctx).Exec(ctx, q, pgx.NamedArgs{
		"id":   id,
		"from": string(from),
		"to":   string(to),
	})
	if err != nil {
		return false, errs.Persistence("TransitionStatus", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) MonthlyLendings(ctx context.Context) ([]model.MonthlyCount, error) {
	const q = `
select extract(month from borrowed_at)::int as month, count(*)::int as count
from lendings
group by 1
order by 1`
	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return nil, errs.Persistence("MonthlyLendings", err)
	}
	type monthRow struct {
		Month int `db:"month"`
		Count int `db:"count"`
	}
	months, err := pgx.CollectRows(rows, pgx.RowToStructByName[monthRow])
	if err != nil {
		return nil, errs.Persistence("MonthlyLendings", err)
	}
	res := make([]model.MonthlyCount, 0, len(months))
	for _, m := range months {
		res = append(res, model.MonthlyCount{Month: monthName(m.Month), Count: m.Count})
	}
	return res, nil
}

func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}
