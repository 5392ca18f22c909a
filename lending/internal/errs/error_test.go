package errs_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
)

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("lend: %w", errs.NotFound(errs.EntityBook, "b-1"))

	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NotErrorIs(t, err, errs.ErrPersistence)

	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, errs.EntityBook, nf.Entity)
	require.Equal(t, "b-1", nf.ID)
	require.Equal(t, `lend: book "b-1" not found`, err.Error())
}

func TestPersistence(t *testing.T) {
	t.Parallel()
	require.NoError(t, errs.Persistence("op", nil))

	err := errs.Persistence("CreateLending", context.DeadlineExceeded)
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}
