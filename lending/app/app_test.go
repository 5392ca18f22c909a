package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/config"
	"github.com/Astemirdum/library-lending/lending/internal/clock"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/service"
	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
)

const seedJSON = `{
  "books": [{"id": "b-1", "isbn": "978-0441013593", "title": "Dune", "author": "Frank Herbert", "totalCopies": 2, "availableCopies": 2}],
  "readers": [{"id": "r-1", "name": "Ann", "email": "ann@example.com"}]
}`

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))
	return &config.Config{
		Storage:  config.StorageMemory,
		SeedFile: path,
		Loan:     config.Loan{DefaultDays: 14, MaxDays: 90, InvalidPeriod: "reject"},
		Audit: config.Audit{
			Sink:       config.AuditSinkMemory,
			BufferSize: 16,
			Breaker:    circuit_breaker.Config{RecordLength: 10, Timeout: 1, Percentile: 0.5, RecoveryRequests: 1},
		},
	}
}

func TestMemoryPipeline(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)

	st, err := newStorage(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer st.close()
	require.Nil(t, st.pool)

	pipe, err := newAuditPipeline(cfg, st, zap.NewNop())
	require.NoError(t, err)

	svc := service.NewService(st.repo, clock.Real{}, pipe.recorder, loanPolicy(cfg.Loan), zap.NewNop())
	l, err := svc.Lend(ctx, model.LendRequest{ActingUserID: "u-1", BookID: "b-1", ReaderID: "r-1"})
	require.NoError(t, err)
	pipe.close(ctx)

	events, err := pipe.store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, l.ID, events[0].EntityID)
	require.Equal(t, model.ActionLend, events[0].Action)
}

func TestNewStorage_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newStorage(ctx, &config.Config{Storage: "sqlite"}, zap.NewNop())
	require.Error(t, err)

	_, err = newStorage(ctx, &config.Config{Storage: config.StorageMemory, SeedFile: "/nonexistent/seed.json"}, zap.NewNop())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"books":[{"id":"b","totalCopies":1,"availableCopies":3}]}`), 0o600))
	_, err = newStorage(ctx, &config.Config{Storage: config.StorageMemory, SeedFile: path}, zap.NewNop())
	require.Error(t, err)
}

func TestNewAuditPipeline_PostgresSinkNeedsPostgres(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Audit.Sink = config.AuditSinkPostgres
	st, err := newStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = newAuditPipeline(cfg, st, zap.NewNop())
	require.Error(t, err)
}

func TestLoanPolicy(t *testing.T) {
	require.Equal(t, service.Policy{DefaultDays: 7, MaxDays: 30, Clamp: true},
		loanPolicy(config.Loan{DefaultDays: 7, MaxDays: 30, InvalidPeriod: "clamp"}))
	require.False(t, loanPolicy(config.Loan{InvalidPeriod: "reject"}).Clamp)
}
