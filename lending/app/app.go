package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-lending/lending/config"
	"github.com/Astemirdum/library-lending/lending/internal/audit"
	"github.com/Astemirdum/library-lending/lending/internal/clock"
	"github.com/Astemirdum/library-lending/lending/internal/handler"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/lending/internal/server"
	"github.com/Astemirdum/library-lending/lending/internal/service"
	"github.com/Astemirdum/library-lending/lending/migrations"
	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/Astemirdum/library-lending/pkg/logger"
	"github.com/Astemirdum/library-lending/pkg/postgres"
)

const shutdownTimeout = 5 * time.Second

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}
	defer st.close()

	pipe, err := newAuditPipeline(cfg, st, log)
	if err != nil {
		log.Fatal("audit init", zap.Error(err))
	}
	svc := service.NewService(st.repo, clock.Real{}, pipe.recorder, loanPolicy(cfg.Loan), log)

	h := handler.New(svc, pipe.store, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("storage", cfg.Storage),
		zap.String("audit_sink", cfg.Audit.Sink))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	if cfg.Kafka.Enabled {
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.AuditConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		defer group.Close()
		g.Go(func() error {
			kafka.Consume(gctx, group, audit.NewConsumer(pipe.store, log), log, kafka.AuditTopic)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gctx)))
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})
	if err = g.Wait(); err != nil {
		log.Error("server run", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	pipe.close(closeCtx)
	log.Info("Graceful shutdown finished")
}

// Migrate applies the embedded migrations and exits.
func Migrate(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "lending")
	pool, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return err
	}
	pool.Close()
	log.Info("migrations applied", zap.String("db", cfg.Database.NameDB))
	return nil
}

// Sweep persists pending overdue transitions once, for cron-style runs.
func Sweep(ctx context.Context, cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "lending")
	st, err := newStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	pipe, err := newAuditPipeline(cfg, st, log)
	if err != nil {
		return err
	}
	svc := service.NewService(st.repo, clock.Real{}, pipe.recorder, loanPolicy(cfg.Loan), log)
	overdue, err := svc.ApplyOverdueTransitions(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	pipe.close(closeCtx)
	if err != nil {
		return err
	}
	log.Info("overdue sweep done", zap.Int("overdue", len(overdue)))
	return nil
}

func loanPolicy(cfg config.Loan) service.Policy {
	return service.Policy{
		DefaultDays: cfg.DefaultDays,
		MaxDays:     cfg.MaxDays,
		Clamp:       cfg.InvalidPeriod == "clamp",
	}
}

type storage struct {
	repo repository.Repository
	// pool is nil for memory storage
	pool *pgxpool.Pool
}

func (s storage) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func newStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return storage{}, errors.Wrap(err, "db init")
		}
		repo, err := repository.NewRepository(pool, log)
		if err != nil {
			pool.Close()
			return storage{}, err
		}
		return storage{repo: repo, pool: pool}, nil
	case config.StorageMemory:
		repo := repository.NewMemory()
		if cfg.SeedFile != "" {
			seed, err := loadSeed(cfg.SeedFile)
			if err != nil {
				return storage{}, err
			}
			if err = repo.Seed(seed); err != nil {
				return storage{}, errors.Wrap(err, "seed")
			}
		}
		return storage{repo: repo}, nil
	default:
		return storage{}, errors.Errorf("unknown storage %q", cfg.Storage)
	}
}

func loadSeed(path string) (repository.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return repository.Seed{}, errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var seed repository.Seed
	if err = jsoniter.NewDecoder(f).Decode(&seed); err != nil {
		return repository.Seed{}, errors.Wrap(err, "decode seed file")
	}
	return seed, nil
}

type auditStore interface {
	audit.Sink
	audit.Lister
}

type auditPipeline struct {
	recorder *audit.Recorder
	// store is where audit events end up and are read back from
	store    auditStore
	db       *sqlx.DB
	producer sarama.SyncProducer
	log      *zap.Logger
}

func newAuditPipeline(cfg *config.Config, st storage, log *zap.Logger) (*auditPipeline, error) {
	pipe := &auditPipeline{log: log}
	if st.pool != nil {
		pipe.db = sqlx.NewDb(postgres.SQLDB(st.pool), "pgx")
		pipe.store = audit.NewPostgresSink(pipe.db)
	} else {
		pipe.store = audit.NewMemorySink()
	}

	var sink audit.Sink
	switch cfg.Audit.Sink {
	case config.AuditSinkPostgres:
		if st.pool == nil {
			return nil, errors.New("postgres audit sink needs postgres storage")
		}
		sink = pipe.store
	case config.AuditSinkMemory:
		sink = pipe.store
	case config.AuditSinkKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, errors.Wrap(err, "kafka.NewProducer")
		}
		pipe.producer = producer
		sink = audit.NewKafkaSink(producer, kafka.AuditTopic)
	default:
		return nil, errors.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}

	cb := circuit_breaker.New(cfg.Audit.Breaker)
	pipe.recorder = audit.NewRecorder(sink, clock.Real{}, cb, log, cfg.Audit.BufferSize)
	return pipe, nil
}

func (p *auditPipeline) close(ctx context.Context) {
	if err := p.recorder.Close(ctx); err != nil {
		p.log.Error("audit recorder close", zap.Error(err))
	}
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			p.log.Error("kafka producer close", zap.Error(err))
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.log.Error("audit db close", zap.Error(err))
		}
	}
}
