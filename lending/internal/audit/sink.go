package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/IBM/sarama"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// Sink persists audit events. Implementations must be safe for the single
// recorder worker plus any number of concurrent readers.
type Sink interface {
	Write(ctx context.Context, event model.AuditEvent) error
}

// Lister reads the audit trail back, newest first.
type Lister interface {
	List(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

const (
	auditTableName   = `audit_log`
	defaultListLimit = 100
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

type PostgresSink struct {
	db *sqlx.DB
}

func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Write(ctx context.Context, event model.AuditEvent) error {
	const query = `insert into audit_log (id, user_id, action, entity, entity_id, description, timestamp)
values (:id, :user_id, :action, :entity, :entity_id, :description, :timestamp)
on conflict (id) do nothing`
	if _, err := s.db.NamedExecContext(ctx, query, event); err != nil {
		return errors.Wrap(err, "audit insert")
	}
	return nil
}

func (s *PostgresSink) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	query, args, err := listQuery(limit)
	if err != nil {
		return nil, err
	}
	events := make([]model.AuditEvent, 0)
	if err = s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, errors.Wrap(err, "audit select")
	}
	return events, nil
}

func listQuery(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return qb.Select("id", "user_id", "action", "entity", "entity_id", "description", "timestamp").
		From(auditTableName).
		OrderBy("timestamp desc", "id").
		Limit(uint64(limit)).
		ToSql()
}

// KafkaSink publishes events for the audit consumer group to persist.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Write(_ context.Context, event model.AuditEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.EntityID),
		Value: sarama.ByteEncoder(b),
	})
	return errors.Wrap(err, "audit publish")
}

type MemorySink struct {
	mu     sync.RWMutex
	events []model.AuditEvent
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, event model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) List(_ context.Context, limit int) ([]model.AuditEvent, error) {
	s.mu.RLock()
	events := make([]model.AuditEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		events = append(events, s.events[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
