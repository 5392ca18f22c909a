package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/model"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type flakySink struct {
	*MemorySink
	failFor string
}

func (s *flakySink) Write(ctx context.Context, e model.AuditEvent) error {
	if e.ID == s.failFor {
		return errors.New("db down")
	}
	return s.MemorySink.Write(ctx, e)
}

func TestConsumer_ConsumeClaim(t *testing.T) {
	sink := &flakySink{MemorySink: NewMemorySink(), failFor: "e-3"}
	c := NewConsumer(sink, zap.NewNop())

	encode := func(id string) []byte {
		e := lendEvent("u-1")
		e.ID = id
		e.Timestamp = now
		b, err := json.Marshal(e)
		require.NoError(t, err)
		return b
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 4)}
	claim.messages <- &sarama.ConsumerMessage{Offset: 1, Value: encode("e-1")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("{not json")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 3, Value: encode("e-3")}
	claim.messages <- &sarama.ConsumerMessage{Offset: 4, Value: encode("e-4")}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	require.NoError(t, c.Setup(session))
	require.NoError(t, c.ConsumeClaim(session, claim))
	require.NoError(t, c.Cleanup(session))

	require.Equal(t, []int64{1, 2, 4}, session.marked)
	events, err := sink.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestConsumer_StopsOnSessionDone(t *testing.T) {
	c := NewConsumer(NewMemorySink(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage)}
	require.NoError(t, c.ConsumeClaim(&fakeSession{ctx: ctx}, claim))
}
