package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/ShipReport/internal/broker/messages"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	return kafka.Message{}, errors.New("eof")
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func snapshotMsg(t *testing.T, offset int64, ev messages.SnapshotCollected) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(ev.Date), Value: b}
}

func TestSnapshotConsumer_DecodesAndCommits(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{snapshotMsg(t, 1, messages.SnapshotCollected{Date: "2026-01-10", Count: 3, Total: "300.00"})},
		err:  errors.New("stop"),
	}
	c := newSnapshotConsumer(fr)

	var got []messages.SnapshotCollected
	err := c.Consume(context.Background(), func(_ context.Context, ev messages.SnapshotCollected) error {
		got = append(got, ev)
		return nil
	})
	require.Error(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "2026-01-10", got[0].Date)
	require.Equal(t, 3, got[0].Count)
	require.Equal(t, []int64{1}, fr.committed)
}

func TestSnapshotConsumer_SkipsUndecodable(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte("not json")},
			snapshotMsg(t, 2, messages.SnapshotCollected{Date: "10.01.2026"}),
			snapshotMsg(t, 3, messages.SnapshotCollected{Date: "2026-01-10", Count: 2}),
		},
		err: errors.New("stop"),
	}
	c := newSnapshotConsumer(fr)

	var dates []string
	err := c.Consume(context.Background(), func(_ context.Context, ev messages.SnapshotCollected) error {
		dates = append(dates, ev.Date)
		return nil
	})
	require.EqualError(t, err, "fetch message: stop")
	require.Equal(t, []string{"2026-01-10"}, dates)
	require.Equal(t, []int64{1, 2, 3}, fr.committed)
}

func TestSnapshotConsumer_HandlerErrorStopsWithoutCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{snapshotMsg(t, 1, messages.SnapshotCollected{Date: "2026-01-10"})}}
	c := newSnapshotConsumer(fr)

	want := errors.New("handler failed")
	err := c.Consume(context.Background(), func(context.Context, messages.SnapshotCollected) error { return want })
	require.ErrorIs(t, err, want)
	require.Empty(t, fr.committed)
}

func TestNewSnapshotConsumer_Close(t *testing.T) {
	c := NewSnapshotConsumer([]string{"localhost:0"}, "snapshot.collected", "report-api")
	require.NotNil(t, c)
	require.NoError(t, c.Close())
}
