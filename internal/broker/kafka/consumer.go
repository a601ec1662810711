package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/BearBump/ShipReport/internal/broker/messages"
	"github.com/BearBump/ShipReport/internal/models"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SnapshotHandler receives decoded snapshot.collected events.
type SnapshotHandler func(ctx context.Context, ev messages.SnapshotCollected) error

type SnapshotConsumer struct {
	r messageReader
}

func NewSnapshotConsumer(brokers []string, topic, groupID string) *SnapshotConsumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return newSnapshotConsumer(kafka.NewReader(cfg))
}

func newSnapshotConsumer(r messageReader) *SnapshotConsumer {
	return &SnapshotConsumer{r: r}
}

func (c *SnapshotConsumer) Close() error {
	return c.r.Close()
}

// Consume runs until ctx is done or the reader fails.
// Events that cannot be decoded are logged and committed, handler errors stop the loop uncommitted.
func (c *SnapshotConsumer) Consume(ctx context.Context, handle SnapshotHandler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}

		ev, err := decodeSnapshot(msg.Value)
		if err != nil {
			slog.Warn("skip bad snapshot event",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset,
				"key", string(msg.Key), "error", err.Error())
		} else if err := handle(ctx, ev); err != nil {
			return errors.Wrapf(err, "handle snapshot %s", ev.Date)
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

func decodeSnapshot(value []byte) (messages.SnapshotCollected, error) {
	var ev messages.SnapshotCollected
	if err := json.Unmarshal(value, &ev); err != nil {
		return ev, errors.Wrap(err, "unmarshal")
	}
	if _, err := models.ParseDate(ev.Date); err != nil {
		return ev, errors.Wrapf(err, "date %q", ev.Date)
	}
	return ev, nil
}
