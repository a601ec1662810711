package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/ShipReport/internal/cache"
	"github.com/pkg/errors"
)

type step string

const (
	stepIdle        step = ""
	stepAwaitDate   step = "await_date"
	stepAwaitPeriod step = "await_period"
	stepAwaitStatus step = "await_status"
)

type session struct {
	Step  step      `json:"step"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// sessionStore keeps one conversation per chat in the bytes cache.
type sessionStore struct {
	c   cache.BytesCache
	ttl time.Duration
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("bot:session:%d", chatID)
}

func (s sessionStore) load(ctx context.Context, chatID int64) (session, error) {
	b, ok, err := s.c.Get(ctx, sessionKey(chatID))
	if err != nil || !ok {
		return session{}, err
	}
	var sess session
	if err := json.Unmarshal(b, &sess); err != nil {
		// a corrupt session only restarts the conversation
		return session{}, nil
	}
	return sess, nil
}

func (s sessionStore) save(ctx context.Context, chatID int64, sess session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	return s.c.Set(ctx, sessionKey(chatID), b, s.ttl)
}

func (s sessionStore) clear(ctx context.Context, chatID int64) error {
	return s.c.Del(ctx, sessionKey(chatID))
}
