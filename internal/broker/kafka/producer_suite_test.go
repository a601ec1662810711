package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/BearBump/ShipReport/internal/broker/messages"
)

type writerMock struct {
	mock.Mock
}

func (m *writerMock) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

type ProducerSuite struct {
	suite.Suite
	wm *writerMock
	p  *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.wm = &writerMock{}
	s.p = newProducerWithWriter(s.wm)
}

func (s *ProducerSuite) TestNewProducer_NotNil() {
	p := NewProducer([]string{"localhost:0"})
	s.Require().NotNil(p)
}

func (s *ProducerSuite) TestNewProducerWithWriter_NotNil() {
	p := newProducerWithWriter(s.wm)
	s.Require().NotNil(p)
}

func (s *ProducerSuite) TestPublish_OK() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			return msgs[0].Topic == "snapshot.collected" && string(msgs[0].Key) == "2026-01-10" && string(msgs[0].Value) == `{"count":3}`
		})).
		Return(nil).
		Once()

	s.Require().NoError(s.p.Publish(context.Background(), "snapshot.collected", []byte("2026-01-10"), []byte(`{"count":3}`)))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublish_ErrorWrapped() {
	want := errors.New("boom")
	s.wm.On("WriteMessages", mock.Anything, mock.Anything).Return(want).Once()

	err := s.p.Publish(context.Background(), "snapshot.collected", []byte("2026-01-10"), []byte(`{"count":3}`))
	s.Require().Error(err)
	s.Require().Contains(err.Error(), "kafka publish")
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublishSnapshot_KeyedByDate() {
	s.wm.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "2026-01-10" {
				return false
			}
			var ev messages.SnapshotCollected
			if err := json.Unmarshal(msgs[0].Value, &ev); err != nil {
				return false
			}
			return ev.Count == 2 && ev.Total == "15.50" && len(ev.OrderIDs) == 2
		})).
		Return(nil).
		Once()

	ev := messages.SnapshotCollected{Date: "2026-01-10", Count: 2, Total: "15.50", OrderIDs: []string{"1", "2"}}
	s.Require().NoError(s.p.PublishSnapshot(context.Background(), "snapshot.collected", ev))
	s.wm.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestClose_WriterWithoutClose() {
	s.Require().NoError(s.p.Close())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}


