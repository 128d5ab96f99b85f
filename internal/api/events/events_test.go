package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func setupEventsTest() (*NATSPublisher, *MockConnector) {
	conn := new(MockConnector)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewNATSPublisher(conn, "", logger), conn
}

func TestNATSPublisher_SearchCompleted(t *testing.T) {
	t.Run("publishes json on the default subject", func(t *testing.T) {
		p, conn := setupEventsTest()
		var payload []byte
		conn.On("Publish", DefaultSubject, mock.Anything).
			Run(func(args mock.Arguments) { payload = args.Get(1).([]byte) }).
			Return(nil).Once()

		p.SearchCompleted(context.Background(), SearchCompleted{Query: "phở", QueryType: "specific_search", Returned: 2})

		var got map[string]any
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, "phở", got["query"])
		assert.Equal(t, []any{}, got["place_ids"])
		assert.NotEmpty(t, got["occurred_at"])
		conn.AssertExpectations(t)
	})

	t.Run("broker errors are swallowed", func(t *testing.T) {
		p, conn := setupEventsTest()
		conn.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed")).Once()
		assert.NotPanics(t, func() {
			p.SearchCompleted(context.Background(), SearchCompleted{Query: "x"})
		})
		conn.AssertExpectations(t)
	})
}
