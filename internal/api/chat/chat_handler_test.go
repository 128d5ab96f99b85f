package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Chat(ctx context.Context, req types.ChatRequest) *types.ChatResponse {
	args := m.Called(ctx, req)
	return args.Get(0).(*types.ChatResponse)
}

func (m *MockService) Config() types.ChatConfigResponse {
	args := m.Called()
	return args.Get(0).(types.ChatConfigResponse)
}

func setupChatHandlerTest() (*chi.Mux, *MockService) {
	svc := new(MockService)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Post("/chat", h.Chat)
	r.Get("/chat/config", h.GetConfig)
	return r, svc
}

func TestHandler_Chat(t *testing.T) {
	t.Run("answers a message", func(t *testing.T) {
		r, svc := setupChatHandlerTest()
		svc.On("Chat", mock.Anything, mock.MatchedBy(func(req types.ChatRequest) bool {
			return req.Message == "cà phê gần đây" && req.HasUserLocation()
		})).Return(&types.ChatResponse{
			Answer:       "ok",
			Places:       []types.PlaceInfo{{PlaceID: "p1", Name: "Cộng", Images: []string{}}},
			QueryType:    "nearby_search",
			TotalPlaces:  1,
			UserLocation: &types.UserLocation{Lat: 10.77, Lon: 106.7},
		}).Once()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat",
			strings.NewReader(`{"message":"cà phê gần đây","session_id":"s1","user_lat":10.77,"user_lon":106.7}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["answer"])
		assert.Equal(t, float64(1), body["total_places"])
		place := body["places"].([]any)[0].(map[string]any)
		assert.Equal(t, "p1", place["place_id"])
		assert.Contains(t, place, "images")
		svc.AssertExpectations(t)
	})

	t.Run("blank message is answered as a general question", func(t *testing.T) {
		r, svc := setupChatHandlerTest()
		svc.On("Chat", mock.Anything, mock.MatchedBy(func(req types.ChatRequest) bool {
			return req.Message == "   "
		})).Return(&types.ChatResponse{
			Answer:    "Chào bạn!",
			Places:    []types.PlaceInfo{},
			QueryType: "general",
		}).Once()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"   "}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var body types.ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "general", body.QueryType)
		assert.Empty(t, body.Places)
		svc.AssertExpectations(t)
	})

	for name, payload := range map[string]string{
		"malformed payload": `{"message":`,
		"wrong type":        `{"message":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			r, svc := setupChatHandlerTest()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(payload)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body types.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			svc.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_GetConfig(t *testing.T) {
	r, svc := setupChatHandlerTest()
	svc.On("Config").Return(types.ChatConfigResponse{
		DefaultNearbyRadiusKm: 5,
		TopKFinalResults:      5,
		Weights:               map[string]float64{"semantic": 0.4},
	}).Once()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body types.ChatConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5.0, body.DefaultNearbyRadiusKm)
	assert.Equal(t, 0.4, body.Weights["semantic"])
}
