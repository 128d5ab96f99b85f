package intent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) GenerateStructured(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func setupIntentServiceTest() (*ServiceImpl, *MockTextGenerator) {
	gen := new(MockTextGenerator)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(gen, logger), gen
}

func TestIntentService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("generator error returns the fallback", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("unavailable")).Once()

		got := svc.Classify(ctx, "anything")
		assert.Equal(t, types.QueryTypeSpecific, got.QueryType)
		assert.True(t, got.NeedsSemanticSearch)
		assert.Empty(t, got.Keywords)
		assert.Equal(t, "anything", got.VietnameseQuery)
		assert.Equal(t, "anything", got.CorrectedQuery)
		assert.Equal(t, "", got.OriginalLanguage)
		gen.AssertExpectations(t)
	})

	t.Run("empty utterance is general without a generator call", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		got := svc.Classify(ctx, "   ")
		assert.Equal(t, types.QueryTypeGeneral, got.QueryType)
		gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})

	t.Run("fenced JSON with aliases and loose numbers", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).Return("Đây là kết quả:\n```json\n"+`{
			"query_type": "nearby",
			"keywords": ["cà phê", " "],
			"location_mentioned": null,
			"city": "Hồ Chí Minh",
			"min_rating": "4,5",
			"max_rating": null,
			"radius_km": 2,
			"number_of_places": 3,
			"needs_semantic_search": true,
			"vietnamese_query": "quán cà phê yên tĩnh gần tôi",
			"corrected_query": "quiet cafe near me",
			"original_language": "EN"
		}`+"\n```", nil).Once()

		got := svc.Classify(ctx, "quiet cafe near me")
		assert.Equal(t, types.QueryTypeNearby, got.QueryType)
		assert.Equal(t, []string{"cà phê"}, got.Keywords)
		assert.Equal(t, "Hồ Chí Minh", got.Location())
		require.NotNil(t, got.MinRating)
		assert.Equal(t, 4.5, *got.MinRating)
		assert.Nil(t, got.MaxRating)
		require.NotNil(t, got.RadiusKm)
		assert.Equal(t, 2.0, *got.RadiusKm)
		require.NotNil(t, got.NumberOfPlaces)
		assert.Equal(t, 3, *got.NumberOfPlaces)
		assert.Equal(t, "en", got.OriginalLanguage)
		gen.AssertExpectations(t)
	})

	t.Run("itinerary request with days", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return(`{"query_type":"itinerary","keywords":["biển"],"city":"Đà Nẵng","num_days":3,"original_language":"vi"}`, nil).Once()

		got := svc.Classify(ctx, "lịch trình 3 ngày ở Đà Nẵng")
		assert.Equal(t, types.QueryTypeItinerary, got.QueryType)
		require.NotNil(t, got.NumDays)
		assert.Equal(t, 3, *got.NumDays)
		assert.False(t, got.NeedsSemanticSearch)
		gen.AssertExpectations(t)
	})

	t.Run("unknown query type falls back", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return(`{"query_type":"weather_forecast","keywords":["mưa"]}`, nil).Once()

		got := svc.Classify(ctx, "mưa không")
		assert.Equal(t, Fallback("mưa không"), got)
		gen.AssertExpectations(t)
	})

	t.Run("garbled output falls back", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).Return("I cannot help with that.", nil).Once()

		got := svc.Classify(ctx, "phở ngon Hà Nội")
		assert.Equal(t, types.QueryTypeSpecific, got.QueryType)
		assert.True(t, got.NeedsSemanticSearch)
		gen.AssertExpectations(t)
	})

	t.Run("swapped rating bounds are reordered", func(t *testing.T) {
		svc, gen := setupIntentServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return(`{"query_type":"specific_search","min_rating":4.8,"max_rating":3}`, nil).Once()

		got := svc.Classify(ctx, "quán ăn")
		require.NotNil(t, got.MinRating)
		require.NotNil(t, got.MaxRating)
		assert.Equal(t, 3.0, *got.MinRating)
		assert.Equal(t, 4.8, *got.MaxRating)
		gen.AssertExpectations(t)
	})
}
