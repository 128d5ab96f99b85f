package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
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

func setupComposerServiceTest() (*ServiceImpl, *MockTextGenerator) {
	gen := new(MockTextGenerator)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(gen, logger), gen
}

func eightCandidates() []types.Candidate {
	out := make([]types.Candidate, 8)
	for i := range out {
		out[i] = types.Candidate{Place: types.Place{
			ID:    fmt.Sprintf("p%d", i),
			Name:  fmt.Sprintf("Quán %d", i),
			About: strings.Repeat("ngon ", 100),
		}}
	}
	return out
}

func ids(c []types.Candidate) []string {
	out := make([]string, len(c))
	for i := range c {
		out[i] = c[i].ID
	}
	return out
}

func TestComposerService_SelectAndRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("garbled output falls back to the first max places", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).Return("<<garbled>> not json at all", nil).Once()

		selected, answer := svc.SelectAndRespond(ctx, "quán ăn ngon", eightCandidates(), 3, nil, "vi")
		assert.Equal(t, []string{"p0", "p1", "p2"}, ids(selected))
		assert.Equal(t, GenericAnswer, answer)
		gen.AssertExpectations(t)
	})

	t.Run("generator error falls back", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("deadline exceeded")).Once()

		selected, answer := svc.SelectAndRespond(ctx, "x", eightCandidates(), 3, nil, "en")
		assert.Len(t, selected, 3)
		assert.Equal(t, GenericAnswer, answer)
		gen.AssertExpectations(t)
	})

	t.Run("drops invalid and duplicate indices and caps the selection", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return(`{"selected_indices": [5, 5, 42, -1, 1.5, "2", 7, 0, 3], "answer": "**Quán 5** rất ngon."}`, nil).Once()

		selected, answer := svc.SelectAndRespond(ctx, "x", eightCandidates(), 3, nil, "vi")
		assert.Equal(t, []string{"p5", "p7", "p0"}, ids(selected))
		assert.Equal(t, "**Quán 5** rất ngon.", answer)
		gen.AssertExpectations(t)
	})

	t.Run("empty selection keeps the model answer", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Return("```json\n{\"selected_indices\": [99], \"answer\": \"Gợi ý của tôi\"}\n```", nil).Once()

		selected, answer := svc.SelectAndRespond(ctx, "x", eightCandidates(), 2, nil, "vi")
		assert.Equal(t, []string{"p0", "p1"}, ids(selected))
		assert.Equal(t, "Gợi ý của tôi", answer)
		gen.AssertExpectations(t)
	})

	t.Run("no candidates apologises without calling the generator", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		selected, answer := svc.SelectAndRespond(ctx, "x", nil, 3, nil, "vi")
		assert.Empty(t, selected)
		assert.Equal(t, NotFoundAnswer, answer)
		gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})

	t.Run("prompt carries weather, language and truncated about", func(t *testing.T) {
		svc, gen := setupComposerServiceTest()
		var captured string
		gen.On("GenerateText", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { captured = args.String(1) }).
			Return(`{"selected_indices":[0],"answer":"ok"}`, nil).Once()

		weather := &types.Weather{Temp: 31.2, FeelsLike: 35, Description: "mây rải rác", Humidity: 70}
		_, _ = svc.SelectAndRespond(ctx, "x", eightCandidates(), 1, weather, "ja")
		require.NotEmpty(t, captured)
		assert.Contains(t, captured, "31.2°C")
		assert.Contains(t, captured, "日本語")
		assert.NotContains(t, captured, strings.Repeat("ngon ", 60))
		gen.AssertExpectations(t)
	})
}
