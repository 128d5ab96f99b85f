package weather

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

const sampleResponse = `{
  "coord": {"lon": 108.22, "lat": 16.07},
  "weather": [{"id": 500, "main": "Rain", "description": "mưa nhẹ", "icon": "10d"}],
  "main": {"temp": 33.5, "feels_like": 38.1, "temp_min": 32.0, "temp_max": 34.0, "pressure": 1008, "humidity": 65},
  "wind": {"speed": 3.6},
  "clouds": {"all": 75},
  "name": "Da Nang"
}`

func setupWeatherTest(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClient(config.WeatherConfig{
		BaseURL:  srv.URL,
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
	}, logger)
	return c.WithHTTPClient(srv.Client(), "test-key")
}

func TestClient_ByCity(t *testing.T) {
	var calls atomic.Int32
	c := setupWeatherTest(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Đà Nẵng", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "vi", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	})

	got := c.ByCity(context.Background(), "Đà Nẵng")
	require.NotNil(t, got)
	assert.Equal(t, 33.5, got.Temp)
	assert.Equal(t, "mưa nhẹ", got.Description)
	assert.Equal(t, "Rain", got.Main)
	assert.Equal(t, 65, got.Humidity)
	assert.Equal(t, 75, got.Clouds)
	require.NotNil(t, got.Coords)
	assert.Equal(t, 16.07, got.Coords.Lat)

	t.Run("second lookup is served from cache", func(t *testing.T) {
		again := c.ByCity(context.Background(), "Đà Nẵng")
		assert.Equal(t, got, again)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_ByCoords(t *testing.T) {
	t.Run("omits coords", func(t *testing.T) {
		c := setupWeatherTest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "10.7769", r.URL.Query().Get("lat"))
			_, _ = w.Write([]byte(sampleResponse))
		})
		got := c.ByCoords(context.Background(), 10.7769, 106.7009)
		require.NotNil(t, got)
		assert.Nil(t, got.Coords)
	})

	t.Run("upstream error gives nil", func(t *testing.T) {
		c := setupWeatherTest(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
		})
		assert.Nil(t, c.ByCoords(context.Background(), 1, 2))
	})

	t.Run("malformed body gives nil", func(t *testing.T) {
		c := setupWeatherTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"main": null}`))
		})
		assert.Nil(t, c.ByCoords(context.Background(), 1, 2))
	})

	t.Run("missing api key skips the call", func(t *testing.T) {
		c := setupWeatherTest(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		c.apiKey = ""
		assert.Nil(t, c.ByCoords(context.Background(), 1, 2))
	})
}

func TestAdvice(t *testing.T) {
	tests := []struct {
		name string
		in   *types.Weather
		want string
	}{
		{"nil", nil, ""},
		{"cold", &types.Weather{Temp: 12, Main: "Clear"}, "Thời tiết khá lạnh, nên mang theo áo ấm."},
		{"hot and rainy", &types.Weather{Temp: 33, Main: "Rain"},
			"Thời tiết nóng, nên mang theo nước uống và kem chống nắng. Trời mưa, nên mang theo ô hoặc áo mưa."},
		{"warm", &types.Weather{Temp: 30, Main: "Clear"}, "Thời tiết khá nóng, nên mặc quần áo thoáng mát."},
		{"humid clouds", &types.Weather{Temp: 25, Main: "Clouds", Humidity: 85}, "Trời nhiều mây và độ ẩm cao, có thể sẽ mưa."},
		{"pleasant", &types.Weather{Temp: 25, Main: "Clouds", Humidity: 60}, "Thời tiết tốt cho việc du lịch."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Advice(tt.in))
		})
	}
}
