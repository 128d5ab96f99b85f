package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

// Provider returns current conditions, or nil when they are unavailable.
type Provider interface {
	ByCoords(ctx context.Context, lat, lon float64) *types.Weather
	ByCity(ctx context.Context, city string) *types.Weather
}

var _ Provider = (*Client)(nil)

// Client talks to the OpenWeather current-weather endpoint.
type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
	apiKey  string
	units   string
	lang    string
	cache   *cache.Cache
}

func NewClient(cfg config.WeatherConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		logger: logger,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: cfg.BaseURL,
		apiKey:  os.Getenv("OPENWEATHER_API_KEY"),
		units:   orDefault(cfg.Units, "metric"),
		lang:    orDefault(cfg.Lang, "vi"),
		cache:   cache.New(ttl, 2*ttl),
	}
}

// WithHTTPClient replaces the transport, used to point the client at a test
// server.
func (c *Client) WithHTTPClient(hc *http.Client, apiKey string) *Client {
	c.http = hc
	c.apiKey = apiKey
	return c
}

func (c *Client) ByCoords(ctx context.Context, lat, lon float64) *types.Weather {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	return c.fetch(ctx, "coords", q, false)
}

func (c *Client) ByCity(ctx context.Context, city string) *types.Weather {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil
	}
	q := url.Values{}
	q.Set("q", city)
	return c.fetch(ctx, "city", q, true)
}

type owmResponse struct {
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

func (c *Client) fetch(ctx context.Context, kind string, q url.Values, withCoords bool) *types.Weather {
	ctx, span := otel.Tracer("WeatherClient").Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("lookup", kind),
	))
	defer span.End()

	l := c.logger.With(slog.String("method", "fetch"), slog.String("lookup", kind))

	if c.apiKey == "" {
		l.DebugContext(ctx, "OPENWEATHER_API_KEY not set, skipping weather")
		return nil
	}

	key := kind + ":" + q.Encode()
	if v, ok := c.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return v.(*types.Weather)
	}

	q.Set("appid", c.apiKey)
	q.Set("units", c.units)
	q.Set("lang", c.lang)

	w, err := c.get(ctx, q, withCoords)
	if err != nil {
		l.WarnContext(ctx, "Weather lookup failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Weather lookup failed")
		return nil
	}
	c.cache.SetDefault(key, w)
	span.SetStatus(codes.Ok, "Weather fetched")
	return w
}

func (c *Client) get(ctx context.Context, q url.Values, withCoords bool) (*types.Weather, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call weather service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if data.Main == nil || len(data.Weather) == 0 {
		return nil, fmt.Errorf("weather response is missing main or weather fields")
	}

	w := &types.Weather{
		Temp:        data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
		TempMin:     data.Main.TempMin,
		TempMax:     data.Main.TempMax,
		Humidity:    data.Main.Humidity,
		Pressure:    data.Main.Pressure,
		Description: data.Weather[0].Description,
		Main:        data.Weather[0].Main,
		Icon:        data.Weather[0].Icon,
		WindSpeed:   data.Wind.Speed,
		Clouds:      data.Clouds.All,
	}
	if withCoords && data.Coord != nil {
		w.Coords = &types.Coordinates{Lat: data.Coord.Lat, Lon: data.Coord.Lon}
	}
	return w, nil
}

// Advice turns conditions into a short Vietnamese travel tip. A nil weather
// gives an empty string.
func Advice(w *types.Weather) string {
	if w == nil {
		return ""
	}
	var advice []string
	switch {
	case w.Temp < 15:
		advice = append(advice, "Thời tiết khá lạnh, nên mang theo áo ấm.")
	case w.Temp > 32:
		advice = append(advice, "Thời tiết nóng, nên mang theo nước uống và kem chống nắng.")
	case w.Temp > 28:
		advice = append(advice, "Thời tiết khá nóng, nên mặc quần áo thoáng mát.")
	}
	main := strings.ToLower(w.Main)
	switch {
	case strings.Contains(main, "rain"):
		advice = append(advice, "Trời mưa, nên mang theo ô hoặc áo mưa.")
	case strings.Contains(main, "cloud") && w.Humidity > 80:
		advice = append(advice, "Trời nhiều mây và độ ẩm cao, có thể sẽ mưa.")
	}
	if len(advice) == 0 {
		return "Thời tiết tốt cho việc du lịch."
	}
	return strings.Join(advice, " ")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
