package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port    string `mapstructure:"port"`
			Enabled bool   `mapstructure:"enabled"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Enabled bool   `mapstructure:"enabled"`
			Addr    string `mapstructure:"addr"`
			DB      int    `mapstructure:"db"`
			GeoKey  string `mapstructure:"geoKey"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Nats struct {
		Enabled       bool          `mapstructure:"enabled"`
		URL           string        `mapstructure:"url"`
		Subject       string        `mapstructure:"subject"`
		MaxReconnects int           `mapstructure:"maxReconnects"`
		ReconnectWait time.Duration `mapstructure:"reconnectWait"`
	} `mapstructure:"nats"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		RateLimitRPS   float64       `mapstructure:"rateLimitRPS"`
		RateLimitBurst int           `mapstructure:"rateLimitBurst"`
		CORSOrigins    []string      `mapstructure:"corsOrigins"`
	} `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Semantic  SemanticConfig  `mapstructure:"semantic"`
	Itinerary ItineraryConfig `mapstructure:"itinerary"`
	// Categories maps free-text phrases to the canonical category tag stored
	// on places.
	Categories map[string]string `mapstructure:"categories"`
}

type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwtSecretEnv"`
	KeyCacheTTL  time.Duration `mapstructure:"keyCacheTTL"`
}

type LLMConfig struct {
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embeddingModel"`
	Temperature    float32       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type WeatherConfig struct {
	BaseURL  string        `mapstructure:"baseURL"`
	Units    string        `mapstructure:"units"`
	Lang     string        `mapstructure:"lang"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type ChatConfig struct {
	DefaultNearbyRadiusKm      float64 `mapstructure:"defaultNearbyRadiusKm"`
	DefaultNearbyRadiusKmShort float64 `mapstructure:"defaultNearbyRadiusKmShort"`
	TopNSemanticResults        int     `mapstructure:"topNSemanticResults"`
	TopKFinalResults           int     `mapstructure:"topKFinalResults"`
	OversampleFactor           int     `mapstructure:"oversampleFactor"`
	CandidatePoolLimit         int     `mapstructure:"candidatePoolLimit"`
	NearbyLimit                int     `mapstructure:"nearbyLimit"`
	DefaultDestination         string  `mapstructure:"defaultDestination"`
	MaxImagesPerPlace          int     `mapstructure:"maxImagesPerPlace"`
	ImageFetchConcurrency      int     `mapstructure:"imageFetchConcurrency"`
}

type Weights struct {
	Semantic   float64 `mapstructure:"semantic"`
	Distance   float64 `mapstructure:"distance"`
	Rating     float64 `mapstructure:"rating"`
	Popularity float64 `mapstructure:"popularity"`
}

// DefaultWeights is used when every configured weight is zero.
var DefaultWeights = Weights{Semantic: 0.4, Distance: 0.3, Rating: 0.2, Popularity: 0.1}

// Normalized rescales the weights to sum to 1. Negative weights count as zero.
func (w Weights) Normalized() Weights {
	w.Semantic = max(w.Semantic, 0)
	w.Distance = max(w.Distance, 0)
	w.Rating = max(w.Rating, 0)
	w.Popularity = max(w.Popularity, 0)
	sum := w.Semantic + w.Distance + w.Rating + w.Popularity
	if sum == 0 {
		return DefaultWeights
	}
	return Weights{
		Semantic:   w.Semantic / sum,
		Distance:   w.Distance / sum,
		Rating:     w.Rating / sum,
		Popularity: w.Popularity / sum,
	}
}

type ScoringConfig struct {
	Weights       Weights `mapstructure:"weights"`
	MaxDistanceKm float64 `mapstructure:"maxDistanceKm"`
	DecayDivisor  float64 `mapstructure:"decayDivisor"`
}

type SemanticConfig struct {
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type ItineraryConfig struct {
	MaxPromptPlaces   int                 `mapstructure:"maxPromptPlaces"`
	PrimaryQueryLimit int                 `mapstructure:"primaryQueryLimit"`
	VariantQueryLimit int                 `mapstructure:"variantQueryLimit"`
	// SavedTTL bounds how long saved itineraries live. Zero keeps them until
	// restart.
	SavedTTL time.Duration `mapstructure:"savedTTL"`
	CityVariants      map[string][]string `mapstructure:"cityVariants"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("VIETSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	config.applyDefaults()
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Default returns the embedded configuration. Tests use it to build
// components without touching the filesystem.
func Default() Config {
	var config Config
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(bytes.NewReader(embeddedConfig)); err == nil {
		_ = v.Unmarshal(&config)
	}
	config.applyDefaults()
	return config
}

// applyDefaults fills values the pipeline cannot run without.
func (c *Config) applyDefaults() {
	if c.Chat.DefaultNearbyRadiusKm <= 0 {
		c.Chat.DefaultNearbyRadiusKm = 5
	}
	if c.Chat.DefaultNearbyRadiusKmShort <= 0 {
		c.Chat.DefaultNearbyRadiusKmShort = 2
	}
	if c.Chat.TopNSemanticResults <= 0 {
		c.Chat.TopNSemanticResults = 50
	}
	if c.Chat.TopKFinalResults <= 0 {
		c.Chat.TopKFinalResults = 5
	}
	if c.Chat.OversampleFactor <= 0 {
		c.Chat.OversampleFactor = 5
	}
	if c.Chat.CandidatePoolLimit <= 0 {
		c.Chat.CandidatePoolLimit = 5000
	}
	if c.Chat.NearbyLimit <= 0 {
		c.Chat.NearbyLimit = 100
	}
	if c.Chat.DefaultDestination == "" {
		c.Chat.DefaultDestination = "Hồ Chí Minh"
	}
	if c.Chat.MaxImagesPerPlace <= 0 {
		c.Chat.MaxImagesPerPlace = 5
	}
	if c.Chat.ImageFetchConcurrency <= 0 {
		c.Chat.ImageFetchConcurrency = 4
	}
	if c.Scoring.MaxDistanceKm <= 0 {
		c.Scoring.MaxDistanceKm = 50
	}
	if c.Scoring.DecayDivisor <= 0 {
		c.Scoring.DecayDivisor = 3
	}
	if c.Semantic.CacheTTL <= 0 {
		c.Semantic.CacheTTL = 5 * time.Minute
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Weather.CacheTTL <= 0 {
		c.Weather.CacheTTL = 10 * time.Minute
	}
	if c.Itinerary.MaxPromptPlaces <= 0 {
		c.Itinerary.MaxPromptPlaces = 80
	}
	if c.Itinerary.PrimaryQueryLimit <= 0 {
		c.Itinerary.PrimaryQueryLimit = 100
	}
	if c.Itinerary.VariantQueryLimit <= 0 {
		c.Itinerary.VariantQueryLimit = 50
	}
	if c.Auth.KeyCacheTTL <= 0 {
		c.Auth.KeyCacheTTL = 15 * time.Minute
	}
}
