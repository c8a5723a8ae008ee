package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/petitecurve/storefront/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	PAAPI    PAAPIConfig    `mapstructure:"paapi"`
	Search   SearchConfig   `mapstructure:"search"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Tiers    []domain.Tier  `mapstructure:"tiers"`
	Site     SiteConfig     `mapstructure:"site"`
	Output   OutputConfig   `mapstructure:"output"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds preview server configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PAAPIConfig holds Product Advertising API credentials and endpoint settings
type PAAPIConfig struct {
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	PartnerTag        string        `mapstructure:"partner_tag"`
	Host              string        `mapstructure:"host"`
	Region            string        `mapstructure:"region"`
	Marketplace       string        `mapstructure:"marketplace"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Configured reports whether all credentials needed to call the API are present
func (c PAAPIConfig) Configured() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.PartnerTag != ""
}

// SearchConfig holds what is searched and how results are gated
type SearchConfig struct {
	Keywords           []string `mapstructure:"keywords"`
	SearchIndex        string   `mapstructure:"search_index"`
	ItemCount          int      `mapstructure:"item_count"`
	Pages              int      `mapstructure:"pages"`
	Resources          []string `mapstructure:"resources"`
	SizePattern        string   `mapstructure:"size_pattern"`
	ProductURLTemplate string   `mapstructure:"product_url_template"`
}

// ThrottleConfig holds pacing, retry and call budget settings
type ThrottleConfig struct {
	RequestDelay      time.Duration `mapstructure:"request_delay"`
	Jitter            time.Duration `mapstructure:"jitter"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	MaxAPICalls       int           `mapstructure:"max_api_calls"`
}

// SiteConfig holds branding used by the renderers
type SiteConfig struct {
	URL             string `mapstructure:"url"`
	Title           string `mapstructure:"title"`
	HeaderImage     string `mapstructure:"header_image"`
	HeaderAlt       string `mapstructure:"header_alt"`
	FeedTitle       string `mapstructure:"feed_title"`
	FeedDescription string `mapstructure:"feed_description"`
	Disclosure      string `mapstructure:"disclosure"`
	Tagline         string `mapstructure:"tagline"`
	Hashtags        string `mapstructure:"hashtags"`
	CaptionStyle    string `mapstructure:"caption_style"` // "rich" or "short"
	FallbackOnEmpty bool   `mapstructure:"fallback_on_empty"`
	FallbackTitle   string `mapstructure:"fallback_title"`
	FallbackMessage string `mapstructure:"fallback_message"`
	FallbackImage   string `mapstructure:"fallback_image"`
}

// OutputConfig holds where artifacts are written
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	HTMLFile string `mapstructure:"html_file"`
	CSVFile  string `mapstructure:"csv_file"`
	RSSFile  string `mapstructure:"rss_file"`
}

// CacheConfig holds search response cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storefront/")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also accept the names used by the deployment secrets
	_ = v.BindEnv("paapi.access_key", "STOREFRONT_PAAPI_ACCESS_KEY", "AMZ_ACCESS_KEY")
	_ = v.BindEnv("paapi.secret_key", "STOREFRONT_PAAPI_SECRET_KEY", "AMZ_SECRET_KEY")
	_ = v.BindEnv("paapi.partner_tag", "STOREFRONT_PAAPI_PARTNER_TAG", "AMZ_PARTNER_TAG")

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// DefaultKeywords is the ordered search list
var DefaultKeywords = []string{
	"women petite dress", "women petite tops", "women petite jeans",
	"women petite cardigan", "women petite blazer", "women petite trousers",

	// Plus only (adds inventory; size gate still applies)
	"women plus size dress", "women plus size tops", "women plus size jeans",
	"women plus size cardigan", "women plus size sweater", "women plus size blazer",
	"women plus size trousers", "women plus size coat", "women plus size workwear",

	// Petite with explicit XL hints
	"women petite dress xl", "women petite tops xl",
	"women petite cardigan xl", "women petite blazer xl", "women petite coat xl",
}

// DefaultResources are the SearchItems resources the extractor reads
var DefaultResources = []string{
	"CustomerReviews.Count",
	"CustomerReviews.StarRating",
	"Images.Primary.Large",
	"ItemInfo.Title",
	"ItemInfo.Features",
	"Offers.Listings.Price",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("paapi.access_key", "")
	v.SetDefault("paapi.secret_key", "")
	v.SetDefault("paapi.partner_tag", "heydealdiva-20")
	v.SetDefault("paapi.host", "webservices.amazon.com")
	v.SetDefault("paapi.region", "us-east-1")
	v.SetDefault("paapi.marketplace", "www.amazon.com")
	v.SetDefault("paapi.requests_per_second", 1.0)
	v.SetDefault("paapi.timeout", "30s")

	v.SetDefault("search.keywords", DefaultKeywords)
	v.SetDefault("search.search_index", "Fashion")
	v.SetDefault("search.item_count", 10)
	v.SetDefault("search.pages", 2)
	v.SetDefault("search.resources", DefaultResources)
	v.SetDefault("search.size_pattern", domain.DefaultSizePattern)
	v.SetDefault("search.product_url_template", domain.DefaultProductURLTemplate)

	v.SetDefault("throttle.request_delay", "6s")
	v.SetDefault("throttle.jitter", "1500ms")
	v.SetDefault("throttle.max_retries", 6)
	v.SetDefault("throttle.backoff_multiplier", 2.0)
	v.SetDefault("throttle.max_api_calls", 120)

	v.SetDefault("tiers", []map[string]interface{}{
		{"name": "strict", "min_stars": 4.2, "min_reviews": 200, "target": 12},
		{"name": "relaxed", "min_stars": 4.2, "min_reviews": 100, "target": 12, "run_below": 12},
		{"name": "loose", "min_stars": 4.0, "min_reviews": 100, "target": 8, "run_below": 8},
	})

	v.SetDefault("site.url", "https://petitecurvecollective.github.io/DailyFinds/")
	v.SetDefault("site.title", "Daily Petite-Curvy Finds")
	v.SetDefault("site.header_image", "header.png")
	v.SetDefault("site.header_alt", "Petite Curve Collective")
	v.SetDefault("site.feed_title", "Petite Curve Collective — Daily Picks")
	v.SetDefault("site.feed_description", "Daily curated petite+curvy Amazon finds (XL/XXL/0X/1X–3X).")
	v.SetDefault("site.disclosure", "As an Amazon Associate, I earn from qualifying purchases. "+
		"I also work with other top retailers and may earn when you shop my links. "+
		"At no additional cost to you.")
	v.SetDefault("site.tagline", "Petite + Curvy find")
	v.SetDefault("site.hashtags", "#petite #curvy #petitecurvy #amazonfinds #dailyfinds #outfitideas")
	v.SetDefault("site.caption_style", "rich")
	v.SetDefault("site.fallback_on_empty", true)
	v.SetDefault("site.fallback_title", "New Petite-Curvy picks are live")
	v.SetDefault("site.fallback_message", "Fresh petite + curvy finds are up now.")
	v.SetDefault("site.fallback_image", "header.png")

	v.SetDefault("output.dir", "docs")
	v.SetDefault("output.html_file", "index.html")
	v.SetDefault("output.csv_file", "daily_curated.csv")
	v.SetDefault("output.rss_file", "feed.xml")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "6h")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "storefront")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration. Missing credentials are allowed:
// the job then runs without the API and renders its empty state.
func validate(config *Config) error {
	switch config.Cache.Type {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if len(config.Search.Keywords) == 0 {
		return fmt.Errorf("at least one search keyword is required")
	}

	if config.Search.Pages < 1 {
		return fmt.Errorf("search pages must be at least 1, got: %d", config.Search.Pages)
	}

	if _, err := regexp.Compile(config.Search.SizePattern); err != nil {
		return fmt.Errorf("size pattern does not compile: %w", err)
	}

	if len(config.Tiers) == 0 {
		return fmt.Errorf("at least one relaxation tier is required")
	}
	for i, tier := range config.Tiers {
		if tier.Target < 1 {
			return fmt.Errorf("tier %d (%s) target must be at least 1", i, tier.Name)
		}
	}

	if config.Throttle.MaxRetries < 1 {
		return fmt.Errorf("throttle max_retries must be at least 1, got: %d", config.Throttle.MaxRetries)
	}

	if config.Throttle.MaxAPICalls < 1 {
		return fmt.Errorf("throttle max_api_calls must be at least 1, got: %d", config.Throttle.MaxAPICalls)
	}

	if config.Throttle.BackoffMultiplier < 1 {
		return fmt.Errorf("throttle backoff_multiplier must be >= 1, got: %v", config.Throttle.BackoffMultiplier)
	}

	if config.Site.CaptionStyle != "rich" && config.Site.CaptionStyle != "short" {
		return fmt.Errorf("caption style must be 'rich' or 'short', got: %s", config.Site.CaptionStyle)
	}

	return nil
}
