package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	HTTPServer `yaml:"http_server"`
	Redis      Redis     `yaml:"redis"`
	CacheRedis Redis     `yaml:"cache_redis"`
	AppConfig  AppConfig `yaml:"app_config"`
	Shortener  Shortener `yaml:"shortener"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Redis describes a single Redis endpoint. The same shape is used for the
// primary datastore and for the configuration cache backing store, which may
// point at different deployments.
type Redis struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
}

// AppConfig describes the authoritative configuration source the config
// cache pulls documents from on a miss.
type AppConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Application    string        `yaml:"application"`
	Environment    string        `yaml:"environment"`
	Profile        string        `yaml:"profile"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

var defaultAppConfig = AppConfig{
	Endpoint:       "http://localhost:2772",
	Application:    "cloud-url-shortener",
	Environment:    "dev",
	Profile:        "shortener",
	RequestTimeout: 5 * time.Second,
}

// Shortener holds link retention and the fallback codec/quota parameters used
// when no configuration document has ever been cached and the source is down.
type Shortener struct {
	LinkTTL  time.Duration `yaml:"link_ttl"`
	Fallback Fallback      `yaml:"fallback"`
}

type Fallback struct {
	Salt             string `yaml:"salt"`
	Multiplier       uint64 `yaml:"multiplier"`
	ShortcodeLength  int    `yaml:"shortcode_length"`
	UserMonthlyQuota int64  `yaml:"user_monthly_quota"`
	LinkHitsQuota    int64  `yaml:"link_hits_quota"`
}

var defaultShortener = Shortener{
	LinkTTL: 365 * 24 * time.Hour,
	Fallback: Fallback{
		Salt:             "default_salt",
		Multiplier:       1315423911,
		ShortcodeLength:  7,
		UserMonthlyQuota: 20,
		LinkHitsQuota:    10000,
	},
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Redis = defaultRedis
	cfg.CacheRedis = defaultRedis
	cfg.AppConfig = defaultAppConfig
	cfg.Shortener = defaultShortener
}
