package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Speech   SpeechConfig   `yaml:"speech"`
	Chat     ChatConfig     `yaml:"chat"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Callback CallbackConfig `yaml:"callback"`
	Recorder RecorderConfig `yaml:"recorder"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"auto"`
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

type SpeechConfig struct {
	GatewayURL string        `yaml:"gateway_url" env:"AI_GATEWAY_URL"`
	APIKey     string        `yaml:"api_key" env:"AI_GATEWAY_API_KEY"`
	Language   string        `yaml:"language" env-default:"pt"`
	TextModel  string        `yaml:"text_model" env-default:"@cf/openai/gpt-oss-20b"`
	Timeout    time.Duration `yaml:"timeout" env-default:"90s"`
}

type ChatConfig struct {
	ContextLimit int `yaml:"context_limit" env-default:"30000"`
	TitleLimit   int `yaml:"title_limit" env-default:"10000"`
}

type WebhookConfig struct {
	IdentitySecret string `yaml:"identity_secret" env:"IDENTITY_WEBHOOK_SECRET"`
}

type CallbackConfig struct {
	APIKey string `yaml:"api_key" env:"TRANSCRIPTIONS_API_KEY"`
}

type RecorderConfig struct {
	SliceInterval time.Duration `yaml:"slice_interval" env-default:"10s"`
	StorePath     string        `yaml:"store_path" env-default:"umo-chunks.db"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	}
}
