package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// Config is built once at startup and handed to constructors; nothing reads it globally.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	OCR       OCRConfig       `yaml:"ocr"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Summary   SummaryConfig   `yaml:"summary"`
	Entities  EntitiesConfig  `yaml:"entities"`
	Output    OutputConfig    `yaml:"output"`
	Batch     BatchConfig     `yaml:"batch"`
	Logging   logger.Config   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Textract  TextractConfig  `yaml:"textract"`
	Queue     QueueConfig     `yaml:"queue"`
	Server    ServerConfig    `yaml:"server"`
}

type BackendConfig struct {
	Mode string `yaml:"mode"` // embedded, layout, ocr or auto
}

type OCRConfig struct {
	DPI        int      `yaml:"dpi"`
	Lang       string   `yaml:"lang"`
	Engine     string   `yaml:"engine"`     // tesseract or textract
	Preprocess []string `yaml:"preprocess"` // image steps applied before recognition
}

type NormalizeConfig struct {
	RemoveExtraWhitespace bool `yaml:"remove_extra_whitespace"`
	FixLineBreaks         bool `yaml:"fix_line_breaks"`
	RemoveHeadersFooters  bool `yaml:"remove_headers_footers"`
	NormalizeCharacters   bool `yaml:"normalize_characters"`
}

type KeywordsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Count    int    `yaml:"count"`
	Language string `yaml:"language"`
}

type SummaryConfig struct {
	Enabled   bool `yaml:"enabled"`
	Sentences int  `yaml:"sentences"`
}

type EntitiesConfig struct {
	ExtractEmails bool `yaml:"extract_emails"`
	ExtractPhones bool `yaml:"extract_phones"`
	ExtractURLs   bool `yaml:"extract_urls"`
	ExtractDates  bool `yaml:"extract_dates"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	SaveText  bool   `yaml:"save_text"`
	SaveJSON  bool   `yaml:"save_json"`
	SavePages bool   `yaml:"save_pages"`
	Storage   string `yaml:"storage"` // local, s3 or minio
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

type StorageConfig struct {
	S3    S3Config    `yaml:"s3"`
	Minio MinioConfig `yaml:"minio"`
}

type QueueConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Concurrency   int           `yaml:"concurrency"`
	MaxRetry      int           `yaml:"max_retry"`
	Timeout       time.Duration `yaml:"timeout"`
	StatusTTL     time.Duration `yaml:"status_ttl"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
	MaxSyncSize   int64  `yaml:"max_sync_size"`   // bytes accepted by the synchronous endpoint
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{Mode: "auto"},
		OCR: OCRConfig{
			DPI:    300,
			Lang:   "eng",
			Engine: "tesseract",
		},
		Normalize: NormalizeConfig{
			RemoveExtraWhitespace: true,
			FixLineBreaks:         true,
			RemoveHeadersFooters:  false,
			NormalizeCharacters:   true,
		},
		Keywords: KeywordsConfig{
			Enabled:  true,
			Count:    15,
			Language: "english",
		},
		Summary: SummaryConfig{
			Enabled:   false,
			Sentences: 5,
		},
		Entities: EntitiesConfig{
			ExtractEmails: true,
			ExtractPhones: true,
			ExtractURLs:   true,
			ExtractDates:  true,
		},
		Output: OutputConfig{
			Dir:      "output",
			SaveText: true,
			SaveJSON: true,
			Storage:  "local",
		},
		Batch:   BatchConfig{Workers: 4},
		Logging: logger.DefaultConfig(),
		Storage: StorageConfig{
			S3:    S3Config{Region: "us-east-1"},
			Minio: MinioConfig{Region: "us-east-1"},
		},
		Textract: TextractConfig{
			Region:        "us-east-1",
			MinConfidence: 80,
		},
		Queue: QueueConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 10,
			MaxRetry:    3,
			Timeout:     30 * time.Minute,
			StatusTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 100 << 20,
			MaxSyncSize:   10 << 20,
		},
	}
}

// Load reads a YAML (or JSON) file over the defaults, then applies .env and environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// a missing .env is normal outside development
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend.Mode) {
	case "embedded", "layout", "ocr", "auto", "pypdf", "pdfplumber":
	default:
		return fmt.Errorf("invalid backend mode: %q", c.Backend.Mode)
	}

	if c.OCR.DPI < 1 {
		return fmt.Errorf("ocr dpi must be positive, got %d", c.OCR.DPI)
	}
	if c.OCR.Engine != "tesseract" && c.OCR.Engine != "textract" {
		return fmt.Errorf("invalid ocr engine: %q", c.OCR.Engine)
	}

	if c.Keywords.Count < 0 {
		return fmt.Errorf("keywords count must not be negative, got %d", c.Keywords.Count)
	}
	if c.Summary.Sentences < 1 {
		return fmt.Errorf("summary sentences must be positive, got %d", c.Summary.Sentences)
	}

	switch strings.ToLower(c.Output.Storage) {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("invalid output storage: %q", c.Output.Storage)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be positive, got %d", c.Batch.Workers)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDFX_BACKEND_MODE"); v != "" {
		cfg.Backend.Mode = v
	}
	if v := os.Getenv("PDFX_OCR_LANG"); v != "" {
		cfg.OCR.Lang = v
	}
	if v := os.Getenv("PDFX_OCR_ENGINE"); v != "" {
		cfg.OCR.Engine = v
	}
	if v, ok := envInt("PDFX_OCR_DPI"); ok {
		cfg.OCR.DPI = v
	}
	if v := os.Getenv("PDFX_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("PDFX_OUTPUT_STORAGE"); v != "" {
		cfg.Output.Storage = v
	}
	if v, ok := envInt("PDFX_BATCH_WORKERS"); ok {
		cfg.Batch.Workers = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Encoding = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Queue.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Queue.RedisPassword = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	cfg.Storage.S3.applyEnv()
	cfg.Storage.Minio.applyEnv()
	cfg.Textract.applyEnv()
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
