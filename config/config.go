package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de qmoney.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig controla el cliente de Tiingo.
// El token se lee preferentemente de TIINGO_TOKEN; nunca va en el código.
type APIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Token          string  `yaml:"token"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	MaxRetries     int     `yaml:"max_retries"`     // 0 = sin reintentos
	TimeoutSeconds int     `yaml:"timeout_seconds"` // 0 = sin timeout
}

// PortfolioConfig controla el cálculo de retornos.
type PortfolioConfig struct {
	Workers int `yaml:"workers"` // 1 = secuencial
}

// StorageConfig controla dónde se persiste el historial de runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite; vacío = sin historial
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan los defaults; las variables de entorno siempre
// sobreescriben.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba los valores requeridos para hacer fetch de precios.
func (c *Config) Validate() error {
	if c.API.Token == "" {
		return errors.New("config: missing API token (set TIINGO_TOKEN)")
	}
	return nil
}

// Timeout devuelve el timeout HTTP como time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIINGO_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("TIINGO_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("QMONEY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Portfolio.Workers = n
		}
	}
	if v := os.Getenv("QMONEY_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.tiingo.com"
	}
	if cfg.API.RatePerSec <= 0 {
		cfg.API.RatePerSec = 5
	}
	if cfg.API.MaxRetries < 0 {
		cfg.API.MaxRetries = 0
	}
	if cfg.Portfolio.Workers <= 0 {
		cfg.Portfolio.Workers = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
