package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/Astemirdum/library-lending/pkg/logger"
	"github.com/Astemirdum/library-lending/pkg/postgres"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	AuditSinkPostgres = "postgres"
	AuditSinkKafka    = "kafka"
	AuditSinkMemory   = "memory"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LENDING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LENDING_HTTP_PORT" default:"8060"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Loan struct {
	DefaultDays int `envconfig:"LOAN_DEFAULT_DAYS" default:"14"`
	MaxDays     int `envconfig:"LOAN_MAX_DAYS" default:"90"`
	// InvalidPeriod is reject or clamp.
	InvalidPeriod string `envconfig:"LOAN_INVALID_PERIOD" default:"reject"`
}

type Audit struct {
	// Sink defaults to the storage backend.
	Sink       string `envconfig:"AUDIT_SINK"`
	BufferSize int    `envconfig:"AUDIT_BUFFER_SIZE" default:"256"`
	Breaker    circuit_breaker.Config
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Log      logger.Log   `yaml:"log"`
	// Storage is postgres or memory.
	Storage string `envconfig:"STORAGE"`
	// SeedFile is a JSON fixture of books and readers for memory storage.
	SeedFile string `envconfig:"SEED_FILE"`
	Loan     Loan
	Audit    Audit
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		if config.Storage == "" {
			config.Storage = StoragePostgres
		}
		if config.Audit.Sink == "" {
			config.Audit.Sink = config.Storage
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	masked := *cfg
	masked.Database.Password = "***"
	jscfg, _ := jsoniter.MarshalIndent(masked, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
