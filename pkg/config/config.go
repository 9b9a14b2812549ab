package config

import (
	"time"
)

type DB struct {
	Driver      string `envconfig:"DRIVER" default:"sqlite" validate:"oneof=sqlite postgres"`
	Url         string `envconfig:"URL" default:"uploads.db" validate:"required"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	MaxOpenConn int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"csvup:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string      `envconfig:"BROKERS"`
	TopicPrefix string        `envconfig:"TOPIC_PREFIX" default:"csvup"`
	ClientID    string        `envconfig:"CLIENT_ID" default:"csvup-server"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Ingest tunes the ingestion pipeline.
type Ingest struct {
	ChunkSize         int      `envconfig:"CHUNK_SIZE" default:"1000" validate:"min=1"`
	MaxReportedErrors int      `envconfig:"MAX_REPORTED_ERRORS" default:"10" validate:"min=1"`
	AllowedExtensions []string `envconfig:"ALLOWED_EXTENSIONS" default:".csv" validate:"min=1,dive,startswith=."`
}

// HistoryCache controls caching of finalized upload history lookups.
type HistoryCache struct {
	TTL time.Duration `envconfig:"TTL" default:"10m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[csvup]"`
}

type Server struct {
	Scheme      string   `envconfig:"SCHEME" default:"http"`
	Host        string   `envconfig:"HOST" default:"localhost"`
	Port        int      `envconfig:"PORT" default:"3000"`
	BodyLimit   int      `envconfig:"BODY_LIMIT" default:"52428800"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
}

type App struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Server       *Server       `envconfig:"SERVER"`
	Log          *Log          `envconfig:"LOG"`
	DB           *DB           `envconfig:"DATABASE"`
	Ingest       *Ingest       `envconfig:"INGEST"`
	HistoryCache *HistoryCache `envconfig:"HISTORY_CACHE"`
	Redis        *Redis        `envconfig:"REDIS"`
	Kafka        *Kafka        `envconfig:"KAFKA"`
	RateLimit    *RateLimit    `envconfig:"RATE_LIMIT"`
}
