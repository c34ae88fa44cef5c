package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"spotlight-coach"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Security Security
	AI       AI
	Speech   Speech
	Practice Practice
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// DSN renders the key/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// LoadPostgres parses only the database section, for tools that never touch
// the rest of the stack.
func LoadPostgres() (Postgres, error) {
	var pg Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		return Postgres{}, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}

// Redis holds session, preference and audio cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing learner tokens.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// AI configures the tutor's language model. An empty key is allowed at boot:
// every chat request then resolves to a missing-credential apology.
type AI struct {
	GeminiKey   string        `env:"GEMINI_API_KEY" envDefault:""`
	GeminiModel string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	BaseURL     string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"20s"`
	ChatTimeout time.Duration `env:"TUTOR_CHAT_TIMEOUT" envDefault:"25s"`
}

// Speech configures Google Cloud text-to-speech and speech-to-text.
type Speech struct {
	GoogleKey         string        `env:"GOOGLE_SPEECH_API_KEY" envDefault:""`
	TTSURL            string        `env:"GOOGLE_TTS_URL" envDefault:"https://texttospeech.googleapis.com/v1/text:synthesize"`
	STTURL            string        `env:"GOOGLE_STT_URL" envDefault:"https://speech.googleapis.com/v1/speech:recognize"`
	HTTPTimeout       time.Duration `env:"SPEECH_HTTP_TIMEOUT" envDefault:"10s"`
	TranscribeTimeout time.Duration `env:"SPEECH_TRANSCRIBE_TIMEOUT" envDefault:"15s"`
	AudioCacheTTL     time.Duration `env:"SPEECH_AUDIO_CACHE_TTL" envDefault:"24h"`
	MaxClipBytes      int           `env:"SPEECH_MAX_CLIP_BYTES" envDefault:"5242880"`
}

// Practice governs stored quiz sessions.
type Practice struct {
	SessionTTL time.Duration `env:"PRACTICE_SESSION_TTL" envDefault:"2h"`
	LockTTL    time.Duration `env:"PRACTICE_LOCK_TTL" envDefault:"5s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
