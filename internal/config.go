package internal

import (
	"chat-relay/domain"
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"

	TranslatorOpenAI = "openai"
	TranslatorNone   = "none"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0" validate:"required"`
	Port     int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	GrpcPort int    `env:"GRPC_PORT,default=9090" validate:"min=1,max=65535,nefield=Port"`
	LogLevel string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	// The inspector only starts when LOG_LEVEL is DEBUG
	DebugPort int `env:"DEBUG_PORT,default=8081" validate:"min=1,max=65535"`

	JwtSecret         string        `env:"JWT_SECRET,required=true" validate:"min=32"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h" validate:"gt=0"`

	DirectoryBackend string `env:"DIRECTORY_BACKEND,default=badger" validate:"oneof=badger postgres"`
	BadgerFilepath   string `env:"BADGER_FILEPATH,default=./data/badger" validate:"required_if=DirectoryBackend badger"`
	BlugeFilepath    string `env:"BLUGE_FILEPATH,default=./data/bluge"`
	PostgresDSN      string `env:"POSTGRES_DSN" validate:"required_if=DirectoryBackend postgres"`

	DefaultLanguage    string `env:"DEFAULT_LANGUAGE,default=en" validate:"required"`
	SupportedLanguages string `env:"SUPPORTED_LANGUAGES"`
	MaxMessageLength   int    `env:"MAX_MESSAGE_LENGTH,default=2000" validate:"min=1"`

	TranslatorBackend  string        `env:"TRANSLATOR_BACKEND,default=openai" validate:"oneof=openai none"`
	OpenAIApiKey       string        `env:"OPENAI_API_KEY" validate:"required_if=TranslatorBackend openai"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	OpenAIModel        string        `env:"OPENAI_MODEL,default=gpt-4o-mini" validate:"required"`
	TranslationWorkers int           `env:"TRANSLATION_WORKERS,default=8" validate:"min=1"`
	TranslationTimeout time.Duration `env:"TRANSLATION_TIMEOUT,default=5s" validate:"gt=0"`
	SkipSameLanguage   bool          `env:"SKIP_SAME_LANGUAGE,default=true"`

	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s" validate:"gt=0"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	InboxSize            int           `env:"INBOX_SIZE,default=32" validate:"min=1"`
	LookupConcurrency    int           `env:"LOOKUP_CONCURRENCY,default=16" validate:"min=1"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024" validate:"min=1"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	LatencyThreshold     time.Duration `env:"LATENCY_THRESHOLD,default=500ms" validate:"gt=0"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10" validate:"min=0,max=100"`

	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`
	CensorEnabled    bool   `env:"CENSOR_ENABLED,default=true"`
	CensoredWordsDir string `env:"CENSORED_WORDS_DIR"`
}

var validate = validator.New()

// storeFields are the keys the operator CLI needs; the relay validates everything.
var storeFields = []string{"LogLevel", "JwtSecret", "AuthTokenDuration", "DirectoryBackend",
	"BadgerFilepath", "BlugeFilepath", "PostgresDSN"}

// LoadConfig reads an optional .env file, then the environment, then validates.
// Variables already set in the environment win over the file.
func LoadConfig(files ...string) (Config, error) {
	config, err := load(files)
	if err != nil {
		return Config{}, err
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(config.CharReplacement); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadStoreConfig only validates what opening the directory and issuing tokens requires.
func LoadStoreConfig(files ...string) (Config, error) {
	config, err := load(files)
	if err != nil {
		return Config{}, err
	}
	if err := validate.StructPartial(config, storeFields...); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func load(files []string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		// A missing file is fine, deployments pass the real environment
		_ = godotenv.Load(file)
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return config, nil
}

func (c Config) Languages() []domain.Language {
	if c.SupportedLanguages == "" {
		return domain.DefaultSupportedLanguages
	}
	return domain.ParseLanguages(c.SupportedLanguages)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
