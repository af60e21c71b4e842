package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Log          Log
	Auth         Auth
	Evaluator    Evaluator
	Grading      Grading
	Attempts     Attempts
	Redis        Redis
	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Driver   string // postgres | sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	DSN      string // sqlite file path, or a full postgres DSN overriding the fields above
}

type Log struct {
	Level  string
	Format string // console | json
}

type Auth struct {
	JWTSecret string
}

type Evaluator struct {
	Provider       string // gemini | openai | none
	GeminiModel    string
	OpenAIApiKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	Timeout        time.Duration
	MaxConcurrency int

	// TranscribeSpeech lets grading transcribe recorded speaking answers
	// through Gemini before evaluation.
	TranscribeSpeech bool
}

// Grading thresholds: a long answer counts as correct when the evaluator's
// normalized score reaches the threshold of its section type.
type Grading struct {
	GenericThreshold  float64
	WritingThreshold  float64
	SpeakingThreshold float64
}

type Attempts struct {
	DefaultExamDuration time.Duration
	ExpirySweepSpec     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	ExamTTL  time.Duration
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("EVALUATOR_PROVIDER", "gemini")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("EVALUATOR_TIMEOUT", "20s")
	viper.SetDefault("EVALUATOR_MAX_CONCURRENCY", 4)
	viper.SetDefault("TRANSCRIBE_SPEECH", true)
	viper.SetDefault("GRADING_GENERIC_THRESHOLD", 0.7)
	viper.SetDefault("GRADING_WRITING_THRESHOLD", 0.6)
	viper.SetDefault("GRADING_SPEAKING_THRESHOLD", 0.6)
	viper.SetDefault("DEFAULT_EXAM_DURATION", "120m")
	viper.SetDefault("EXPIRY_SWEEP_SPEC", "@every 1m")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("EXAM_CACHE_TTL", "5m")
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.DSN = viper.GetString("DATABASE_DSN")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Evaluator.Provider = viper.GetString("EVALUATOR_PROVIDER")
	config.Evaluator.GeminiModel = viper.GetString("GEMINI_MODEL")
	config.Evaluator.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")
	config.Evaluator.OpenAIBaseURL = viper.GetString("OPENAI_BASE_URL")
	config.Evaluator.OpenAIModel = viper.GetString("OPENAI_MODEL")
	config.Evaluator.Timeout = viper.GetDuration("EVALUATOR_TIMEOUT")
	config.Evaluator.MaxConcurrency = viper.GetInt("EVALUATOR_MAX_CONCURRENCY")
	config.Evaluator.TranscribeSpeech = viper.GetBool("TRANSCRIBE_SPEECH")

	config.Grading.GenericThreshold = viper.GetFloat64("GRADING_GENERIC_THRESHOLD")
	config.Grading.WritingThreshold = viper.GetFloat64("GRADING_WRITING_THRESHOLD")
	config.Grading.SpeakingThreshold = viper.GetFloat64("GRADING_SPEAKING_THRESHOLD")

	config.Attempts.DefaultExamDuration = viper.GetDuration("DEFAULT_EXAM_DURATION")
	config.Attempts.ExpirySweepSpec = viper.GetString("EXPIRY_SWEEP_SPEC")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.ExamTTL = viper.GetDuration("EXAM_CACHE_TTL")

	log.Info().
		Str("port", config.Server.Port).
		Str("dbDriver", config.Database.Driver).
		Str("evaluator", config.Evaluator.Provider).
		Bool("redis", config.Redis.Addr != "").
		Msg("Config loaded")
	return &config, nil
}
