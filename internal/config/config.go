package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"voxbridge/internal/logger"
	"voxbridge/internal/similarity"
	"voxbridge/internal/stt"
	"voxbridge/internal/translate"
)

// Config holds the whole service configuration.
type Config struct {
	Server     ServerConfig
	Log        logger.Config
	STT        stt.Config
	Translate  translate.Config
	Similarity similarity.Config
}

// ServerConfig holds HTTP transport settings.
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	ModelName      string
	EngineTimeout  time.Duration
	MaxUploadSize  int64
	TempDir        string
	AllowedOrigins []string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (environment wins). The YAML file is CONFIG_FILE or ./config.yml.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		if _, err := os.Stat("config.yml"); err == nil {
			configFile = "config.yml"
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5001)
	v.SetDefault("gin_mode", "")
	v.SetDefault("model_name", "medium")
	v.SetDefault("engine_timeout", "120s")
	v.SetDefault("max_upload_size", "25MB")
	v.SetDefault("temp_dir", "")
	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stdout")
	v.SetDefault("log_file", "logs/voxbridge.log")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age", 28)
	v.SetDefault("log_compress", false)
	v.SetDefault("log_no_color", false)

	v.SetDefault("stt_provider", stt.ProviderLocal)
	v.SetDefault("whisper_url", "http://localhost:8387")
	v.SetDefault("whisper_model", "medium")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_transcription_model", "whisper-1")
	v.SetDefault("openai_chat_model", "gpt-4o-mini")
	v.SetDefault("openai_embedding_model", "text-embedding-3-small")
	v.SetDefault("google_stt_project_id", "")
	v.SetDefault("google_stt_key_file", "")
	v.SetDefault("google_stt_url", "https://speech.googleapis.com/v1/speech:recognize")

	v.SetDefault("translate_provider", translate.ProviderGoogle)
	v.SetDefault("google_translate_key", "")
	v.SetDefault("google_translate_url", "https://translation.googleapis.com/language/translate/v2")

	v.SetDefault("similarity_provider", similarity.DefaultProvider)
	v.SetDefault("ollama_url", similarity.DefaultOllamaURL)
	v.SetDefault("ollama_embedding_model", similarity.DefaultOllamaModel)
}

func fromViper(v *viper.Viper) *Config {
	openAIKey := v.GetString("openai_api_key")
	openAIBaseURL := v.GetString("openai_base_url")

	translateKey := v.GetString("google_translate_key")
	if translateKey == "" {
		translateKey = v.GetString("google_stt_key_file")
	}

	return &Config{
		Server: ServerConfig{
			Host:           v.GetString("host"),
			Port:           v.GetInt("port"),
			GinMode:        v.GetString("gin_mode"),
			ModelName:      v.GetString("model_name"),
			EngineTimeout:  secondsOrDuration(v.GetString("engine_timeout")),
			MaxUploadSize:  int64(v.GetSizeInBytes("max_upload_size")),
			TempDir:        v.GetString("temp_dir"),
			AllowedOrigins: stringList(v, "cors_allowed_origins"),
		},
		Log: logger.Config{
			Level:      v.GetString("log_level"),
			Format:     v.GetString("log_format"),
			Output:     v.GetString("log_output"),
			File:       v.GetString("log_file"),
			MaxSize:    v.GetInt("log_max_size"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAge:     v.GetInt("log_max_age"),
			Compress:   v.GetBool("log_compress"),
			NoColor:    v.GetBool("log_no_color"),
		},
		STT: stt.Config{
			Provider:        strings.ToLower(v.GetString("stt_provider")),
			WhisperURL:      v.GetString("whisper_url"),
			WhisperModel:    v.GetString("whisper_model"),
			OpenAIKey:       openAIKey,
			OpenAIBaseURL:   openAIBaseURL,
			OpenAIModel:     v.GetString("openai_transcription_model"),
			GoogleProjectID: v.GetString("google_stt_project_id"),
			GoogleKey:       v.GetString("google_stt_key_file"),
			GoogleURL:       v.GetString("google_stt_url"),
		},
		Translate: translate.Config{
			Provider:      strings.ToLower(v.GetString("translate_provider")),
			GoogleKey:     translateKey,
			GoogleURL:     v.GetString("google_translate_url"),
			OpenAIKey:     openAIKey,
			OpenAIBaseURL: openAIBaseURL,
			OpenAIModel:   v.GetString("openai_chat_model"),
		},
		Similarity: similarity.Config{
			Provider:      strings.ToLower(v.GetString("similarity_provider")),
			OllamaURL:     v.GetString("ollama_url"),
			OllamaModel:   v.GetString("ollama_embedding_model"),
			OpenAIKey:     openAIKey,
			OpenAIBaseURL: openAIBaseURL,
			OpenAIModel:   v.GetString("openai_embedding_model"),
		},
	}
}

// Validate checks server limits and delegates to each section.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535 (got: %d)", c.Server.Port)
	}
	if c.Server.EngineTimeout <= 0 {
		return fmt.Errorf("ENGINE_TIMEOUT must be positive (got: %s)", c.Server.EngineTimeout)
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive (got: %d)", c.Server.MaxUploadSize)
	}
	switch c.Server.GinMode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be one of debug, release, test (got: %s)", c.Server.GinMode)
	}
	if c.Server.ModelName == "" {
		return fmt.Errorf("MODEL_NAME must not be empty")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.STT.Validate(); err != nil {
		return err
	}
	if err := c.Translate.Validate(); err != nil {
		return err
	}
	return c.Similarity.Validate()
}

// secondsOrDuration accepts "90" as seconds as well as Go duration strings.
// Unparseable values yield 0 and fail validation.
func secondsOrDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// stringList reads a YAML sequence as is and splits strings on commas.
func stringList(v *viper.Viper, key string) []string {
	switch v.Get(key).(type) {
	case []interface{}, []string:
		return v.GetStringSlice(key)
	default:
		return splitList(v.GetString(key))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
