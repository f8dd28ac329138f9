package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Bot         BotConfig         `mapstructure:"bot"`
	Translation TranslationConfig `mapstructure:"translation"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Discord     DiscordConfig     `mapstructure:"discord"`
}

type BotConfig struct {
	Token   string `mapstructure:"token"`
	Prefix  string `mapstructure:"prefix" validate:"required"`
	GuildID string `mapstructure:"guild_id" validate:"omitempty,snowflake"`
}

type TranslationConfig struct {
	// ChannelIDs restricts where the trigger reaction is offered. Empty
	// means every visible channel.
	ChannelIDs       []string `mapstructure:"channel_ids" validate:"dive,snowflake"`
	MinMessageLength int      `mapstructure:"min_message_length" validate:"gte=1"`
	MaxMessageLength int      `mapstructure:"max_message_length" validate:"gte=1"`

	// Rate limiting is declared but not enforced anywhere yet.
	RateLimitPerUser       int `mapstructure:"rate_limit_per_user"`
	RateLimitWindowSeconds int `mapstructure:"rate_limit_window_seconds"`
}

type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model" validate:"required"`
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1"`
	RetryAttempts  uint   `mapstructure:"retry_attempts"`
}

type DiscordConfig struct {
	APIBaseURL          string `mapstructure:"api_base_url" validate:"required,url"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" validate:"gte=1"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/glotbot")
	}

	v.SetDefault("bot.prefix", "!")
	v.SetDefault("translation.min_message_length", 3)
	v.SetDefault("translation.max_message_length", 2000)
	v.SetDefault("translation.rate_limit_per_user", 10)
	v.SetDefault("translation.rate_limit_window_seconds", 3600)
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("llm.retry_attempts", 0)
	v.SetDefault("discord.api_base_url", "https://discord.com/api/v10")
	v.SetDefault("discord.poll_interval_seconds", 5)

	// Bind secrets and deployment-specific values to environment variables
	envBindings := map[string]string{
		"bot.token":                             "BOT_TOKEN",
		"bot.prefix":                            "BOT_PREFIX",
		"bot.guild_id":                          "GUILD_ID",
		"translation.channel_ids":               "TRANSLATION_CHANNEL_IDS",
		"translation.min_message_length":        "MIN_MESSAGE_LENGTH",
		"translation.max_message_length":        "MAX_MESSAGE_LENGTH",
		"translation.rate_limit_per_user":       "TRANSLATION_RATE_LIMIT",
		"translation.rate_limit_window_seconds": "TRANSLATION_RATE_WINDOW",
		"llm.api_key":                           "LLM_API_KEY",
		"llm.model":                             "LLM_MODEL",
		"llm.base_url":                          "LLM_BASE_URL",
	}
	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", envVar, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	// Numeric values bound to environment variables arrive as strings.
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Translation.ChannelIDs = dropEmpty(cfg.Translation.ChannelIDs)

	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("newValidator > %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(trans))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// dropEmpty removes blank entries left over from values like a trailing
// comma in TRANSLATION_CHANNEL_IDS.
func dropEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		result = append(result, strings.TrimSpace(value))
	}
	return result
}
