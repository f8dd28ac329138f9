package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		env               map[string]string
		wantErr           bool
		want              *Config
		wantErrorContains []string
	}{
		{
			name:          "defaults only",
			configContent: "",
			wantErr:       false,
			want: &Config{
				Bot: BotConfig{
					Prefix: "!",
				},
				Translation: TranslationConfig{
					ChannelIDs:             []string{},
					MinMessageLength:       3,
					MaxMessageLength:       2000,
					RateLimitPerUser:       10,
					RateLimitWindowSeconds: 3600,
				},
				LLM: LLMConfig{
					Model:          "gpt-3.5-turbo",
					BaseURL:        "https://api.openai.com/v1",
					TimeoutSeconds: 60,
				},
				Discord: DiscordConfig{
					APIBaseURL:          "https://discord.com/api/v10",
					PollIntervalSeconds: 5,
				},
			},
		},
		{
			name: "config file overrides defaults",
			configContent: `bot:
  prefix: "?"
  guild_id: "123456"
translation:
  channel_ids:
    - "111"
    - "222"
  min_message_length: 5
llm:
  model: gpt-4o-mini
  timeout_seconds: 30
`,
			wantErr: false,
			want: &Config{
				Bot: BotConfig{
					Prefix:  "?",
					GuildID: "123456",
				},
				Translation: TranslationConfig{
					ChannelIDs:             []string{"111", "222"},
					MinMessageLength:       5,
					MaxMessageLength:       2000,
					RateLimitPerUser:       10,
					RateLimitWindowSeconds: 3600,
				},
				LLM: LLMConfig{
					Model:          "gpt-4o-mini",
					BaseURL:        "https://api.openai.com/v1",
					TimeoutSeconds: 30,
				},
				Discord: DiscordConfig{
					APIBaseURL:          "https://discord.com/api/v10",
					PollIntervalSeconds: 5,
				},
			},
		},
		{
			name: "environment variables override config file",
			configContent: `llm:
  model: gpt-4o-mini
`,
			env: map[string]string{
				"BOT_TOKEN":               "token-from-env",
				"LLM_API_KEY":             "key-from-env",
				"LLM_MODEL":               "gpt-4o",
				"TRANSLATION_CHANNEL_IDS": "333,444",
			},
			wantErr: false,
			want: &Config{
				Bot: BotConfig{
					Token:  "token-from-env",
					Prefix: "!",
				},
				Translation: TranslationConfig{
					ChannelIDs:             []string{"333", "444"},
					MinMessageLength:       3,
					MaxMessageLength:       2000,
					RateLimitPerUser:       10,
					RateLimitWindowSeconds: 3600,
				},
				LLM: LLMConfig{
					APIKey:         "key-from-env",
					Model:          "gpt-4o",
					BaseURL:        "https://api.openai.com/v1",
					TimeoutSeconds: 60,
				},
				Discord: DiscordConfig{
					APIBaseURL:          "https://discord.com/api/v10",
					PollIntervalSeconds: 5,
				},
			},
		},
		{
			name: "trailing comma in channel list is dropped",
			env: map[string]string{
				"TRANSLATION_CHANNEL_IDS": "333,",
			},
			wantErr: false,
			want: &Config{
				Bot: BotConfig{
					Prefix: "!",
				},
				Translation: TranslationConfig{
					ChannelIDs:             []string{"333"},
					MinMessageLength:       3,
					MaxMessageLength:       2000,
					RateLimitPerUser:       10,
					RateLimitWindowSeconds: 3600,
				},
				LLM: LLMConfig{
					Model:          "gpt-3.5-turbo",
					BaseURL:        "https://api.openai.com/v1",
					TimeoutSeconds: 60,
				},
				Discord: DiscordConfig{
					APIBaseURL:          "https://discord.com/api/v10",
					PollIntervalSeconds: 5,
				},
			},
		},
		{
			name: "invalid YAML format",
			configContent: `bot:
  invalid yaml here [[[
`,
			wantErr: true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "non-numeric guild ID is rejected",
			configContent: `bot:
  guild_id: not-a-number
`,
			wantErr: true,
			wantErrorContains: []string{
				"invalid configuration",
				"guild_id must be a numeric platform ID",
			},
		},
		{
			name: "non-numeric channel ID is rejected",
			configContent: `translation:
  channel_ids:
    - "111"
    - "general"
`,
			wantErr: true,
			wantErrorContains: []string{
				"invalid configuration",
			},
		},
		{
			name: "zero minimum length is rejected",
			configContent: `translation:
  min_message_length: 0
`,
			wantErr: true,
			wantErrorContains: []string{
				"invalid configuration",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			for envVar, value := range tt.env {
				t.Setenv(envVar, value)
			}

			var configPath string
			if tt.configContent != "" {
				configPath = filepath.Join(tempDir, "config.yaml")
				err := os.WriteFile(configPath, []byte(tt.configContent), 0644)
				require.NoError(t, err)
			} else {
				// run in an empty directory so no ambient config file is found
				originalDir, err := os.Getwd()
				require.NoError(t, err)
				defer func() {
					err := os.Chdir(originalDir)
					require.NoError(t, err)
				}()

				err = os.Chdir(tempDir)
				require.NoError(t, err)
			}

			got, err := Load(configPath)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}
