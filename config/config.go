package config

import (
	"fmt"
	"log"
	"os"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads the configuration from environment variables and the optional
// config.yaml tunables file.
func Load() (*model.Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	appID := os.Getenv("APP_ID")
	if appID == "" {
		log.Fatal("Error: APP_ID environment variable not set")
	}

	logChannelID := os.Getenv("LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, log-channel reporting will be disabled")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./data")

	v.SetDefault("sweep.interval", "6h")
	v.SetDefault("sweep.workers", 3)
	v.SetDefault("leaderboard.interval", "10m")
	v.SetDefault("defaults.reaction_threshold", 6)
	v.SetDefault("defaults.post_due_days", 14)
	v.SetDefault("defaults.sweep_limit", 500)
	v.SetDefault("defaults.sweep_limited", true)
	v.SetDefault("defaults.include_author_in_count", false)
	v.SetDefault("defaults.allow_messages_in_hof", false)
	v.SetDefault("defaults.ignore_bot_messages", true)
	v.SetDefault("defaults.hide_below_threshold", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		log.Println("Info: config.yaml not found, using built-in defaults")
	}

	cfg := &model.Config{
		BotToken:            token,
		AppID:               appID,
		LogChannelID:        logChannelID,
		DisableInitialSweep: os.Getenv("DISABLE_INITIAL_SWEEP") == "true",
		SweepInterval:       v.GetDuration("sweep.interval"),
		LeaderboardInterval: v.GetDuration("leaderboard.interval"),
		SweepWorkers:        v.GetInt("sweep.workers"),
		Defaults: model.GuildDefaults{
			ReactionThreshold:    v.GetInt("defaults.reaction_threshold"),
			PostDueDays:          v.GetInt("defaults.post_due_days"),
			SweepLimit:           v.GetInt("defaults.sweep_limit"),
			SweepLimited:         v.GetBool("defaults.sweep_limited"),
			IncludeAuthorInCount: v.GetBool("defaults.include_author_in_count"),
			AllowMessagesInHof:   v.GetBool("defaults.allow_messages_in_hof"),
			IgnoreBotMessages:    v.GetBool("defaults.ignore_bot_messages"),
			HideBelowThreshold:   v.GetBool("defaults.hide_below_threshold"),
		},
	}

	return cfg, nil
}
