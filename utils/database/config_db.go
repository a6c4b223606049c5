package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
)

// GetServerConfig retrieves the configuration for a guild. ErrNotFound
// means the guild has not been provisioned yet.
func (s *Store) GetServerConfig(guildID string) (*model.ServerConfig, error) {
	var cfg model.ServerConfig
	err := s.db.Get(&cfg, "SELECT * FROM server_configs WHERE guild_id = ?", guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server config for guild %s: %w", guildID, err)
	}
	return &cfg, nil
}

// UpsertServerConfig writes the full configuration row for a guild.
func (s *Store) UpsertServerConfig(cfg model.ServerConfig) error {
	_, err := s.db.NamedExec(`INSERT OR REPLACE INTO server_configs
		(guild_id, hof_channel_id, reaction_threshold, post_due_days, sweep_limit, sweep_limited,
		 include_author_in_count, allow_messages_in_hof, custom_emoji_check, whitelisted_emojis,
		 leaderboard_channel_id, leaderboard_message_ids, ignore_bot_messages, hide_below_threshold)
		VALUES (:guild_id, :hof_channel_id, :reaction_threshold, :post_due_days, :sweep_limit, :sweep_limited,
		 :include_author_in_count, :allow_messages_in_hof, :custom_emoji_check, :whitelisted_emojis,
		 :leaderboard_channel_id, :leaderboard_message_ids, :ignore_bot_messages, :hide_below_threshold)`, cfg)
	if err != nil {
		return fmt.Errorf("failed to upsert server config for guild %s: %w", cfg.GuildID, err)
	}
	return nil
}

// EnsureServerConfig inserts a default configuration for a guild if none
// exists. Called on guild join; an existing row is left untouched.
func (s *Store) EnsureServerConfig(guildID string, defaults model.GuildDefaults) error {
	cfg := model.NewServerConfig(guildID, defaults)
	_, err := s.db.NamedExec(`INSERT OR IGNORE INTO server_configs
		(guild_id, hof_channel_id, reaction_threshold, post_due_days, sweep_limit, sweep_limited,
		 include_author_in_count, allow_messages_in_hof, custom_emoji_check, whitelisted_emojis,
		 leaderboard_channel_id, leaderboard_message_ids, ignore_bot_messages, hide_below_threshold)
		VALUES (:guild_id, :hof_channel_id, :reaction_threshold, :post_due_days, :sweep_limit, :sweep_limited,
		 :include_author_in_count, :allow_messages_in_hof, :custom_emoji_check, :whitelisted_emojis,
		 :leaderboard_channel_id, :leaderboard_message_ids, :ignore_bot_messages, :hide_below_threshold)`, cfg)
	if err != nil {
		return fmt.Errorf("failed to ensure server config for guild %s: %w", guildID, err)
	}
	return nil
}

// SetLeaderboardMessages stores the provisioned slot message IDs.
func (s *Store) SetLeaderboardMessages(guildID, channelID, messageIDs string) error {
	_, err := s.db.Exec("UPDATE server_configs SET leaderboard_channel_id = ?, leaderboard_message_ids = ? WHERE guild_id = ?",
		channelID, messageIDs, guildID)
	if err != nil {
		return fmt.Errorf("failed to set leaderboard messages for guild %s: %w", guildID, err)
	}
	return nil
}

// AllServerConfigs returns the configuration rows for every known guild.
func (s *Store) AllServerConfigs() ([]model.ServerConfig, error) {
	var cfgs []model.ServerConfig
	if err := s.db.Select(&cfgs, "SELECT * FROM server_configs"); err != nil {
		return nil, fmt.Errorf("failed to load server configs: %w", err)
	}
	return cfgs, nil
}
