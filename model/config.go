package model

import (
	"strings"
	"time"
)

// ServerConfig 定义了每个服务器的名人堂配置
type ServerConfig struct {
	GuildID               string `db:"guild_id"`
	HofChannelID          string `db:"hof_channel_id"`
	ReactionThreshold     int    `db:"reaction_threshold"`
	PostDueDays           int    `db:"post_due_days"`
	SweepLimit            int    `db:"sweep_limit"`
	SweepLimited          bool   `db:"sweep_limited"`
	IncludeAuthorInCount  bool   `db:"include_author_in_count"`
	AllowMessagesInHof    bool   `db:"allow_messages_in_hof"`
	CustomEmojiCheck      bool   `db:"custom_emoji_check"`
	WhitelistedEmojis     string `db:"whitelisted_emojis"`
	LeaderboardChannelID  string `db:"leaderboard_channel_id"`
	LeaderboardMessageIDs string `db:"leaderboard_message_ids"`
	IgnoreBotMessages     bool   `db:"ignore_bot_messages"`
	HideBelowThreshold    bool   `db:"hide_below_threshold"`
}

// EmojiWhitelist returns the whitelisted emoji API names as a set.
func (c *ServerConfig) EmojiWhitelist() map[string]bool {
	set := make(map[string]bool)
	for _, e := range strings.Split(c.WhitelistedEmojis, ",") {
		if e = strings.TrimSpace(e); e != "" {
			set[e] = true
		}
	}
	return set
}

// LeaderboardSlots returns the provisioned slot message IDs in rank order.
// The slice length is fixed at provisioning time.
func (c *ServerConfig) LeaderboardSlots() []string {
	if c.LeaderboardMessageIDs == "" {
		return nil
	}
	var slots []string
	for _, id := range strings.Split(c.LeaderboardMessageIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			slots = append(slots, id)
		}
	}
	return slots
}

// DueDate returns the cutoff before which unrecorded messages are no
// longer promoted. A zero PostDueDays disables the guard.
func (c *ServerConfig) DueDate(now time.Time) time.Time {
	if c.PostDueDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -c.PostDueDays)
}

// GuildDefaults are applied to the ServerConfig created on guild join.
type GuildDefaults struct {
	ReactionThreshold    int
	PostDueDays          int
	SweepLimit           int
	SweepLimited         bool
	IncludeAuthorInCount bool
	AllowMessagesInHof   bool
	IgnoreBotMessages    bool
	HideBelowThreshold   bool
}

// NewServerConfig builds the initial configuration for a freshly joined
// guild. The hall-of-fame channel stays unset until an admin picks one.
func NewServerConfig(guildID string, d GuildDefaults) ServerConfig {
	return ServerConfig{
		GuildID:              guildID,
		ReactionThreshold:    d.ReactionThreshold,
		PostDueDays:          d.PostDueDays,
		SweepLimit:           d.SweepLimit,
		SweepLimited:         d.SweepLimited,
		IncludeAuthorInCount: d.IncludeAuthorInCount,
		AllowMessagesInHof:   d.AllowMessagesInHof,
		IgnoreBotMessages:    d.IgnoreBotMessages,
		HideBelowThreshold:   d.HideBelowThreshold,
	}
}

// Config 存储应用程序的配置
type Config struct {
	BotToken            string
	AppID               string
	LogChannelID        string
	DisableInitialSweep bool
	SweepInterval       time.Duration
	LeaderboardInterval time.Duration
	SweepWorkers        int
	Defaults            GuildDefaults
}
