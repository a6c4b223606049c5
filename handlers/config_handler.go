package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

// HandleConfigInteraction applies one setting change (or shows the
// current configuration) for the invoking guild.
func HandleConfigInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	cfg, err := b.Store.GetServerConfig(i.GuildID)
	if errors.Is(err, database.ErrNotFound) {
		// Normally created on guild join; recover if the row is missing.
		if err := b.Store.EnsureServerConfig(i.GuildID, b.Config.Defaults); err != nil {
			log.Printf("Error provisioning config for guild %s: %v", i.GuildID, err)
			utils.SendErrorResponse(s, i, "Could not initialize server configuration.")
			return
		}
		cfg, err = b.Store.GetServerConfig(i.GuildID)
	}
	if err != nil {
		log.Printf("Error loading config for guild %s: %v", i.GuildID, err)
		utils.SendErrorResponse(s, i, "Could not load server configuration.")
		return
	}

	var (
		setting, value string
		channel        *discordgo.Channel
	)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "setting":
			setting = opt.StringValue()
		case "value":
			value = strings.TrimSpace(opt.StringValue())
		case "channel":
			channel = opt.ChannelValue(s)
		}
	}

	if setting == "show" {
		utils.SendSimpleResponse(s, i, formatConfig(cfg))
		return
	}

	switch setting {
	case "channel":
		if channel == nil {
			utils.SendErrorResponse(s, i, "The 'channel' setting needs the channel option.")
			return
		}
		cfg.HofChannelID = channel.ID
	case "threshold":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			utils.SendErrorResponse(s, i, "Threshold must be a positive number.")
			return
		}
		cfg.ReactionThreshold = n
	case "due-days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			utils.SendErrorResponse(s, i, "Due days must be a number (0 disables the guard).")
			return
		}
		cfg.PostDueDays = n
	case "sweep-limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			utils.SendErrorResponse(s, i, "Sweep limit must be a number (0 = unlimited).")
			return
		}
		cfg.SweepLimit = n
		cfg.SweepLimited = n > 0
	case "include-author":
		v, err := strconv.ParseBool(value)
		if err != nil {
			utils.SendErrorResponse(s, i, "Value must be true or false.")
			return
		}
		cfg.IncludeAuthorInCount = v
	case "allow-hof-messages":
		v, err := strconv.ParseBool(value)
		if err != nil {
			utils.SendErrorResponse(s, i, "Value must be true or false.")
			return
		}
		cfg.AllowMessagesInHof = v
	case "emoji-whitelist":
		cfg.WhitelistedEmojis = value
	case "custom-emoji-check":
		v, err := strconv.ParseBool(value)
		if err != nil {
			utils.SendErrorResponse(s, i, "Value must be true or false.")
			return
		}
		cfg.CustomEmojiCheck = v
	case "ignore-bots":
		v, err := strconv.ParseBool(value)
		if err != nil {
			utils.SendErrorResponse(s, i, "Value must be true or false.")
			return
		}
		cfg.IgnoreBotMessages = v
	case "hide-below":
		v, err := strconv.ParseBool(value)
		if err != nil {
			utils.SendErrorResponse(s, i, "Value must be true or false.")
			return
		}
		cfg.HideBelowThreshold = v
	default:
		utils.SendErrorResponse(s, i, "Unknown setting.")
		return
	}

	if err := b.Store.UpsertServerConfig(*cfg); err != nil {
		log.Printf("Error saving config for guild %s: %v", i.GuildID, err)
		utils.SendErrorResponse(s, i, "Could not save the configuration.")
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("Setting `%s` updated.", setting))
}

func formatConfig(cfg *model.ServerConfig) string {
	hofChannel := "not set"
	if cfg.HofChannelID != "" {
		hofChannel = "<#" + cfg.HofChannelID + ">"
	}
	sweepLimit := "unlimited"
	if cfg.SweepLimited {
		sweepLimit = strconv.Itoa(cfg.SweepLimit)
	}
	whitelist := cfg.WhitelistedEmojis
	if whitelist == "" {
		whitelist = "(none)"
	}
	leaderboard := "not provisioned"
	if n := len(cfg.LeaderboardSlots()); n > 0 {
		leaderboard = fmt.Sprintf("%d slots in <#%s>", n, cfg.LeaderboardChannelID)
	}

	return fmt.Sprintf(
		"**Hall of Fame settings**\n"+
			"- Channel: %s\n"+
			"- Reaction threshold: %d\n"+
			"- Post due days: %d\n"+
			"- Sweep limit: %s\n"+
			"- Count author's own reaction: %t\n"+
			"- Allow messages in HoF channel: %t\n"+
			"- Emoji whitelist check: %t (%s)\n"+
			"- Ignore bot messages: %t\n"+
			"- Hide posts below threshold: %t\n"+
			"- Leaderboard: %s",
		hofChannel, cfg.ReactionThreshold, cfg.PostDueDays, sweepLimit,
		cfg.IncludeAuthorInCount, cfg.AllowMessagesInHof,
		cfg.CustomEmojiCheck, whitelist,
		cfg.IgnoreBotMessages, cfg.HideBelowThreshold, leaderboard,
	)
}
