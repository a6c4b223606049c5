package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/leaderboard"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

const defaultSlotCount = 10

// HandleLeaderboardInteraction provisions the fixed slot messages or
// forces an immediate refresh.
func HandleLeaderboardInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	cfg, err := b.Store.GetServerConfig(i.GuildID)
	if errors.Is(err, database.ErrNotFound) {
		utils.SendErrorResponse(s, i, "This server is not set up yet. Use /hof-config first.")
		return
	}
	if err != nil {
		log.Printf("Error loading config for guild %s: %v", i.GuildID, err)
		utils.SendErrorResponse(s, i, "Could not load server configuration.")
		return
	}

	var (
		action    string
		slotCount = defaultSlotCount
		channelID = i.ChannelID
	)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "action":
			action = opt.StringValue()
		case "slots":
			if n := int(opt.IntValue()); n > 0 {
				slotCount = n
			}
		case "channel":
			if ch := opt.ChannelValue(s); ch != nil {
				channelID = ch.ID
			}
		}
	}

	switch action {
	case "provision":
		if len(cfg.LeaderboardSlots()) > 0 {
			utils.SendErrorResponse(s, i, "Leaderboard already provisioned. Slot count is fixed once created.")
			return
		}
		if err := utils.DeferResponse(s, i, true); err != nil {
			log.Printf("Error deferring leaderboard response: %v", err)
			return
		}
		ids, err := leaderboard.Provision(b.Gateway, channelID, slotCount)
		if err != nil {
			log.Printf("Error provisioning leaderboard for guild %s: %v", i.GuildID, err)
			utils.SendFollowUpError(s, i.Interaction, "Could not create the leaderboard messages.")
			return
		}
		if err := b.Store.SetLeaderboardMessages(i.GuildID, channelID, strings.Join(ids, ",")); err != nil {
			log.Printf("Error saving leaderboard slots for guild %s: %v", i.GuildID, err)
			utils.SendFollowUpError(s, i.Interaction, "Could not save the leaderboard configuration.")
			return
		}
		cfg, err = b.Store.GetServerConfig(i.GuildID)
		if err == nil {
			if err := leaderboard.Refresh(b.Gateway, b.Store, cfg); err != nil {
				log.Printf("Error filling fresh leaderboard for guild %s: %v", i.GuildID, err)
			}
		}
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("Leaderboard created with %d slots.", slotCount))

	case "refresh":
		if len(cfg.LeaderboardSlots()) == 0 {
			utils.SendErrorResponse(s, i, "No leaderboard provisioned yet. Use action:provision first.")
			return
		}
		if err := utils.DeferResponse(s, i, true); err != nil {
			log.Printf("Error deferring leaderboard response: %v", err)
			return
		}
		if err := leaderboard.Refresh(b.Gateway, b.Store, cfg); err != nil {
			log.Printf("Error refreshing leaderboard for guild %s: %v", i.GuildID, err)
			utils.SendFollowUpError(s, i.Interaction, "Leaderboard refresh failed.")
			return
		}
		utils.SendFollowUp(s, i.Interaction, "Leaderboard refreshed.")

	default:
		utils.SendErrorResponse(s, i, "Unknown action.")
	}
}
