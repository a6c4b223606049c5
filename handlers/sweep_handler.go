package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/leaderboard"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/scanner"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

// HandleSweepInteraction runs a manual history sweep for the invoking
// guild. The scan can take a while, so the response is deferred and the
// summary delivered as a follow-up.
func HandleSweepInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
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
	if cfg.HofChannelID == "" {
		utils.SendErrorResponse(s, i, "No hall-of-fame channel configured. Use /hof-config setting:channel.")
		return
	}

	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Error deferring sweep response: %v", err)
		return
	}

	go func() {
		result := scanner.Sweep(b.Gateway, b.Reconciler, cfg, b.Done())
		if !result.Cancelled {
			if err := leaderboard.Refresh(b.Gateway, b.Store, cfg); err != nil {
				log.Printf("Error refreshing leaderboard after manual sweep for guild %s: %v", cfg.GuildID, err)
			}
		}
		utils.SendFollowUp(s, i.Interaction, "Sweep finished: "+result.Summary())
		utils.LogInfo(s, b.Config.LogChannelID, "Sweep", "Manual", "Guild "+cfg.GuildID+": "+result.Summary())
		if len(result.DeniedChannels) > 0 {
			utils.LogError(s, b.Config.LogChannelID, "Sweep", "MissingAccess",
				"Guild "+cfg.GuildID+": no access to channels "+strings.Join(result.DeniedChannels, ", "))
		}
	}()
}
