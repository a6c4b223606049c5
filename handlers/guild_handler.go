package handlers

import (
	"errors"
	"log"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

// HandleGuildCreate provisions a default config for a freshly joined
// guild. Existing configs are left untouched on reconnect.
func HandleGuildCreate(b *bot.Bot, e *discordgo.GuildCreate) {
	if err := b.Store.EnsureServerConfig(e.ID, b.Config.Defaults); err != nil {
		log.Printf("Error provisioning config for guild %s: %v", e.ID, err)
	}
}

// HandleGuildDelete drops all records and the config when the bot is
// removed from a guild. Outages deliver GuildDelete with Unavailable
// set; those keep their data.
func HandleGuildDelete(b *bot.Bot, e *discordgo.GuildDelete) {
	if e.Unavailable {
		return
	}
	if err := b.Store.DeleteGuildData(e.ID); err != nil {
		log.Printf("Error deleting data for guild %s: %v", e.ID, err)
	}
	log.Printf("Removed from guild %s, data deleted.", e.ID)
}

// HandleMessageDelete hides the mirror when a tracked source message is
// deleted. The record stays, same as the below-threshold soft hide.
func HandleMessageDelete(b *bot.Bot, e *discordgo.MessageDelete) {
	if e.GuildID == "" {
		return
	}
	rec, err := b.Store.GetRecord(e.ID)
	if errors.Is(err, database.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("Error looking up record for deleted message %s: %v", e.ID, err)
		return
	}

	cfg, err := b.Store.GetServerConfig(e.GuildID)
	if err != nil {
		log.Printf("Error loading config for guild %s: %v", e.GuildID, err)
		return
	}

	go func() {
		if err := b.Reconciler.HideRecord(cfg, rec, 0); err != nil {
			log.Printf("Error hiding mirror for deleted message %s: %v", e.ID, err)
		}
	}()
}
