package handlers

import (
	"log"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			h(s, i)
		}
	})

	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
		HandleReactionChange(b, e.GuildID, e.ChannelID, e.MessageID)
	})
	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageReactionRemove) {
		HandleReactionChange(b, e.GuildID, e.ChannelID, e.MessageID)
	})
	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageReactionRemoveAll) {
		HandleReactionChange(b, e.GuildID, e.ChannelID, e.MessageID)
	})
	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageDelete) {
		HandleMessageDelete(b, e)
	})
	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildCreate) {
		HandleGuildCreate(b, e)
	})
	b.Session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildDelete) {
		HandleGuildDelete(b, e)
	})
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"hof-config": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if i.GuildID == "" {
				return
			}
			HandleConfigInteraction(s, i, b)
		},
		"hof-sweep": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if i.GuildID == "" {
				return
			}
			HandleSweepInteraction(s, i, b)
		},
		"hof-leaderboard": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if i.GuildID == "" {
				return
			}
			HandleLeaderboardInteraction(s, i, b)
		},
		"hof-status": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			SystemInfoHandler(s, i, b)
		},
	}
}

// HandleReactionChange reconciles one message after any reaction event.
// Runs in its own goroutine; the reconciler drops duplicate concurrent
// triggers for the same message.
func HandleReactionChange(b *bot.Bot, guildID, channelID, messageID string) {
	if guildID == "" {
		return
	}
	go func() {
		if err := b.Reconciler.ReconcileEvent(guildID, channelID, messageID); err != nil {
			log.Printf("Error reconciling message %s/%s: %v", channelID, messageID, err)
		}
	}()
}
