package leaderboard

import (
	"fmt"
	"log"
	"sort"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/halloffame"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/bwmarrin/discordgo"
)

// candidateDepth is how many records get a live recount before ranking.
// Wider than any slot count so an undercounted record cannot be ranked
// out by a stale number.
const candidateDepth = 30

const slotColor = 0xFFD700

// emptySlotEmbed fills slots past the number of eligible records. Slots
// are pre-provisioned and fixed in number, so the leftovers are cleared
// rather than left showing a ranking that no longer exists.
func emptySlotEmbed(rank int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("#%d", rank),
		Description: "—",
		Color:       slotColor,
	}
}

// Refresh recomputes the guild ranking and rewrites the pre-provisioned
// slot messages in place. Phase 1 refreshes reaction counts for a
// candidate superset; phase 2 writes top-N, N being the slot count fixed
// at provisioning time. Per-slot failures are logged and skipped.
func Refresh(gw halloffame.Gateway, store halloffame.Store, cfg *model.ServerConfig) error {
	slots := cfg.LeaderboardSlots()
	if len(slots) == 0 || cfg.LeaderboardChannelID == "" {
		return nil // leaderboard not provisioned
	}

	recs, err := store.TopRecords(cfg.GuildID, candidateDepth)
	if err != nil {
		return err
	}

	// Phase 1: live recount. A source that no longer resolves keeps its
	// stored count.
	fetched := make(map[string]*discordgo.Message, len(recs))
	for i := range recs {
		msg, err := gw.Message(recs[i].ChannelID, recs[i].MessageID)
		if err != nil {
			if !halloffame.IsUnknownResource(err) {
				log.Printf("Leaderboard: failed to fetch message %s for guild %s: %v", recs[i].MessageID, cfg.GuildID, err)
			}
			continue
		}
		fetched[recs[i].MessageID] = msg
		count, err := halloffame.EffectiveCount(msg, cfg, func(emojiAPIName string) ([]*discordgo.User, error) {
			return gw.Reactors(msg.ChannelID, msg.ID, emojiAPIName, 100)
		})
		if err != nil {
			log.Printf("Leaderboard: failed to recount message %s for guild %s: %v", recs[i].MessageID, cfg.GuildID, err)
			continue
		}
		if count != recs[i].ReactionCount {
			if err := store.UpdateReactionCount(recs[i].MessageID, count); err != nil {
				log.Printf("Leaderboard: failed to store recount for message %s: %v", recs[i].MessageID, err)
				continue
			}
			recs[i].ReactionCount = count
		}
	}

	// Phase 2: rank and overwrite the fixed slots. Stable sort keeps
	// document order on ties.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ReactionCount > recs[j].ReactionCount
	})

	for i, slotID := range slots {
		var embed *discordgo.MessageEmbed
		if i < len(recs) {
			embed = slotEmbed(gw, cfg, i+1, &recs[i], fetched[recs[i].MessageID])
		} else {
			embed = emptySlotEmbed(i + 1)
		}

		embeds := []*discordgo.MessageEmbed{embed}
		_, err := gw.Edit(&discordgo.MessageEdit{
			Channel: cfg.LeaderboardChannelID,
			ID:      slotID,
			Embeds:  &embeds,
		})
		if err != nil {
			log.Printf("Leaderboard: failed to edit slot %d (%s) for guild %s: %v", i+1, slotID, cfg.GuildID, err)
		}
	}

	return nil
}

// slotEmbed renders one ranked record. The source message supplies the
// display content; when it is gone the permalink and stored count still
// stand.
func slotEmbed(gw halloffame.Gateway, cfg *model.ServerConfig, rank int, rec *model.HallOfFameRecord, msg *discordgo.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("#%d", rank),
		Color: slotColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reactions", Value: fmt.Sprintf("**%d**", rec.ReactionCount), Inline: true},
			{Name: "Source", Value: fmt.Sprintf("[Jump to message](%s)", halloffame.Permalink(rec.GuildID, rec.ChannelID, rec.MessageID)), Inline: true},
		},
	}

	if msg == nil {
		embed.Description = "(original message unavailable)"
		return embed
	}

	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    msg.Author.Username,
			IconURL: msg.Author.AvatarURL("64"),
		}
	}
	embed.Description = msg.Content
	top, count, err := halloffame.TopReaction(msg, cfg, func(emojiAPIName string) ([]*discordgo.User, error) {
		return gw.Reactors(msg.ChannelID, msg.ID, emojiAPIName, 100)
	})
	if err == nil && top != nil {
		embed.Fields[0].Value = halloffame.ReactionDisplay(top, count)
	}
	return embed
}

// Provision creates the fixed slot messages in a channel and returns
// their IDs in rank order. Called once per guild by the provisioning
// command; failures are surfaced to the invoker.
func Provision(gw halloffame.Gateway, channelID string, slotCount int) ([]string, error) {
	ids := make([]string, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		embeds := []*discordgo.MessageEmbed{emptySlotEmbed(i + 1)}
		msg, err := gw.Send(channelID, &discordgo.MessageSend{Embeds: embeds})
		if err != nil {
			return nil, fmt.Errorf("failed to provision leaderboard slot %d: %w", i+1, err)
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}
