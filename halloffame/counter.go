package halloffame

import (
	"fmt"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/bwmarrin/discordgo"
)

// reactorPageSize bounds the reactor listing used for the author check.
// Only the first page is read: past 100 reactors the author's own
// reaction can slip through, overcounting by at most one on messages
// already far beyond any realistic threshold.
const reactorPageSize = 100

// ReactorLookup lists the users who reacted to a message with one emoji.
// Live code backs this with Gateway.Reactors; tests supply a fixture.
type ReactorLookup func(emojiAPIName string) ([]*discordgo.User, error)

// TopReaction returns the winning reaction and its corrected count.
//
// Fame is driven by the single most-resonant emoji: each reaction type is
// corrected independently (whitelist filter, optional author exclusion)
// and the maximum corrected count wins. Counts are never summed across
// emojis. A message with no reactions yields (nil, 0).
func TopReaction(msg *discordgo.Message, cfg *model.ServerConfig, lookup ReactorLookup) (*discordgo.Emoji, int, error) {
	var (
		best      *discordgo.Emoji
		bestCount int
	)

	var whitelist map[string]bool
	if cfg.CustomEmojiCheck {
		whitelist = cfg.EmojiWhitelist()
	}

	for _, r := range msg.Reactions {
		if r == nil || r.Emoji == nil || r.Count <= 0 {
			continue
		}
		if whitelist != nil && !whitelist[r.Emoji.APIName()] {
			continue
		}
		// An uncorrected count that cannot beat the current best never
		// will, so the reactor lookup is skipped for it.
		if r.Count <= bestCount {
			continue
		}

		count := r.Count
		if !cfg.IncludeAuthorInCount && msg.Author != nil {
			reacted, err := authorReacted(msg.Author.ID, r.Emoji, lookup)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to list reactors for %s: %w", r.Emoji.APIName(), err)
			}
			if reacted {
				count--
			}
		}
		if count > bestCount {
			bestCount = count
			best = r.Emoji
		}
	}

	return best, bestCount, nil
}

// EffectiveCount is the corrected count of the winning reaction, the
// number eligibility is decided on.
func EffectiveCount(msg *discordgo.Message, cfg *model.ServerConfig, lookup ReactorLookup) (int, error) {
	_, count, err := TopReaction(msg, cfg, lookup)
	return count, err
}

func authorReacted(authorID string, emoji *discordgo.Emoji, lookup ReactorLookup) (bool, error) {
	if lookup == nil {
		return false, nil
	}
	users, err := lookup(emoji.APIName())
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u != nil && u.ID == authorID {
			return true, nil
		}
	}
	return false, nil
}
