package halloffame

import (
	"testing"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reactionMessage(authorID string, reactions ...*discordgo.MessageReactions) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Author:    &discordgo.User{ID: authorID},
		Reactions: reactions,
	}
}

func reaction(name string, count int) *discordgo.MessageReactions {
	return &discordgo.MessageReactions{
		Count: count,
		Emoji: &discordgo.Emoji{Name: name},
	}
}

// fixtureLookup maps emoji API name to the users who reacted with it.
func fixtureLookup(reactors map[string][]string) ReactorLookup {
	return func(emojiAPIName string) ([]*discordgo.User, error) {
		var users []*discordgo.User
		for _, id := range reactors[emojiAPIName] {
			users = append(users, &discordgo.User{ID: id})
		}
		return users, nil
	}
}

func TestTopReactionMaxNotSum(t *testing.T) {
	t.Parallel()

	// {🔥:5, 👍:3}, author reacted with 🔥, author-exclusive counting:
	// max(4, 3) = 4, never 5+3.
	msg := reactionMessage("author", reaction("🔥", 5), reaction("👍", 3))
	cfg := &model.ServerConfig{IncludeAuthorInCount: false}
	lookup := fixtureLookup(map[string][]string{
		"🔥": {"author", "u1", "u2", "u3", "u4"},
		"👍": {"u1", "u2", "u3"},
	})

	emoji, count, err := TopReaction(msg, cfg, lookup)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.NotNil(t, emoji)
	assert.Equal(t, "🔥", emoji.Name)
}

func TestTopReactionAuthorInclusive(t *testing.T) {
	t.Parallel()

	msg := reactionMessage("author", reaction("🔥", 5))
	cfg := &model.ServerConfig{IncludeAuthorInCount: true}

	// Inclusive counting never consults the reactor list.
	_, count, err := TopReaction(msg, cfg, func(string) ([]*discordgo.User, error) {
		t.Fatal("reactor lookup must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestTopReactionWhitelist(t *testing.T) {
	t.Parallel()

	msg := reactionMessage("author", reaction("🔥", 9), reaction("👍", 3))
	cfg := &model.ServerConfig{
		IncludeAuthorInCount: true,
		CustomEmojiCheck:     true,
		WhitelistedEmojis:    "👍",
	}

	emoji, count, err := TopReaction(msg, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NotNil(t, emoji)
	assert.Equal(t, "👍", emoji.Name)
}

func TestTopReactionNoReactions(t *testing.T) {
	t.Parallel()

	msg := reactionMessage("author")
	cfg := &model.ServerConfig{IncludeAuthorInCount: true}

	emoji, count, err := TopReaction(msg, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Nil(t, emoji)
}

func TestEffectiveCountThresholdScenario(t *testing.T) {
	t.Parallel()

	// threshold=6, 7 👍 including the author's own, author-exclusive
	// counting: effective count is 6.
	msg := reactionMessage("author", reaction("👍", 7))
	cfg := &model.ServerConfig{ReactionThreshold: 6, IncludeAuthorInCount: false}
	lookup := fixtureLookup(map[string][]string{
		"👍": {"author", "u1", "u2", "u3", "u4", "u5", "u6"},
	})

	count, err := EffectiveCount(msg, cfg, lookup)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.GreaterOrEqual(t, count, cfg.ReactionThreshold)
}
