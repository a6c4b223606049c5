package scanner

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/halloffame"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sweepGateway fakes the Discord API for sweep tests: channel history is
// served newest-first in pages, sends and edits land in a ledger.
type sweepGateway struct {
	mu       sync.Mutex
	channels []*discordgo.Channel
	history  map[string][]*discordgo.Message // newest-first
	messages map[string]*discordgo.Message
	failing  map[string]error
	sentIDs  []string
	nextID   int
}

func newSweepGateway() *sweepGateway {
	return &sweepGateway{
		history:  make(map[string][]*discordgo.Message),
		messages: make(map[string]*discordgo.Message),
		failing:  make(map[string]error),
	}
}

func (g *sweepGateway) addChannel(id string) {
	g.channels = append(g.channels, &discordgo.Channel{ID: id, Type: discordgo.ChannelTypeGuildText})
}

func (g *sweepGateway) addHistory(channelID string, msgs ...*discordgo.Message) {
	g.history[channelID] = append(g.history[channelID], msgs...)
	for _, m := range msgs {
		g.messages[channelID+"/"+m.ID] = m
	}
}

func (g *sweepGateway) Message(channelID, messageID string) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msg, ok := g.messages[channelID+"/"+messageID]
	if !ok {
		return nil, &discordgo.RESTError{
			Response: &http.Response{Status: "404 Not Found"},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
		}
	}
	return msg, nil
}

func (g *sweepGateway) Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failing[channelID]; ok {
		return nil, err
	}
	hist := g.history[channelID]
	start := 0
	if beforeID != "" {
		for i, m := range hist {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(hist) {
		end = len(hist)
	}
	if start >= end {
		return nil, nil
	}
	return hist[start:end], nil
}

func (g *sweepGateway) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	return g.channels, nil
}

func (g *sweepGateway) Send(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	msg := &discordgo.Message{
		ID:        fmt.Sprintf("mirror-%d", g.nextID),
		ChannelID: channelID,
		Content:   data.Content,
		Embeds:    data.Embeds,
	}
	g.messages[channelID+"/"+msg.ID] = msg
	g.sentIDs = append(g.sentIDs, msg.ID)
	return msg, nil
}

func (g *sweepGateway) Edit(edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msg, ok := g.messages[edit.Channel+"/"+edit.ID]
	if !ok {
		return nil, &discordgo.RESTError{
			Response: &http.Response{Status: "404 Not Found"},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
		}
	}
	if edit.Content != nil {
		msg.Content = *edit.Content
	}
	if edit.Embeds != nil {
		msg.Embeds = *edit.Embeds
	}
	return msg, nil
}

func (g *sweepGateway) Delete(channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.messages, channelID+"/"+messageID)
	return nil
}

func (g *sweepGateway) Reactors(channelID, messageID, emojiAPIName string, limit int) ([]*discordgo.User, error) {
	return nil, nil
}

// sourceOf extracts the mirrored message's ID from a sent mirror's
// permalink field. The link has the form (.../guild/channel/message).
func (g *sweepGateway) sourceOf(t *testing.T, cfg *model.ServerConfig, mirrorID string) string {
	t.Helper()
	mirror := g.messages[cfg.HofChannelID+"/"+mirrorID]
	require.NotNil(t, mirror)
	require.NotEmpty(t, mirror.Embeds)
	link := strings.TrimSuffix(mirror.Embeds[0].Fields[1].Value, ")")
	return link[strings.LastIndex(link, "/")+1:]
}

func sweepTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Init(filepath.Join(t.TempDir(), "hof.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewStore(db)
}

func sweepConfig() *model.ServerConfig {
	return &model.ServerConfig{
		GuildID:              "g1",
		HofChannelID:         "hof",
		ReactionThreshold:    6,
		PostDueDays:          14,
		SweepLimit:           500,
		SweepLimited:         true,
		IncludeAuthorInCount: true,
		IgnoreBotMessages:    true,
		HideBelowThreshold:   true,
	}
}

func historyMessage(id, channelID string, count int, age time.Duration) *discordgo.Message {
	msg := &discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		Content:   "take " + id,
		Author:    &discordgo.User{ID: "u-" + id, Username: "author"},
		Timestamp: time.Now().Add(-age),
	}
	if count > 0 {
		msg.Reactions = []*discordgo.MessageReactions{
			{Emoji: &discordgo.Emoji{Name: "🔥"}, Count: count},
		}
	}
	return msg
}

func TestSweepPostsOldestFirstAcrossChannels(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	gw.addChannel("beta")
	// Histories are newest-first per channel; eligibility interleaves
	// across channels by age.
	gw.addHistory("alpha",
		historyMessage("a-new", "alpha", 7, 1*time.Hour),
		historyMessage("a-mid", "alpha", 6, 5*time.Hour),
	)
	gw.addHistory("beta",
		historyMessage("b-old", "beta", 8, 9*time.Hour),
	)

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 2, result.ChannelsScanned)
	assert.Equal(t, 3, result.NewPosts)
	assert.Zero(t, result.Errors)
	assert.False(t, result.Cancelled)

	require.Len(t, gw.sentIDs, 3)
	order := []string{
		gw.sourceOf(t, cfg, gw.sentIDs[0]),
		gw.sourceOf(t, cfg, gw.sentIDs[1]),
		gw.sourceOf(t, cfg, gw.sentIDs[2]),
	}
	assert.Equal(t, []string{"b-old", "a-mid", "a-new"}, order)
}

func TestSweepSkipsHofChannel(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("hof")
	gw.addHistory("hof", historyMessage("inside", "hof", 9, time.Hour))

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 1, result.ChannelsSkipped)
	assert.Zero(t, result.ChannelsScanned)
	assert.Empty(t, gw.sentIDs)
}

func TestSweepHidesOnlyBorderlineRecords(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	borderline := historyMessage("m-border", "alpha", 5, time.Hour)
	farBelow := historyMessage("m-far", "alpha", 1, 2*time.Hour)
	gw.addHistory("alpha", borderline, farBelow)

	for _, m := range []*discordgo.Message{borderline, farBelow} {
		mirror, err := gw.Send("hof", &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{halloffame.BuildEmbed(m, halloffame.EmbedContext{GuildID: "g1", TopCount: 6})},
		})
		require.NoError(t, err)
		won, err := store.ClaimRecord(model.HallOfFameRecord{
			MessageID: m.ID, ChannelID: "alpha", GuildID: "g1",
			HofMessageID: mirror.ID, ReactionCount: 6, AuthorID: m.Author.ID,
			Timestamp: m.Timestamp.Unix(),
		})
		require.NoError(t, err)
		require.True(t, won)
	}
	gw.sentIDs = nil

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 1, result.Hides)
	assert.Zero(t, result.NewPosts)

	borderRec, err := store.GetRecord("m-border")
	require.NoError(t, err)
	assert.Equal(t, 5, borderRec.ReactionCount)
	assert.Empty(t, gw.messages["hof/"+borderRec.HofMessageID].Embeds)

	// Far below the band the record is left alone: an event already hid
	// it and re-editing every sweep would be churn.
	farRec, err := store.GetRecord("m-far")
	require.NoError(t, err)
	assert.Equal(t, 6, farRec.ReactionCount)
	assert.NotEmpty(t, gw.messages["hof/"+farRec.HofMessageID].Embeds)
}

func TestSweepStopsAtDueDate(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	gw.addHistory("alpha",
		historyMessage("fresh", "alpha", 7, time.Hour),
		historyMessage("expired", "alpha", 9, 20*24*time.Hour),
		historyMessage("ancient", "alpha", 9, 40*24*time.Hour),
	)

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 1, result.NewPosts)
	assert.Equal(t, 2, result.MessagesVisited)

	_, err := store.GetRecord("expired")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSweepUnlimitedIgnoresDueDate(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	cfg.SweepLimited = false
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	gw.addHistory("alpha",
		historyMessage("fresh", "alpha", 7, time.Hour),
		historyMessage("expired", "alpha", 9, 20*24*time.Hour),
	)

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	// Unbounded backfill promotes regardless of age.
	assert.Equal(t, 2, result.NewPosts)
}

func TestSweepRespectsLimit(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	cfg.SweepLimit = 2
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	gw.addHistory("alpha",
		historyMessage("m1", "alpha", 7, 1*time.Hour),
		historyMessage("m2", "alpha", 7, 2*time.Hour),
		historyMessage("m3", "alpha", 7, 3*time.Hour),
	)

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 2, result.MessagesVisited)
	assert.Equal(t, 2, result.NewPosts)
}

func TestSweepIsolatesChannelFailures(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("broken")
	gw.addChannel("alpha")
	gw.failing["broken"] = fmt.Errorf("boom")
	gw.addHistory("alpha", historyMessage("ok", "alpha", 7, time.Hour))

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.NewPosts)
}

func TestSweepCollectsDeniedChannels(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("private")
	gw.addChannel("alpha")
	gw.failing["private"] = &discordgo.RESTError{
		Response: &http.Response{Status: "403 Forbidden"},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess},
	}
	gw.addHistory("alpha", historyMessage("ok", "alpha", 7, time.Hour))

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, nil)

	// Missing access is reported, not treated as a scan error.
	assert.Equal(t, []string{"private"}, result.DeniedChannels)
	assert.Equal(t, 1, result.ChannelsSkipped)
	assert.Zero(t, result.Errors)
	assert.Equal(t, 1, result.NewPosts)
}

func TestSweepCancellation(t *testing.T) {
	t.Parallel()

	gw := newSweepGateway()
	store := sweepTestStore(t)
	cfg := sweepConfig()
	require.NoError(t, store.UpsertServerConfig(*cfg))

	gw.addChannel("alpha")
	gw.addHistory("alpha", historyMessage("m1", "alpha", 7, time.Hour))

	done := make(chan struct{})
	close(done)

	rec := halloffame.NewReconciler(gw, store)
	result := Sweep(gw, rec, cfg, done)

	assert.True(t, result.Cancelled)
	assert.Empty(t, gw.sentIDs)
}
