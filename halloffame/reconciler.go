package halloffame

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

const (
	// hiddenPlaceholder replaces the mirror content when a message drops
	// below the threshold. The record is kept so re-promotion reuses the
	// same mirror message.
	hiddenPlaceholder = "This message no longer meets the reaction threshold."

	clearedVideoPlaceholder = "—"
)

// Store is the record persistence the reconciler needs. Implemented by
// database.Store; tests supply an in-memory fake.
type Store interface {
	GetServerConfig(guildID string) (*model.ServerConfig, error)
	GetRecord(messageID string) (*model.HallOfFameRecord, error)
	ClaimRecord(rec model.HallOfFameRecord) (bool, error)
	UpdateReactionCount(messageID string, count int) error
	SetMirror(messageID, hofMessageID, videoMessageID string) error
	TopRecords(guildID string, n int) ([]model.HallOfFameRecord, error)
	CountRecords(guildID string) (int, error)
	DeleteGuildData(guildID string) error
}

// Assessment is the outcome of running the counter and the eligibility
// engine over one message snapshot.
type Assessment struct {
	Action Action
	Count  int
	Top    *discordgo.Emoji
	Record *model.HallOfFameRecord
}

// Reconciler drives a message through assess/apply and keeps concurrent
// triggers for the same message from racing each other.
type Reconciler struct {
	gw    Gateway
	store Store
	now   func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewReconciler(gw Gateway, store Store) *Reconciler {
	return &Reconciler{
		gw:       gw,
		store:    store,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// ReconcileEvent fetches a message and reconciles its hall-of-fame state
// in response to a gateway reaction event. Duplicate concurrent triggers
// for the same message are dropped; the surviving one recomputes from
// the latest snapshot anyway.
func (r *Reconciler) ReconcileEvent(guildID, channelID, messageID string) error {
	cfg, err := r.store.GetServerConfig(guildID)
	if errors.Is(err, database.ErrNotFound) {
		return nil // guild not provisioned yet
	}
	if err != nil {
		return err
	}
	if cfg.HofChannelID == "" {
		return nil
	}
	if channelID == cfg.HofChannelID && !cfg.AllowMessagesInHof {
		return nil
	}

	key := channelID + "/" + messageID
	if !r.tryAcquire(key) {
		return nil
	}
	defer r.release(key)

	msg, err := r.gw.Message(channelID, messageID)
	if IsUnknownResource(err) {
		return nil // message gone between event and fetch
	}
	if err != nil {
		return fmt.Errorf("failed to fetch message %s/%s: %w", channelID, messageID, err)
	}
	msg.GuildID = guildID // REST fetches omit the guild ID

	if cfg.IgnoreBotMessages && msg.Author != nil && msg.Author.Bot {
		return nil
	}

	a, err := r.Assess(msg, cfg, false)
	if err != nil {
		return err
	}
	return r.Apply(msg, cfg, a)
}

// Assess runs the reaction counter and the eligibility engine over a
// fetched message. It performs no side effects.
func (r *Reconciler) Assess(msg *discordgo.Message, cfg *model.ServerConfig, sweeping bool) (*Assessment, error) {
	top, count, err := TopReaction(msg, cfg, r.lookupFor(msg.ChannelID, msg.ID))
	if err != nil {
		return nil, err
	}

	rec, err := r.store.GetRecord(msg.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	action := Evaluate(EvalInput{
		Count:              count,
		Threshold:          cfg.ReactionThreshold,
		HasRecord:          rec != nil,
		MessageAge:         r.now().Sub(msg.Timestamp),
		DueDays:            cfg.PostDueDays,
		Sweeping:           sweeping,
		HideBelowThreshold: cfg.HideBelowThreshold,
	})

	return &Assessment{Action: action, Count: count, Top: top, Record: rec}, nil
}

// Apply carries out an assessed action against the gateway and the store.
func (r *Reconciler) Apply(msg *discordgo.Message, cfg *model.ServerConfig, a *Assessment) error {
	switch a.Action {
	case ActionPost:
		return r.post(msg, cfg, a)
	case ActionUpdate:
		return r.update(msg, cfg, a)
	case ActionHide:
		return r.HideRecord(cfg, a.Record, a.Count)
	default:
		return nil
	}
}

func (r *Reconciler) post(msg *discordgo.Message, cfg *model.ServerConfig, a *Assessment) error {
	embed := BuildEmbed(msg, EmbedContext{
		GuildID:  cfg.GuildID,
		ReplyTo:  r.replyTarget(msg),
		TopEmoji: a.Top,
		TopCount: a.Count,
	})

	sent, err := r.sendWithRetry(cfg.HofChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}, msg.ID)
	if err != nil {
		return fmt.Errorf("failed to post mirror for message %s: %w", msg.ID, err)
	}
	if sent == nil {
		return nil // record appeared while retrying; nothing left to do
	}

	var videoID string
	if url := VideoURL(msg); url != "" {
		vmsg, err := r.gw.Send(cfg.HofChannelID, &discordgo.MessageSend{Content: url})
		if err != nil {
			log.Printf("Failed to post video link for message %s: %v", msg.ID, err)
		} else {
			videoID = vmsg.ID
		}
	}

	won, err := r.store.ClaimRecord(model.HallOfFameRecord{
		MessageID:      msg.ID,
		ChannelID:      msg.ChannelID,
		GuildID:        cfg.GuildID,
		HofMessageID:   sent.ID,
		VideoMessageID: videoID,
		ReactionCount:  a.Count,
		AuthorID:       authorID(msg),
		Timestamp:      msg.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}
	if !won {
		// A concurrent sweep or event claimed the record first; our
		// mirror is the duplicate and has to go.
		if derr := r.gw.Delete(cfg.HofChannelID, sent.ID); derr != nil {
			log.Printf("Failed to delete duplicate mirror %s: %v", sent.ID, derr)
		}
		if videoID != "" {
			if derr := r.gw.Delete(cfg.HofChannelID, videoID); derr != nil {
				log.Printf("Failed to delete duplicate video link %s: %v", videoID, derr)
			}
		}
	}
	return nil
}

func (r *Reconciler) update(msg *discordgo.Message, cfg *model.ServerConfig, a *Assessment) error {
	rec := a.Record
	if err := r.store.UpdateReactionCount(rec.MessageID, a.Count); err != nil {
		return err
	}

	mirror, err := r.gw.Message(cfg.HofChannelID, rec.HofMessageID)
	if rec.HofMessageID == "" || IsUnknownResource(err) {
		return r.recreateMirror(msg, cfg, a)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch mirror %s: %w", rec.HofMessageID, err)
	}

	if len(mirror.Embeds) > 0 && PatchReactionCount(mirror.Embeds[0], a.Top, a.Count) {
		// Cheap path: only the count display changed.
		_, err = r.gw.Edit(&discordgo.MessageEdit{
			Channel: cfg.HofChannelID,
			ID:      rec.HofMessageID,
			Embeds:  &mirror.Embeds,
		})
		if err != nil {
			return fmt.Errorf("failed to patch mirror %s: %w", rec.HofMessageID, err)
		}
		return nil
	}

	// The mirror lost its rich content, typically after a hide. Rebuild.
	embed := BuildEmbed(msg, EmbedContext{
		GuildID:  cfg.GuildID,
		ReplyTo:  r.replyTarget(msg),
		TopEmoji: a.Top,
		TopCount: a.Count,
	})
	empty := ""
	embeds := []*discordgo.MessageEmbed{embed}
	_, err = r.gw.Edit(&discordgo.MessageEdit{
		Channel: cfg.HofChannelID,
		ID:      rec.HofMessageID,
		Content: &empty,
		Embeds:  &embeds,
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild mirror %s: %w", rec.HofMessageID, err)
	}

	// A hide also blanked the secondary video link; put it back.
	if rec.VideoMessageID != "" {
		if url := VideoURL(msg); url != "" {
			_, err := r.gw.Edit(&discordgo.MessageEdit{
				Channel: cfg.HofChannelID,
				ID:      rec.VideoMessageID,
				Content: &url,
			})
			if err != nil && !IsUnknownResource(err) {
				log.Printf("Failed to restore video link %s: %v", rec.VideoMessageID, err)
			}
		}
	}
	return nil
}

// recreateMirror self-heals a record whose mirror message no longer
// resolves by posting a fresh one and repointing the record at it.
func (r *Reconciler) recreateMirror(msg *discordgo.Message, cfg *model.ServerConfig, a *Assessment) error {
	embed := BuildEmbed(msg, EmbedContext{
		GuildID:  cfg.GuildID,
		ReplyTo:  r.replyTarget(msg),
		TopEmoji: a.Top,
		TopCount: a.Count,
	})
	sent, err := r.gw.Send(cfg.HofChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
	if err != nil {
		return fmt.Errorf("failed to recreate mirror for message %s: %w", msg.ID, err)
	}

	var videoID string
	if url := VideoURL(msg); url != "" {
		vmsg, err := r.gw.Send(cfg.HofChannelID, &discordgo.MessageSend{Content: url})
		if err != nil {
			log.Printf("Failed to recreate video link for message %s: %v", msg.ID, err)
		} else {
			videoID = vmsg.ID
		}
	}

	return r.store.SetMirror(msg.ID, sent.ID, videoID)
}

// HideRecord soft-hides the mirror: content replaced with a placeholder,
// embed removed, secondary video link cleared. The record itself is
// retained so the message can be re-promoted without a duplicate post.
func (r *Reconciler) HideRecord(cfg *model.ServerConfig, rec *model.HallOfFameRecord, count int) error {
	if err := r.store.UpdateReactionCount(rec.MessageID, count); err != nil {
		return err
	}

	placeholder := hiddenPlaceholder
	noEmbeds := []*discordgo.MessageEmbed{}
	_, err := r.gw.Edit(&discordgo.MessageEdit{
		Channel: cfg.HofChannelID,
		ID:      rec.HofMessageID,
		Content: &placeholder,
		Embeds:  &noEmbeds,
	})
	if err != nil && !IsUnknownResource(err) {
		return fmt.Errorf("failed to hide mirror %s: %w", rec.HofMessageID, err)
	}

	if rec.VideoMessageID != "" {
		cleared := clearedVideoPlaceholder
		_, err := r.gw.Edit(&discordgo.MessageEdit{
			Channel: cfg.HofChannelID,
			ID:      rec.VideoMessageID,
			Content: &cleared,
		})
		if err != nil && !IsUnknownResource(err) {
			log.Printf("Failed to clear video link %s: %v", rec.VideoMessageID, err)
		}
	}
	return nil
}

// sendWithRetry sends once and, on failure, re-checks the record before
// a single retry. A slow-but-delivered first send leaves a record behind
// once claimed, so checking first prevents duplicate mirrors. Returns a
// nil message when the post turned out to be already done.
func (r *Reconciler) sendWithRetry(channelID string, data *discordgo.MessageSend, sourceMessageID string) (*discordgo.Message, error) {
	sent, err := r.gw.Send(channelID, data)
	if err == nil {
		return sent, nil
	}
	if _, gerr := r.store.GetRecord(sourceMessageID); gerr == nil {
		return nil, nil
	}
	return r.gw.Send(channelID, data)
}

func (r *Reconciler) replyTarget(msg *discordgo.Message) *discordgo.Message {
	if msg.MessageReference == nil {
		return nil
	}
	if msg.ReferencedMessage != nil {
		return msg.ReferencedMessage
	}
	channelID := msg.MessageReference.ChannelID
	if channelID == "" {
		channelID = msg.ChannelID
	}
	target, err := r.gw.Message(channelID, msg.MessageReference.MessageID)
	if err != nil {
		// Reply target unresolvable: frame the message as plain instead.
		return nil
	}
	return target
}

func (r *Reconciler) lookupFor(channelID, messageID string) ReactorLookup {
	return func(emojiAPIName string) ([]*discordgo.User, error) {
		return r.gw.Reactors(channelID, messageID, emojiAPIName, reactorPageSize)
	}
}

func (r *Reconciler) tryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[key]; busy {
		return false
	}
	r.inflight[key] = struct{}{}
	return true
}

func (r *Reconciler) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, key)
}

func authorID(msg *discordgo.Message) string {
	if msg.Author == nil {
		return ""
	}
	return msg.Author.ID
}
