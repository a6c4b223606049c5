package scanner

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/halloffame"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/bwmarrin/discordgo"
)

const historyPageSize = 100

// Result summarizes one guild sweep for the caller's report.
type Result struct {
	GuildID         string
	ChannelsScanned int
	ChannelsSkipped int
	// DeniedChannels lists channels skipped for missing access, so the
	// caller can report them instead of silently thinning the sweep.
	DeniedChannels  []string
	MessagesVisited int
	NewPosts        int
	Updates         int
	Hides           int
	Errors          int
	Cancelled       bool
	Duration        time.Duration
}

func (r *Result) Summary() string {
	return fmt.Sprintf("channels=%d skipped=%d visited=%d new=%d updated=%d hidden=%d errors=%d duration=%v",
		r.ChannelsScanned, r.ChannelsSkipped, r.MessagesVisited, r.NewPosts, r.Updates, r.Hides, r.Errors, r.Duration)
}

// deferredPost is a newly eligible message found mid-scan. New posts are
// buffered and flushed in created_at order so the hall of fame stays
// chronological even though history is walked newest-first per channel.
type deferredPost struct {
	msg        *discordgo.Message
	assessment *halloffame.Assessment
}

// Sweep walks a guild's channel history and reconciles every visited
// message. Errors on one channel or message are logged and skipped; the
// sweep never aborts as a whole. Safe to re-run at any time: eligibility
// is recomputed from scratch and record claims are idempotent.
func Sweep(gw halloffame.Gateway, rec *halloffame.Reconciler, cfg *model.ServerConfig, done <-chan struct{}) *Result {
	start := time.Now()
	result := &Result{GuildID: cfg.GuildID}
	defer func() { result.Duration = time.Since(start) }()

	if cfg.HofChannelID == "" {
		return result
	}

	channels, err := gw.GuildChannels(cfg.GuildID)
	if err != nil {
		log.Printf("Sweep: failed to list channels for guild %s: %v", cfg.GuildID, err)
		result.Errors++
		return result
	}

	var deferred []deferredPost
	for _, ch := range channels {
		select {
		case <-done:
			log.Printf("Sweep cancelled for guild %s.", cfg.GuildID)
			result.Cancelled = true
			return result
		default:
		}

		if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if ch.ID == cfg.HofChannelID && !cfg.AllowMessagesInHof {
			result.ChannelsSkipped++
			continue
		}

		result.ChannelsScanned++
		channelStart := time.Now()
		if err := sweepChannel(gw, rec, cfg, ch.ID, &deferred, result, done); err != nil {
			if halloffame.IsPermissionDenied(err) {
				log.Printf("Sweep: no access to channel %s in guild %s, skipping", ch.ID, cfg.GuildID)
				result.ChannelsSkipped++
				result.DeniedChannels = append(result.DeniedChannels, ch.ID)
				continue
			}
			log.Printf("Sweep: error scanning channel %s in guild %s: %v", ch.ID, cfg.GuildID, err)
			result.Errors++
			continue
		}
		log.Printf("Sweep: channel %s done in %v (guild %s)", ch.ID, time.Since(channelStart), cfg.GuildID)

		if result.Cancelled {
			return result
		}
	}

	flushDeferred(rec, cfg, deferred, result, done)
	return result
}

func sweepChannel(gw halloffame.Gateway, rec *halloffame.Reconciler, cfg *model.ServerConfig,
	channelID string, deferred *[]deferredPost, result *Result, done <-chan struct{}) error {

	// The due-date cutoff stops a bounded scan early; an unbounded sweep
	// keeps going for backfill correctness.
	dueDate := cfg.DueDate(time.Now())

	var (
		beforeID string
		visited  int
	)
	for {
		select {
		case <-done:
			result.Cancelled = true
			return nil
		default:
		}

		limit := historyPageSize
		if cfg.SweepLimited && cfg.SweepLimit > 0 {
			if remaining := cfg.SweepLimit - visited; remaining < limit {
				limit = remaining
			}
		}
		if limit <= 0 {
			return nil
		}

		msgs, err := gw.Messages(channelID, limit, beforeID)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}

		for _, msg := range msgs {
			visited++
			result.MessagesVisited++

			if cfg.SweepLimited && !dueDate.IsZero() && msg.Timestamp.Before(dueDate) {
				return nil // past the due date, nothing older qualifies
			}
			if cfg.IgnoreBotMessages && msg.Author != nil && msg.Author.Bot {
				continue
			}
			if len(msg.Reactions) == 0 {
				continue
			}

			msg.GuildID = cfg.GuildID
			a, err := rec.Assess(msg, cfg, true)
			if err != nil {
				log.Printf("Sweep: error assessing message %s/%s: %v", channelID, msg.ID, err)
				result.Errors++
				continue
			}

			switch a.Action {
			case halloffame.ActionPost:
				// Deferred: new posts are ordered after the full scan.
				*deferred = append(*deferred, deferredPost{msg: msg, assessment: a})
			case halloffame.ActionUpdate, halloffame.ActionHide:
				// Updates carry no ordering constraint, apply in place.
				if err := rec.Apply(msg, cfg, a); err != nil {
					log.Printf("Sweep: error applying %s to message %s/%s: %v", a.Action, channelID, msg.ID, err)
					result.Errors++
					continue
				}
				if a.Action == halloffame.ActionUpdate {
					result.Updates++
				} else {
					result.Hides++
				}
			}
		}

		if cfg.SweepLimited && cfg.SweepLimit > 0 && visited >= cfg.SweepLimit {
			return nil
		}
		beforeID = msgs[len(msgs)-1].ID
	}
}

// flushDeferred posts buffered messages oldest-first across all scanned
// channels.
func flushDeferred(rec *halloffame.Reconciler, cfg *model.ServerConfig, deferred []deferredPost, result *Result, done <-chan struct{}) {
	sort.SliceStable(deferred, func(i, j int) bool {
		return deferred[i].msg.Timestamp.Before(deferred[j].msg.Timestamp)
	})

	for _, d := range deferred {
		select {
		case <-done:
			result.Cancelled = true
			return
		default:
		}

		if err := rec.Apply(d.msg, cfg, d.assessment); err != nil {
			log.Printf("Sweep: error posting message %s/%s: %v", d.msg.ChannelID, d.msg.ID, err)
			result.Errors++
			continue
		}
		result.NewPosts++
	}
}
