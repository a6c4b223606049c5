package bot

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/halloffame"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/leaderboard"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/scanner"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
)

// BotProvider defines the methods the scheduler needs from the Bot.
type BotProvider interface {
	GetConfig() *model.Config
	GetSession() *discordgo.Session
	GetStore() *database.Store
	GetGateway() halloffame.Gateway
	GetReconciler() *halloffame.Reconciler
}

// Scheduler manages the periodic sweeps and leaderboard refreshes.
type Scheduler struct {
	bot  BotProvider
	done chan struct{}
	wg   sync.WaitGroup

	sweepTicker       *time.Ticker
	leaderboardTicker *time.Ticker
}

func NewScheduler(bot BotProvider) *Scheduler {
	return &Scheduler{
		bot:  bot,
		done: make(chan struct{}),
	}
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start() {
	s.wg.Add(2)

	// Catch-up sweep after downtime. Reaction changes that happened while
	// the bot was offline are only visible to a history scan.
	go s.runInitialSweep()

	go s.startScheduledTasks()
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	close(s.done)
	s.wg.Wait()
	log.Println("Scheduler stopped.")
}

func (s *Scheduler) runInitialSweep() {
	defer s.wg.Done()
	if s.bot.GetConfig().DisableInitialSweep {
		log.Println("Initial sweep is disabled by environment variable.")
		return
	}
	s.runSweeps()
}

func (s *Scheduler) startScheduledTasks() {
	defer s.wg.Done()
	cfg := s.bot.GetConfig()
	s.sweepTicker = time.NewTicker(cfg.SweepInterval)
	s.leaderboardTicker = time.NewTicker(cfg.LeaderboardInterval)

	defer s.sweepTicker.Stop()
	defer s.leaderboardTicker.Stop()

	for {
		select {
		case <-s.sweepTicker.C:
			log.Println("Running scheduled sweep...")
			s.runSweeps()
		case <-s.leaderboardTicker.C:
			log.Println("Updating leaderboards...")
			s.runLeaderboards()
		case <-s.done:
			return
		}
	}
}

// runSweeps sweeps every provisioned guild with a bounded worker pool so
// one long history scan cannot starve the others.
func (s *Scheduler) runSweeps() {
	configs, err := s.bot.GetStore().AllServerConfigs()
	if err != nil {
		log.Printf("Error loading server configs for sweep: %v", err)
		return
	}

	workerLimit := s.bot.GetConfig().SweepWorkers
	if workerLimit <= 0 {
		workerLimit = 1
	}
	var wg sync.WaitGroup
	guard := make(chan struct{}, workerLimit)

	for i := range configs {
		cfg := configs[i]
		if cfg.HofChannelID == "" {
			continue
		}

		wg.Add(1)
		guard <- struct{}{}

		go func() {
			defer func() {
				<-guard
				wg.Done()
			}()
			log.Printf("Sweeping guild: %s", cfg.GuildID)
			result := scanner.Sweep(s.bot.GetGateway(), s.bot.GetReconciler(), &cfg, s.done)
			log.Printf("Sweep finished for guild %s: %s", cfg.GuildID, result.Summary())
			utils.LogInfo(s.bot.GetSession(), s.bot.GetConfig().LogChannelID,
				"Sweep", "Completed", "Guild "+cfg.GuildID+": "+result.Summary())
			if len(result.DeniedChannels) > 0 {
				utils.LogError(s.bot.GetSession(), s.bot.GetConfig().LogChannelID,
					"Sweep", "MissingAccess",
					"Guild "+cfg.GuildID+": no access to channels "+strings.Join(result.DeniedChannels, ", "))
			}

			if result.Cancelled {
				return
			}
			if err := leaderboard.Refresh(s.bot.GetGateway(), s.bot.GetStore(), &cfg); err != nil {
				log.Printf("Error refreshing leaderboard after sweep for guild %s: %v", cfg.GuildID, err)
			}
		}()
	}

	wg.Wait()
}

func (s *Scheduler) runLeaderboards() {
	configs, err := s.bot.GetStore().AllServerConfigs()
	if err != nil {
		log.Printf("Error loading server configs for leaderboard update: %v", err)
		return
	}

	var wg sync.WaitGroup
	workerLimit := 5
	guard := make(chan struct{}, workerLimit)

	for i := range configs {
		cfg := configs[i]
		wg.Add(1)
		guard <- struct{}{}

		go func() {
			defer func() {
				<-guard
				wg.Done()
			}()
			if err := leaderboard.Refresh(s.bot.GetGateway(), s.bot.GetStore(), &cfg); err != nil {
				log.Printf("Error updating leaderboard for guild %s: %v", cfg.GuildID, err)
			}
		}()
	}

	wg.Wait()
}
