package bot

import (
	"log"
	"time"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/halloffame"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

type Bot struct {
	Session            *discordgo.Session
	Config             *model.Config
	DB                 *sqlx.DB
	Store              *database.Store
	Gateway            halloffame.Gateway
	Reconciler         *halloffame.Reconciler
	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	scheduler *Scheduler
	done      chan struct{}
	startedAt time.Time
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	dg.StateEnabled = false

	store := database.NewStore(db)
	gw := halloffame.NewSessionGateway(dg)

	b := &Bot{
		Session:    dg,
		Config:     cfg,
		DB:         db,
		Store:      store,
		Gateway:    gw,
		Reconciler: halloffame.NewReconciler(gw, store),
		done:       make(chan struct{}),
		startedAt:  time.Now(),
	}
	b.scheduler = NewScheduler(b)
	return b, nil
}

func (b *Bot) GetConfig() *model.Config {
	return b.Config
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func (b *Bot) GetStore() *database.Store {
	return b.Store
}

func (b *Bot) GetGateway() halloffame.Gateway {
	return b.Gateway
}

func (b *Bot) GetReconciler() *halloffame.Reconciler {
	return b.Reconciler
}

func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) StartedAt() time.Time {
	return b.startedAt
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	close(b.done)
	b.scheduler.Stop()
	b.Session.Close()
}
