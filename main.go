package main

import (
	"log"
	"os"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/bot"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/config"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/handlers"
	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/utils/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.Init("./data/halloffame.db")
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	handlers.Register(b)

	b.Run()

	defer b.Close()
}
