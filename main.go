package main

import (
	"log"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

var (
	bot   *tgbotapi.BotAPI
	db    *gorm.DB
	sched *Scheduler
)

func main() {
	if err := loadConfig(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if config.TelegramToken == "" {
		log.Fatalf("TELEGRAM_TOKEN is not set")
	}
	os.MkdirAll(databaseDir(config.DBPath), 0755)

	var err error
	db, err = openDatabase(config.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	bot, err = tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	sched = NewScheduler(config.Location)
	if err := loadScheduledJobs(sched, db); err != nil {
		log.Fatalf("failed to reload scheduled jobs: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "List commands and the transaction shorthand"},
		{Command: "addcard", Description: "Add a credit card: name, limit, closing day"},
		{Command: "cards", Description: "List your cards with open statements"},
		{Command: "statement", Description: "Open statement of a card"},
		{Command: "budget", Description: "Set a monthly budget for a category"},
		{Command: "budgets", Description: "List budgets and consumption"},
		{Command: "remind", Description: "Daily reminder to log expenses"},
		{Command: "schedule", Description: "Schedule a monthly bill"},
		{Command: "report", Description: "Spending report for a period"},
		{Command: "export", Description: "Export the month as CSV"},
		{Command: "cancel", Description: "Cancel the current operation"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Fatalf("failed to set commands: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	log.Printf("PlinBot started")
	for update := range updates {
		HandleUpdate(update)
	}
}
