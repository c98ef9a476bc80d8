package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string
	AdminTelegramID int64
	DBPath          string
	// Location is the reference timezone for billing windows, reminder times
	// and report ranges. Stored transaction timestamps stay in UTC.
	Location *time.Location
}

var config Config

func loadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using environment: %v", err)
	}
	config.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	config.AdminTelegramID = parseInt64(getEnv("ADMIN_TELEGRAM_ID", "0"))
	config.DBPath = getEnv("PLINBOT_DB_PATH", "data/plinbot.db")
	tz := getEnv("PLINBOT_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return err
	}
	config.Location = loc
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
