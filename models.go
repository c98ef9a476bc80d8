package main

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	KindDebit  = "debit"
	KindCredit = "credit"
)

type User struct {
	gorm.Model
	TelegramID int64 `gorm:"uniqueIndex"`
	ChatID     int64
	UserName   string
	// LastEntryDate is the UTC calendar day ("2006-01-02") of the user's most
	// recent interactive transaction, used for the posting streak.
	LastEntryDate string
	StreakDays    int
}

type Category struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_category"`
	Name   string `gorm:"uniqueIndex:idx_user_category"`
}

type Card struct {
	gorm.Model
	UserID     uint            `gorm:"uniqueIndex:idx_user_card"`
	Name       string          `gorm:"uniqueIndex:idx_user_card"`
	Limit      decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingDay int
}

type Transaction struct {
	gorm.Model
	UserID     uint
	CategoryID *uint
	CardID     *uint
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Kind       string          // KindDebit or KindCredit
	PostedAt   time.Time
}

type Budget struct {
	gorm.Model
	UserID     uint            `gorm:"uniqueIndex:idx_user_budget"`
	CategoryID uint            `gorm:"uniqueIndex:idx_user_budget"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2)"`
}

type DailyReminder struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex"`
	ChatID int64
	Time   string // "HH:MM" in the reference timezone
}

type ScheduledCharge struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex:idx_user_charge"`
	ChatID int64
	Day    int
	Time   string // "HH:MM" in the reference timezone
	Title  string `gorm:"uniqueIndex:idx_user_charge"`
	// Amount is nil for plain reminders; set for charges that post a
	// transaction automatically when they fire.
	Amount *decimal.Decimal `gorm:"type:decimal(12,2)"`
}

type Subscription struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex"`
	Plan      string
	ExpiresAt time.Time
}
