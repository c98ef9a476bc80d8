package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := migrate(conn); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return conn
}

func createTestUser(t *testing.T, conn *gorm.DB, telegramID int64) *User {
	t.Helper()
	user := &User{TelegramID: telegramID, ChatID: telegramID}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func makePremium(t *testing.T, conn *gorm.DB, userID uint, expiresAt time.Time) {
	t.Helper()
	sub := &Subscription{UserID: userID, Plan: "premium", ExpiresAt: expiresAt}
	if err := conn.Create(sub).Error; err != nil {
		t.Fatalf("creating subscription: %v", err)
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func insertTransaction(t *testing.T, conn *gorm.DB, userID uint, categoryID, cardID *uint, amount, kind string, postedAt time.Time) *Transaction {
	t.Helper()
	transaction := &Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		CardID:     cardID,
		Amount:     dec(t, amount),
		Kind:       kind,
		PostedAt:   postedAt.UTC(),
	}
	if err := conn.Create(transaction).Error; err != nil {
		t.Fatalf("inserting transaction: %v", err)
	}
	return transaction
}
