package main

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

// IsPremium reports whether the user has a subscription that has not expired.
// The comparison is at day precision: a subscription expiring today is still
// active.
func IsPremium(conn *gorm.DB, userID uint, now time.Time) bool {
	sub := &Subscription{}
	err := conn.Where("user_id = ?", userID).First(sub).Error
	if err != nil {
		return false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	expiry := time.Date(sub.ExpiresAt.Year(), sub.ExpiresAt.Month(), sub.ExpiresAt.Day(), 0, 0, 0, 0, time.UTC)
	return !expiry.Before(today)
}

const upsellText = "💎 This is a Premium feature! Upgrade to unlock budgets, " +
	"unlimited cards and categories, scheduled bills, charts and exports."

// sendUpsell sends the standardized denial shown in place of a gated action.
// limitName, when non-empty, names the free-tier cap that was hit.
func sendUpsell(chatID int64, limitName string) {
	text := upsellText
	if limitName != "" {
		text = fmt.Sprintf("💎 You reached the free plan limit of %s!\n\n", limitName) +
			"The Premium plan offers:\n" +
			"✅ Unlimited categories and cards\n" +
			"📊 Reports with charts\n" +
			"💰 Budgets per category\n" +
			"⏰ Scheduled bills and reminders"
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✨ Upgrade now", "upsell:upgrade"),
		),
	}
	if limitName == categoryLimitName {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗂️ Manage my categories", "upsell:categories"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Not now", "upsell:dismiss"),
	))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	bot.Send(msg)
}

const (
	categoryLimitName = "3 categories"
	cardLimitName     = "1 credit card"
)
