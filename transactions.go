package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrBadAmount     = errors.New("amount is not a valid number")
	ErrAlreadyUndone = errors.New("transaction already undone")
	ErrNotOwnedCard  = errors.New("card does not belong to this user")
)

// ParseAmount accepts the amount text of the `±amount category` shorthand.
// Comma decimal separators are accepted, the value must be positive.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrBadAmount
	}
	return amount, nil
}

// RecordResult is everything the confirmation message needs: the stored row
// (its id keys the undo button) plus the streak and budget follow-ups, which
// are empty when not applicable.
type RecordResult struct {
	Transaction   Transaction
	CategoryName  string
	CardName      string
	StreakMessage string
	BudgetMessage string
}

// RecordTransaction registers one income or expense as a single store
// transaction: category resolution (with free-tier cap), row insert, streak
// update and budget rollup all commit together or not at all. Automated
// postings (scheduled charges) skip the streak.
func RecordTransaction(conn *gorm.DB, userID uint, categoryName, kind, amountText string, cardID *uint, automated bool, now time.Time) (*RecordResult, error) {
	amount, err := ParseAmount(amountText)
	if err != nil {
		return nil, err
	}
	if kind != KindDebit && kind != KindCredit {
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}

	result := &RecordResult{}
	err = conn.Transaction(func(tx *gorm.DB) error {
		premium := IsPremium(tx, userID, now)
		category, err := resolveOrCreateCategory(tx, userID, categoryName, premium)
		if err != nil {
			return err
		}
		result.CategoryName = category.Name

		if cardID != nil {
			card := &Card{}
			if err := tx.First(card, *cardID).Error; err != nil {
				return err
			}
			if card.UserID != userID {
				return ErrNotOwnedCard
			}
			result.CardName = card.Name
		}

		transaction := Transaction{
			UserID:     userID,
			CategoryID: &category.ID,
			CardID:     cardID,
			Amount:     amount,
			Kind:       kind,
			PostedAt:   now.UTC(),
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		result.Transaction = transaction

		if !automated {
			message, err := updateStreak(tx, userID, now)
			if err != nil {
				return err
			}
			result.StreakMessage = message
		}

		if kind == KindDebit {
			message, err := budgetMessage(tx, userID, category, now)
			if err != nil {
				return err
			}
			result.BudgetMessage = message
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// updateStreak keeps the consecutive-posting-days counter: unchanged when the
// user already posted today, +1 when the last post was yesterday, reset to 1
// otherwise. Returns a message only when the counter changed.
func updateStreak(tx *gorm.DB, userID uint, now time.Time) (string, error) {
	user := &User{}
	if err := tx.First(user, userID).Error; err != nil {
		return "", err
	}
	today := now.UTC().Format("2006-01-02")
	if user.LastEntryDate == today {
		return "", nil
	}
	yesterday := now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	streak := 1
	if user.LastEntryDate == yesterday {
		streak = user.StreakDays + 1
	}
	err := tx.Model(user).Updates(map[string]any{
		"last_entry_date": today,
		"streak_days":     streak,
	}).Error
	if err != nil {
		return "", err
	}
	if streak > 1 {
		return fmt.Sprintf("🔥 %d day streak!", streak), nil
	}
	return "💪 New streak started!", nil
}

// budgetMessage reports month-to-date consumption of the category's budget,
// with a warning once the budget is exceeded. Empty when no budget is set.
func budgetMessage(tx *gorm.DB, userID uint, category *Category, now time.Time) (string, error) {
	budget := &Budget{}
	err := tx.Where("user_id = ? AND category_id = ?", userID, category.ID).First(budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	spent, err := monthToDateDebits(tx, userID, category.ID, now)
	if err != nil {
		return "", err
	}
	percentage := decimal.Zero
	if budget.Amount.IsPositive() {
		percentage = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100))
	}
	message := fmt.Sprintf("💰 Budget: you spent %s of %s (%s%%) on '%s' this month.",
		formatMoney(spent), formatMoney(budget.Amount),
		percentage.StringFixed(1), titleCase(category.Name))
	if spent.GreaterThan(budget.Amount) {
		message += "\n⚠️ You went over the budget for this category!"
	}
	return message, nil
}

// deleteBudget removes the budget of a category for real, so a new one can be
// set for the same pair later. Reports whether a budget existed.
func deleteBudget(conn *gorm.DB, userID, categoryID uint) (bool, error) {
	result := conn.Unscoped().Where("user_id = ? AND category_id = ?", userID, categoryID).Delete(&Budget{})
	return result.RowsAffected > 0, result.Error
}

// monthToDateDebits sums the category's debits since the first instant of the
// current UTC month.
func monthToDateDebits(conn *gorm.DB, userID, categoryID uint, now time.Time) (decimal.Decimal, error) {
	utc := now.UTC()
	monthStart := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	var rows []Transaction
	err := conn.Where("user_id = ? AND category_id = ? AND kind = ? AND posted_at >= ?",
		userID, categoryID, KindDebit, monthStart).Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// UndoTransaction reverses a registered transaction of the given user. A
// second undo of the same id is a no-op reported as ErrAlreadyUndone.
func UndoTransaction(conn *gorm.DB, userID, transactionID uint) error {
	transaction := &Transaction{}
	err := conn.Where("user_id = ?", userID).First(transaction, transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAlreadyUndone
	}
	if err != nil {
		return err
	}
	return conn.Unscoped().Delete(transaction).Error
}

func formatMoney(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

func titleCase(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
