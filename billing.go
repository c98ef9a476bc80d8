package main

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatementWindow is the open billing cycle of a card: an inclusive range of
// full days in the reference timezone, ending on the card's closing day.
type StatementWindow struct {
	Start time.Time // first instant (00:00:00) of the first day
	End   time.Time // last instant (23:59:59) of the closing day
}

// UTCBounds returns the window converted for querying stored UTC timestamps.
func (w StatementWindow) UTCBounds() (time.Time, time.Time) {
	return w.Start.UTC(), w.End.UTC()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(day, year int, month time.Month) int {
	if last := daysInMonth(year, month); day > last {
		return last
	}
	return day
}

// OpenStatementWindow computes the card's currently open cycle. If today is
// past the closing day the cycle ends on the closing day of next month,
// otherwise on the closing day of this month. The start is one month before
// the end plus one day. Closing days beyond a month's length clamp to its
// last day.
func OpenStatementWindow(closingDay int, now time.Time, loc *time.Location) StatementWindow {
	local := now.In(loc)
	year, month := local.Year(), local.Month()
	if local.Day() > clampDay(closingDay, year, month) {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	endDay := clampDay(closingDay, year, month)
	end := time.Date(year, month, endDay, 23, 59, 59, 0, loc)

	startYear, startMonth := year, month-1
	if startMonth < time.January {
		startMonth = time.December
		startYear--
	}
	startDay := clampDay(closingDay, startYear, startMonth)
	start := time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return StatementWindow{Start: start, End: end}
}

// CardStatementTotal sums the debit transactions of a card inside the window.
// No transactions yields zero.
func CardStatementTotal(conn *gorm.DB, cardID uint, w StatementWindow) (decimal.Decimal, error) {
	from, to := w.UTCBounds()
	var rows []Transaction
	err := conn.Where("card_id = ? AND kind = ? AND posted_at BETWEEN ? AND ?",
		cardID, KindDebit, from, to).Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// RecentCardCharges returns the latest debits of the window for the statement
// detail view, most recent first.
func RecentCardCharges(conn *gorm.DB, cardID uint, w StatementWindow, limit int) ([]Transaction, error) {
	from, to := w.UTCBounds()
	var rows []Transaction
	err := conn.Where("card_id = ? AND kind = ? AND posted_at BETWEEN ? AND ?",
		cardID, KindDebit, from, to).
		Order("posted_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
