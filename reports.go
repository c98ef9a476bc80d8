package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"gorm.io/gorm"
)

type CategorySpend struct {
	Name  string
	Total decimal.Decimal
}

type PeriodReport struct {
	Start, End time.Time // UTC query bounds
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	ByCategory []CategorySpend
}

func (r *PeriodReport) Balance() decimal.Decimal {
	return r.Income.Sub(r.Expenses)
}

// BuildPeriodReport totals a user's transactions inside [start, end] and
// breaks debits down per category, largest first. Transactions whose category
// was deleted group under "uncategorized".
func BuildPeriodReport(conn *gorm.DB, userID uint, start, end time.Time) (*PeriodReport, error) {
	var rows []Transaction
	err := conn.Where("user_id = ? AND posted_at BETWEEN ? AND ?",
		userID, start.UTC(), end.UTC()).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	report := &PeriodReport{
		Start: start.UTC(), End: end.UTC(),
		Income: decimal.Zero, Expenses: decimal.Zero,
	}
	byCategory := map[uint]decimal.Decimal{}
	uncategorized := decimal.Zero
	for _, t := range rows {
		if t.Kind == KindCredit {
			report.Income = report.Income.Add(t.Amount)
			continue
		}
		report.Expenses = report.Expenses.Add(t.Amount)
		if t.CategoryID == nil {
			uncategorized = uncategorized.Add(t.Amount)
		} else {
			byCategory[*t.CategoryID] = byCategory[*t.CategoryID].Add(t.Amount)
		}
	}
	for id, total := range byCategory {
		category := &Category{}
		if err := conn.First(category, id).Error; err != nil {
			return nil, err
		}
		report.ByCategory = append(report.ByCategory, CategorySpend{Name: category.Name, Total: total})
	}
	if uncategorized.IsPositive() {
		report.ByCategory = append(report.ByCategory, CategorySpend{Name: "uncategorized", Total: uncategorized})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Total.GreaterThan(report.ByCategory[j].Total)
	})
	return report, nil
}

// FormatPeriodReport renders the report message, with debit percentages
// relative to the period's total expenses.
func FormatPeriodReport(report *PeriodReport, loc *time.Location) string {
	lines := []string{
		fmt.Sprintf("📊 *Period report*\n_%s to %s_",
			report.Start.In(loc).Format("02/01/2006"),
			report.End.In(loc).Format("02/01/2006")),
		fmt.Sprintf("🟢 Income: %s", formatMoney(report.Income)),
		fmt.Sprintf("🔴 Expenses: %s", formatMoney(report.Expenses)),
		fmt.Sprintf("💰 Balance: %s", formatMoney(report.Balance())),
	}
	if len(report.ByCategory) > 0 {
		lines = append(lines, "\n*Spending by category:*")
		for _, spend := range report.ByCategory {
			percentage := decimal.Zero
			if report.Expenses.IsPositive() {
				percentage = spend.Total.Div(report.Expenses).Mul(decimal.NewFromInt(100))
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s (%s%%)",
				titleCase(spend.Name), formatMoney(spend.Total), percentage.StringFixed(1)))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderPieChart draws the per-category spend distribution as a PNG. Returns
// nil when there is nothing to draw.
func RenderPieChart(byCategory []CategorySpend) ([]byte, error) {
	if len(byCategory) == 0 {
		return nil, nil
	}
	values := make([]chart.Value, 0, len(byCategory))
	for _, spend := range byCategory {
		total, _ := spend.Total.Float64()
		values = append(values, chart.Value{Value: total, Label: titleCase(spend.Name)})
	}
	pie := chart.PieChart{Width: 512, Height: 512, Values: values}
	buf := &bytes.Buffer{}
	if err := pie.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportCSV writes the user's current-month transactions as a
// semicolon-delimited CSV: date, kind, amount (comma decimal separator),
// category and payment method. Returns the content and a file name.
func ExportCSV(conn *gorm.DB, userID uint, now time.Time) ([]byte, string, error) {
	utc := now.UTC()
	monthStart := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	var rows []Transaction
	err := conn.Where("user_id = ? AND posted_at >= ?", userID, monthStart).
		Order("posted_at ASC").Find(&rows).Error
	if err != nil {
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", gorm.ErrRecordNotFound
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'
	writer.Write([]string{"Date (UTC)", "Kind", "Amount", "Category", "Payment method"})
	for _, t := range rows {
		categoryName := "No category"
		if t.CategoryID != nil {
			category := &Category{}
			if err := conn.First(category, *t.CategoryID).Error; err == nil {
				categoryName = titleCase(category.Name)
			}
		}
		method := "Cash/Debit"
		if t.CardID != nil {
			card := &Card{}
			if err := conn.First(card, *t.CardID).Error; err == nil {
				method = card.Name
			}
		}
		writer.Write([]string{
			t.PostedAt.Format("2006-01-02 15:04:05"),
			t.Kind,
			strings.ReplaceAll(t.Amount.StringFixed(2), ".", ","),
			categoryName,
			method,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("report_%s.csv", utc.Format("2006_01")), nil
}

// WeeklyInsight names the user's top debit category over the last 7 days.
// ok is false when the user had no debits in the window.
func WeeklyInsight(conn *gorm.DB, userID uint, now time.Time) (string, bool, error) {
	since := now.UTC().AddDate(0, 0, -7)
	var rows []Transaction
	err := conn.Where("user_id = ? AND kind = ? AND posted_at >= ? AND category_id IS NOT NULL",
		userID, KindDebit, since).Find(&rows).Error
	if err != nil {
		return "", false, err
	}
	totals := map[uint]decimal.Decimal{}
	for _, t := range rows {
		totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
	}
	var topID uint
	top := decimal.Zero
	for id, total := range totals {
		if total.GreaterThan(top) {
			topID, top = id, total
		}
	}
	if top.IsZero() {
		return "", false, nil
	}
	category := &Category{}
	if err := conn.First(category, topID).Error; err != nil {
		return "", false, err
	}
	text := fmt.Sprintf("💡 *Your Premium insight of the week!*\n\n"+
		"Over the last 7 days your biggest spending category was *%s*, totaling *%s*.\n\n"+
		"Keep logging for more insights! 😉",
		titleCase(category.Name), formatMoney(top))
	return text, true, nil
}

// MonthRange returns the UTC bounds of the month containing now, or of the
// previous month when back is true.
func MonthRange(now time.Time, back bool) (time.Time, time.Time) {
	utc := now.UTC()
	start := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	if back {
		start = start.AddDate(0, -1, 0)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
