package main

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"15", "15", false},
		{"15.50", "15.5", false},
		{"15,50", "15.5", false},
		{" 8 ", "8", false},
		{"abc", "", true},
		{"0", "", true},
		{"-3", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if c.wantErr {
			if !errors.Is(err, ErrBadAmount) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrBadAmount", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected error: %v", c.in, err)
			continue
		}
		if !got.Equal(dec(t, c.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestRecordTransactionFirstStreak(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	result, err := RecordTransaction(conn, user.ID, "lunch", KindDebit, "15.00", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if result.StreakMessage != "💪 New streak started!" {
		t.Errorf("StreakMessage = %q, want new-streak message", result.StreakMessage)
	}
	if result.CategoryName != "lunch" {
		t.Errorf("CategoryName = %q, want %q", result.CategoryName, "lunch")
	}

	reloaded := &User{}
	if err := conn.First(reloaded, user.ID).Error; err != nil {
		t.Fatalf("reloading user: %v", err)
	}
	if reloaded.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", reloaded.StreakDays)
	}
	if reloaded.LastEntryDate != "2025-06-15" {
		t.Errorf("LastEntryDate = %q, want 2025-06-15", reloaded.LastEntryDate)
	}
}

func TestRecordTransactionStreakSameDayUnchanged(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	if _, err := RecordTransaction(conn, user.ID, "lunch", KindDebit, "15", nil, false, now); err != nil {
		t.Fatalf("first RecordTransaction: %v", err)
	}
	result, err := RecordTransaction(conn, user.ID, "lunch", KindDebit, "8", nil, false, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second RecordTransaction: %v", err)
	}
	if result.StreakMessage != "" {
		t.Errorf("StreakMessage = %q, want empty on same-day post", result.StreakMessage)
	}
	reloaded := &User{}
	conn.First(reloaded, user.ID)
	if reloaded.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", reloaded.StreakDays)
	}
}

func TestRecordTransactionStreakIncrementsAfterYesterday(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	conn.Model(user).Updates(map[string]any{"last_entry_date": "2025-06-14", "streak_days": 3})

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	result, err := RecordTransaction(conn, user.ID, "lunch", KindDebit, "15", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if !strings.Contains(result.StreakMessage, "4 day streak") {
		t.Errorf("StreakMessage = %q, want 4 day streak", result.StreakMessage)
	}
	reloaded := &User{}
	conn.First(reloaded, user.ID)
	if reloaded.StreakDays != 4 {
		t.Errorf("StreakDays = %d, want 4", reloaded.StreakDays)
	}
}

func TestRecordTransactionStreakResetsAfterGap(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	conn.Model(user).Updates(map[string]any{"last_entry_date": "2025-06-10", "streak_days": 7})

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	result, err := RecordTransaction(conn, user.ID, "lunch", KindDebit, "15", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if result.StreakMessage != "💪 New streak started!" {
		t.Errorf("StreakMessage = %q, want reset message", result.StreakMessage)
	}
	reloaded := &User{}
	conn.First(reloaded, user.ID)
	if reloaded.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", reloaded.StreakDays)
	}
}

func TestRecordTransactionAutomatedSkipsStreak(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	result, err := RecordTransaction(conn, user.ID, "rent", KindDebit, "900", nil, true, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if result.StreakMessage != "" {
		t.Errorf("StreakMessage = %q, want empty for automated posting", result.StreakMessage)
	}
	reloaded := &User{}
	conn.First(reloaded, user.ID)
	if reloaded.StreakDays != 0 {
		t.Errorf("StreakDays = %d, want 0", reloaded.StreakDays)
	}
}

func TestRecordTransactionCategoryCap(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	for _, name := range []string{"food", "transport", "fun"} {
		if err := conn.Create(&Category{UserID: user.ID, Name: name}).Error; err != nil {
			t.Fatalf("creating category %q: %v", name, err)
		}
	}
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	_, err := RecordTransaction(conn, user.ID, "pets", KindDebit, "20", nil, false, now)
	if !errors.Is(err, ErrCategoryLimit) {
		t.Fatalf("RecordTransaction error = %v, want ErrCategoryLimit", err)
	}

	var transactions, categories int64
	conn.Model(&Transaction{}).Count(&transactions)
	conn.Model(&Category{}).Where("user_id = ?", user.ID).Count(&categories)
	if transactions != 0 {
		t.Errorf("transactions = %d, want 0 after rejected cap", transactions)
	}
	if categories != 3 {
		t.Errorf("categories = %d, want 3 after rejected cap", categories)
	}

	// An existing category is still usable at the cap.
	if _, err := RecordTransaction(conn, user.ID, "food", KindDebit, "20", nil, false, now); err != nil {
		t.Fatalf("RecordTransaction with existing category: %v", err)
	}
}

func TestRecordTransactionPremiumBypassesCap(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	makePremium(t, conn, user.ID, now.AddDate(0, 1, 0))
	for _, name := range []string{"food", "transport", "fun"} {
		conn.Create(&Category{UserID: user.ID, Name: name})
	}

	if _, err := RecordTransaction(conn, user.ID, "pets", KindDebit, "20", nil, false, now); err != nil {
		t.Fatalf("RecordTransaction for premium user: %v", err)
	}
}

func TestRecordTransactionBudgetMessage(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	category := Category{UserID: user.ID, Name: "food"}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("creating category: %v", err)
	}
	if err := conn.Create(&Budget{UserID: user.ID, CategoryID: category.ID, Amount: dec(t, "100")}).Error; err != nil {
		t.Fatalf("creating budget: %v", err)
	}
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	result, err := RecordTransaction(conn, user.ID, "food", KindDebit, "30", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if !strings.Contains(result.BudgetMessage, "30.00") || !strings.Contains(result.BudgetMessage, "30.0%") {
		t.Errorf("BudgetMessage = %q, want 30.00 of 100.00 (30.0%%)", result.BudgetMessage)
	}
	if strings.Contains(result.BudgetMessage, "over the budget") {
		t.Errorf("BudgetMessage warns too early: %q", result.BudgetMessage)
	}

	result, err = RecordTransaction(conn, user.ID, "food", KindDebit, "80", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if !strings.Contains(result.BudgetMessage, "110.00") {
		t.Errorf("BudgetMessage = %q, want month-to-date of 110.00", result.BudgetMessage)
	}
	if !strings.Contains(result.BudgetMessage, "over the budget") {
		t.Errorf("BudgetMessage = %q, want exceeded warning", result.BudgetMessage)
	}
}

func TestRecordTransactionCreditHasNoBudgetMessage(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	category := Category{UserID: user.ID, Name: "salary"}
	conn.Create(&category)
	conn.Create(&Budget{UserID: user.ID, CategoryID: category.ID, Amount: dec(t, "100")})
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	result, err := RecordTransaction(conn, user.ID, "salary", KindCredit, "500", nil, false, now)
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if result.BudgetMessage != "" {
		t.Errorf("BudgetMessage = %q, want empty for credits", result.BudgetMessage)
	}
}

func TestRecordTransactionRejectsForeignCard(t *testing.T) {
	conn := openTestDB(t)
	owner := createTestUser(t, conn, 1)
	other := createTestUser(t, conn, 2)
	card := Card{UserID: other.ID, Name: "Visa", Limit: dec(t, "1000"), ClosingDay: 10}
	if err := conn.Create(&card).Error; err != nil {
		t.Fatalf("creating card: %v", err)
	}
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	_, err := RecordTransaction(conn, owner.ID, "food", KindDebit, "20", &card.ID, false, now)
	if !errors.Is(err, ErrNotOwnedCard) {
		t.Fatalf("RecordTransaction error = %v, want ErrNotOwnedCard", err)
	}
	var count int64
	conn.Model(&Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("transactions = %d, want 0 after rejected card", count)
	}
}

func TestRecordTransactionBadAmountWritesNothing(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)

	_, err := RecordTransaction(conn, user.ID, "food", KindDebit, "12x", nil, false, time.Now())
	if !errors.Is(err, ErrBadAmount) {
		t.Fatalf("RecordTransaction error = %v, want ErrBadAmount", err)
	}
	var transactions, categories int64
	conn.Model(&Transaction{}).Count(&transactions)
	conn.Model(&Category{}).Count(&categories)
	if transactions != 0 || categories != 0 {
		t.Errorf("wrote %d transactions, %d categories; want none", transactions, categories)
	}
}

func TestDeleteBudgetThenRecreate(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	category := Category{UserID: user.ID, Name: "food"}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("creating category: %v", err)
	}
	if err := conn.Create(&Budget{UserID: user.ID, CategoryID: category.ID, Amount: dec(t, "100")}).Error; err != nil {
		t.Fatalf("creating budget: %v", err)
	}

	existed, err := deleteBudget(conn, user.ID, category.ID)
	if err != nil {
		t.Fatalf("deleteBudget: %v", err)
	}
	if !existed {
		t.Fatal("existed = false, want true")
	}
	// The same user+category pair takes a new budget after deletion.
	if err := conn.Create(&Budget{UserID: user.ID, CategoryID: category.ID, Amount: dec(t, "200")}).Error; err != nil {
		t.Fatalf("recreating budget after delete: %v", err)
	}

	existed, err = deleteBudget(conn, user.ID, category.ID)
	if err != nil {
		t.Fatalf("second deleteBudget: %v", err)
	}
	if !existed {
		t.Fatal("recreated budget was not found")
	}
	if existed, _ = deleteBudget(conn, user.ID, category.ID); existed {
		t.Error("existed = true on an empty table")
	}
}

func TestUndoTransactionIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	result, err := RecordTransaction(conn, user.ID, "food", KindDebit, "20", nil, false, time.Now())
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	if err := UndoTransaction(conn, user.ID, result.Transaction.ID); err != nil {
		t.Fatalf("first undo: %v", err)
	}
	err = UndoTransaction(conn, user.ID, result.Transaction.ID)
	if !errors.Is(err, ErrAlreadyUndone) {
		t.Errorf("second undo error = %v, want ErrAlreadyUndone", err)
	}
	var count int64
	conn.Model(&Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("transactions = %d, want 0 after undo", count)
	}
}

func TestUndoTransactionIgnoresOtherUsers(t *testing.T) {
	conn := openTestDB(t)
	owner := createTestUser(t, conn, 1)
	intruder := createTestUser(t, conn, 2)
	result, err := RecordTransaction(conn, owner.ID, "food", KindDebit, "20", nil, false, time.Now())
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	err = UndoTransaction(conn, intruder.ID, result.Transaction.ID)
	if !errors.Is(err, ErrAlreadyUndone) {
		t.Errorf("cross-user undo error = %v, want ErrAlreadyUndone", err)
	}
	var count int64
	conn.Model(&Transaction{}).Count(&count)
	if count != 1 {
		t.Errorf("transactions = %d, want the row kept", count)
	}
}
