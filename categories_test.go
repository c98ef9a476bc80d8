package main

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestNormalizeCategoryName(t *testing.T) {
	cases := map[string]string{
		"Food":        "food",
		"  Lanches  ": "lanches",
		"GROCERIES":   "groceries",
	}
	for in, want := range cases {
		if got := normalizeCategoryName(in); got != want {
			t.Errorf("normalizeCategoryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSuggestCategoryFindsCloseMatch(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	for _, name := range []string{"groceries", "transport"} {
		if err := conn.Create(&Category{UserID: user.ID, Name: name}).Error; err != nil {
			t.Fatalf("creating category %q: %v", name, err)
		}
	}

	match, score, err := SuggestCategory(conn, user.ID, "grocery")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if match != "groceries" {
		t.Errorf("match = %q, want %q", match, "groceries")
	}
	if score <= suggestionThreshold {
		t.Errorf("score = %d, want above %d", score, suggestionThreshold)
	}
}

func TestSuggestCategoryNoMatchBelowThreshold(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	conn.Create(&Category{UserID: user.ID, Name: "groceries"})

	match, _, err := SuggestCategory(conn, user.ID, "zzz")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if match != "" {
		t.Errorf("match = %q, want no suggestion", match)
	}
}

func TestSuggestCategoryWithNoCategories(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)

	match, score, err := SuggestCategory(conn, user.ID, "food")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if match != "" || score != 0 {
		t.Errorf("got %q/%d, want empty suggestion", match, score)
	}
}

func TestSuggestCategoryExactMatchIsOwnName(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	conn.Create(&Category{UserID: user.ID, Name: "food"})

	match, score, err := SuggestCategory(conn, user.ID, "Food")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if match != "food" || score != 100 {
		t.Errorf("got %q/%d, want food/100", match, score)
	}
}

func TestResolveOrCreateCategoryReusesExisting(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	existing := Category{UserID: user.ID, Name: "food"}
	conn.Create(&existing)

	category, err := resolveOrCreateCategory(conn, user.ID, " FOOD ", false)
	if err != nil {
		t.Fatalf("resolveOrCreateCategory: %v", err)
	}
	if category.ID != existing.ID {
		t.Errorf("got category id %d, want existing %d", category.ID, existing.ID)
	}
	var count int64
	conn.Model(&Category{}).Count(&count)
	if count != 1 {
		t.Errorf("categories = %d, want 1", count)
	}
}

func TestResolveOrCreateCategoryEnforcesCap(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	for _, name := range []string{"a", "b", "c"} {
		conn.Create(&Category{UserID: user.ID, Name: name})
	}

	_, err := resolveOrCreateCategory(conn, user.ID, "d", false)
	if !errors.Is(err, ErrCategoryLimit) {
		t.Fatalf("error = %v, want ErrCategoryLimit", err)
	}

	if _, err := resolveOrCreateCategory(conn, user.ID, "d", true); err != nil {
		t.Fatalf("premium resolveOrCreateCategory: %v", err)
	}
}

func TestResolveOrCreateCategoryCapIsPerUser(t *testing.T) {
	conn := openTestDB(t)
	crowded := createTestUser(t, conn, 1)
	fresh := createTestUser(t, conn, 2)
	for _, name := range []string{"a", "b", "c"} {
		conn.Create(&Category{UserID: crowded.ID, Name: name})
	}

	if _, err := resolveOrCreateCategory(conn, fresh.ID, "a", false); err != nil {
		t.Fatalf("resolveOrCreateCategory for second user: %v", err)
	}
}

func TestDeleteCategoryDetachesTransactions(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	category := Category{UserID: user.ID, Name: "food"}
	conn.Create(&category)
	conn.Create(&Budget{UserID: user.ID, CategoryID: category.ID, Amount: dec(t, "100")})
	row := insertTransaction(t, conn, user.ID, &category.ID, nil, "20", KindDebit, time.Now())

	if err := deleteCategory(conn, user.ID, "food"); err != nil {
		t.Fatalf("deleteCategory: %v", err)
	}

	reloaded := &Transaction{}
	if err := conn.First(reloaded, row.ID).Error; err != nil {
		t.Fatalf("transaction was deleted with its category: %v", err)
	}
	if reloaded.CategoryID != nil {
		t.Errorf("CategoryID = %v, want detached", *reloaded.CategoryID)
	}
	var budgets int64
	conn.Model(&Budget{}).Count(&budgets)
	if budgets != 0 {
		t.Errorf("budgets = %d, want 0", budgets)
	}
	if got, err := findCategory(conn, user.ID, "food"); err != nil || got != nil {
		t.Errorf("findCategory after delete = %v, %v; want nil, nil", got, err)
	}
}

func TestDeleteCategoryThenRecreate(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	if _, err := resolveOrCreateCategory(conn, user.ID, "food", false); err != nil {
		t.Fatalf("resolveOrCreateCategory: %v", err)
	}

	if err := deleteCategory(conn, user.ID, "food"); err != nil {
		t.Fatalf("deleteCategory: %v", err)
	}
	// The name is free again after deletion.
	category, err := resolveOrCreateCategory(conn, user.ID, "food", false)
	if err != nil {
		t.Fatalf("recreating category after delete: %v", err)
	}
	if category.Name != "food" {
		t.Errorf("Name = %q, want food", category.Name)
	}
	var count int64
	conn.Model(&Category{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("categories = %d, want 1", count)
	}
}

func TestDeleteCategoryMissing(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)

	err := deleteCategory(conn, user.ID, "nope")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestListCategoriesSorted(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, 1)
	for _, name := range []string{"transport", "food", "pets"} {
		conn.Create(&Category{UserID: user.ID, Name: name})
	}

	categories, err := listCategories(conn, user.ID)
	if err != nil {
		t.Fatalf("listCategories: %v", err)
	}
	want := []string{"food", "pets", "transport"}
	if len(categories) != len(want) {
		t.Fatalf("got %d categories, want %d", len(categories), len(want))
	}
	for i, name := range want {
		if categories[i].Name != name {
			t.Errorf("categories[%d] = %q, want %q", i, categories[i].Name, name)
		}
	}
}
