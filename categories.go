package main

import (
	"errors"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"gorm.io/gorm"
)

// Free-tier caps. Premium subscribers are unlimited.
const (
	FreeCategoryLimit = 3
	FreeCardLimit     = 1
)

// Minimum token-sort similarity (0-100) for offering an existing category
// instead of creating a new one.
const suggestionThreshold = 70

var (
	ErrCategoryLimit = errors.New("free plan category limit reached")
	ErrCardLimit     = errors.New("free plan card limit reached")
)

func normalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// findCategory looks up the user's category by normalized name.
func findCategory(conn *gorm.DB, userID uint, name string) (*Category, error) {
	category := &Category{}
	err := conn.Where("user_id = ? AND name = ?", userID, normalizeCategoryName(name)).First(category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// SuggestCategory fuzzy-matches a name the user typed against their existing
// categories. It returns the best match only when it scores above the
// threshold; otherwise the caller should proceed to create the typed name.
func SuggestCategory(conn *gorm.DB, userID uint, typed string) (string, int, error) {
	typed = normalizeCategoryName(typed)
	var categories []Category
	if err := conn.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return "", 0, err
	}
	best, bestScore := "", 0
	for _, c := range categories {
		score := fuzzy.TokenSortRatio(typed, c.Name)
		if score > bestScore {
			best, bestScore = c.Name, score
		}
	}
	if bestScore <= suggestionThreshold {
		return "", 0, nil
	}
	return best, bestScore, nil
}

// resolveOrCreateCategory returns the user's category with the given name,
// creating it when missing. Creation counts against the free-tier cap, checked
// before any write.
func resolveOrCreateCategory(conn *gorm.DB, userID uint, name string, premium bool) (*Category, error) {
	name = normalizeCategoryName(name)
	category, err := findCategory(conn, userID, name)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}
	if !premium {
		var count int64
		if err := conn.Model(&Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count >= FreeCategoryLimit {
			return nil, ErrCategoryLimit
		}
	}
	category = &Category{UserID: userID, Name: name}
	if err := conn.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// deleteCategory removes a category and its budget, detaching its transactions
// rather than deleting them. Rows are removed for real so the name can be
// created again.
func deleteCategory(conn *gorm.DB, userID uint, name string) error {
	category, err := findCategory(conn, userID, name)
	if err != nil {
		return err
	}
	if category == nil {
		return gorm.ErrRecordNotFound
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Transaction{}).Where("category_id = ?", category.ID).
			Update("category_id", nil).Error
		if err != nil {
			return err
		}
		err = tx.Unscoped().Where("user_id = ? AND category_id = ?", userID, category.ID).
			Delete(&Budget{}).Error
		if err != nil {
			return err
		}
		return tx.Unscoped().Delete(category).Error
	})
}

func listCategories(conn *gorm.DB, userID uint) ([]Category, error) {
	var categories []Category
	err := conn.Where("user_id = ?", userID).Order("name").Find(&categories).Error
	return categories, err
}
