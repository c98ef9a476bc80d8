package main

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// createCard registers a credit card, subject to the free-tier cap of one
// card, checked before any write.
func createCard(conn *gorm.DB, userID uint, name string, limit decimal.Decimal, closingDay int, premium bool) (*Card, error) {
	if !premium {
		var count int64
		if err := conn.Model(&Card{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count >= FreeCardLimit {
			return nil, ErrCardLimit
		}
	}
	card := &Card{UserID: userID, Name: name, Limit: limit, ClosingDay: closingDay}
	if err := conn.Create(card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

func findCard(conn *gorm.DB, userID uint, name string) (*Card, error) {
	card := &Card{}
	err := conn.Where("user_id = ? AND name = ?", userID, name).First(card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

func listCards(conn *gorm.DB, userID uint) ([]Card, error) {
	var cards []Card
	err := conn.Where("user_id = ?", userID).Order("name").Find(&cards).Error
	return cards, err
}

// deleteCard removes a card, detaching its transactions rather than deleting
// them. The row is removed for real so the name can be registered again.
func deleteCard(conn *gorm.DB, userID uint, name string) error {
	card, err := findCard(conn, userID, name)
	if err != nil {
		return err
	}
	if card == nil {
		return gorm.ErrRecordNotFound
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Transaction{}).Where("card_id = ?", card.ID).
			Update("card_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Unscoped().Delete(card).Error
	})
}
