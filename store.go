package main

import (
	"errors"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDatabase(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&User{},
		&Category{},
		&Card{},
		&Transaction{},
		&Budget{},
		&DailyReminder{},
		&ScheduledCharge{},
		&Subscription{},
	)
}

func databaseDir(path string) string {
	return filepath.Dir(path)
}

// findUser returns the user owning the given telegram id, or nil when the
// user has not talked to the bot yet.
func findUser(conn *gorm.DB, telegramID int64) (*User, error) {
	user := &User{}
	err := conn.Where("telegram_id = ?", telegramID).First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// wipeUser deletes every row owned by the user. Admin command only.
func wipeUser(conn *gorm.DB, telegramID int64) error {
	user, err := findUser(conn, telegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return gorm.ErrRecordNotFound
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&Transaction{}, &Budget{}, &Card{}, &Category{},
			&DailyReminder{}, &ScheduledCharge{}, &Subscription{},
		} {
			if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(user).Error
	})
}
