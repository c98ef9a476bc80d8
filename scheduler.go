package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler wraps a cron runner with name-keyed registration so that
// re-registering an entry (command re-issued, process restart) first cancels
// the previous one instead of stacking duplicates.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		entries: map[string]cron.EntryID{},
	}
}

func (s *Scheduler) Start() { s.cron.Start() }
func (s *Scheduler) Stop()  { s.cron.Stop() }

// Register replaces any entry already registered under the same name.
func (s *Scheduler) Register(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	s.entries[name] = id
	return nil
}

func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

func (s *Scheduler) Registered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

// Job names. One entry per reminder/charge/insight, stable across reloads.
// Charge jobs are keyed by the row id alone so that moving a charge to another
// chat replaces the entry instead of leaking the old registration.
func dailyReminderJobName(chatID int64) string { return fmt.Sprintf("daily_%d", chatID) }
func chargeJobName(chargeID uint) string { return fmt.Sprintf("charge_%d", chargeID) }
func insightJobName(userID uint) string { return fmt.Sprintf("insight_%d", userID) }

var reminderTexts = []string{
	"Hi! 👋 Remember to log your expenses today.",
	"Hey, how did the finances go today? ✍️",
}

// registerDailyReminder fires a nudge message every day at the stored time.
func registerDailyReminder(s *Scheduler, reminder DailyReminder) error {
	t, err := ParseTimeOfDay(reminder.Time)
	if err != nil {
		return err
	}
	chatID := reminder.ChatID
	return s.Register(dailyReminderJobName(chatID), t.DailySpec(), func() {
		text := reminderTexts[time.Now().UnixNano()%int64(len(reminderTexts))]
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			log.Printf("error sending daily reminder to chat %v: %v", chatID, err)
		}
	})
}

// registerScheduledCharge wires a monthly entry. A charge with a fixed amount
// posts the transaction automatically; one without only reminds.
func registerScheduledCharge(s *Scheduler, conn *gorm.DB, charge ScheduledCharge) error {
	t, err := ParseTimeOfDay(charge.Time)
	if err != nil {
		return err
	}
	name := chargeJobName(charge.ID)
	if charge.Amount == nil {
		title := charge.Title
		chatID := charge.ChatID
		return s.Register(name, t.MonthlySpec(charge.Day), func() {
			text := fmt.Sprintf("🗓️ Reminder: time to pay *%s*.", titleCase(title))
			msg := tgbotapi.NewMessage(chatID, text)
			msg.ParseMode = tgbotapi.ModeMarkdown
			if _, err := bot.Send(msg); err != nil {
				log.Printf("error sending bill reminder to chat %v: %v", chatID, err)
			}
		})
	}
	userID := charge.UserID
	chatID := charge.ChatID
	title := charge.Title
	amount := charge.Amount.String()
	return s.Register(name, t.MonthlySpec(charge.Day), func() {
		fireScheduledCharge(conn, userID, chatID, title, amount)
	})
}

// fireScheduledCharge posts the recurring expense in automated mode and
// reports the outcome to the owning chat.
func fireScheduledCharge(conn *gorm.DB, userID uint, chatID int64, title, amount string) {
	result, err := RecordTransaction(conn, userID, title, KindDebit, amount, nil, true, time.Now())
	if err != nil {
		log.Printf("error posting scheduled charge %q for user %v: %v", title, userID, err)
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("⚠️ Could not post scheduled expense '%s': %v", titleCase(title), err)))
		return
	}
	text := fmt.Sprintf("✅ Scheduled expense '%s' (%s) was registered automatically.",
		titleCase(result.CategoryName), formatMoney(result.Transaction.Amount))
	if result.BudgetMessage != "" {
		text += "\n\n" + result.BudgetMessage
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		log.Printf("error notifying chat %v about scheduled charge: %v", chatID, err)
	}
}

// deleteDailyReminder removes the user's reminder row for real, so /remind can
// recreate it later.
func deleteDailyReminder(conn *gorm.DB, userID uint) error {
	return conn.Unscoped().Where("user_id = ?", userID).Delete(&DailyReminder{}).Error
}

// deleteScheduledCharge removes the charge row for real, so the same title can
// be scheduled again.
func deleteScheduledCharge(conn *gorm.DB, charge *ScheduledCharge) error {
	return conn.Unscoped().Delete(charge).Error
}

// registerWeeklyInsight delivers the premium weekly spending insight on Monday
// mornings. The subscription is re-checked when the job fires, not when it is
// registered.
func registerWeeklyInsight(s *Scheduler, conn *gorm.DB, userID uint, chatID int64) error {
	return s.Register(insightJobName(userID), "0 10 * * 1", func() {
		if !IsPremium(conn, userID, time.Now()) {
			return
		}
		text, ok, err := WeeklyInsight(conn, userID, time.Now())
		if err != nil {
			log.Printf("error computing weekly insight for user %v: %v", userID, err)
			return
		}
		if !ok {
			return
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := bot.Send(msg); err != nil {
			log.Printf("error sending weekly insight to chat %v: %v", chatID, err)
		}
	})
}

// loadScheduledJobs re-registers every persisted reminder and charge after a
// restart, plus the weekly insight job for each known user.
func loadScheduledJobs(s *Scheduler, conn *gorm.DB) error {
	var reminders []DailyReminder
	if err := conn.Find(&reminders).Error; err != nil {
		return err
	}
	for _, reminder := range reminders {
		if err := registerDailyReminder(s, reminder); err != nil {
			log.Printf("skipping daily reminder for chat %v: %v", reminder.ChatID, err)
		}
	}
	log.Printf("loaded %d daily reminders", len(reminders))

	var charges []ScheduledCharge
	if err := conn.Find(&charges).Error; err != nil {
		return err
	}
	for _, charge := range charges {
		if err := registerScheduledCharge(s, conn, charge); err != nil {
			log.Printf("skipping scheduled charge %q: %v", charge.Title, err)
		}
	}
	log.Printf("loaded %d scheduled charges", len(charges))

	var users []User
	if err := conn.Where("chat_id <> 0").Find(&users).Error; err != nil {
		return err
	}
	for _, user := range users {
		if err := registerWeeklyInsight(s, conn, user.ID, user.ChatID); err != nil {
			log.Printf("skipping weekly insight for user %v: %v", user.ID, err)
		}
	}
	log.Printf("scheduled weekly insights for %d users", len(users))
	return nil
}
