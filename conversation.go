package main

import (
	"sync"
	"time"
)

// ConvState tags the step a chat's multi-message flow is waiting on. A chat
// with no entry in the table is idle.
type ConvState int

const (
	StateAwaitPayment ConvState = iota + 1
	StateAwaitSuggestion
	StateAwaitReportStart
	StateAwaitReportEnd
	StateOnboardingStart
	StateOnboardingCard
	StateOnboardingTransaction
)

// PendingTransaction carries a parsed `±amount category` shorthand across the
// payment-method and category-suggestion round trips.
type PendingTransaction struct {
	Kind       string
	AmountText string
	Typed      string // category name as the user typed it
	Suggestion string // existing category offered instead, when fuzzy-matched
}

type Conversation struct {
	State       ConvState
	Pending     *PendingTransaction
	ReportStart time.Time
}

// conversationTable holds the short-lived per-chat flow state, evicted
// explicitly on completion and on /cancel.
type conversationTable struct {
	mu    sync.Mutex
	chats map[int64]*Conversation
}

func newConversationTable() *conversationTable {
	return &conversationTable{chats: map[int64]*Conversation{}}
}

func (t *conversationTable) get(chatID int64) *Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chats[chatID]
}

func (t *conversationTable) set(chatID int64, c *Conversation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chats[chatID] = c
}

func (t *conversationTable) clear(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.chats, chatID)
}

var conversations = newConversationTable()
