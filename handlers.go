package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// `±amount category` shorthand, e.g. "-15 lunch" or "+1200,50 salary".
var transactionPattern = regexp.MustCompile(`^([+\-])\s*(\d+(?:[.,]\d{1,2})?)\s*(.*)$`)

var confirmations = []string{"✅ Noted!", "Ok, logged! 👍", "Done!", "On the books! 📝"}

func sendError(chatID int64, err error) {
	log.Printf("reporting error to chat %v: %v", chatID, err)
	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Error: %v", err)))
}

func reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		log.Printf("error sending message to chat %v: %v", chatID, err)
	}
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	menu := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Report"),
			tgbotapi.NewKeyboardButton("💳 Cards"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🗂️ Categories"),
			tgbotapi.NewKeyboardButton("💡 Help"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("⏰ Reminders"),
			tgbotapi.NewKeyboardButton("⬇️ Export"),
		),
	)
	menu.ResizeKeyboard = true
	return menu
}

func HandleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		log.Printf("[%s (%v)] %s", update.CallbackQuery.From.UserName, update.CallbackQuery.From.ID, update.CallbackQuery.Data)
		handleCallback(update)
		return
	}
	if update.Message == nil {
		return
	}
	message := update.Message
	log.Printf("[%s (%v)] %s", message.From.UserName, message.From.ID, message.Text)

	if message.IsCommand() {
		handleCommand(update, message.Command(), strings.TrimSpace(message.CommandArguments()))
		return
	}
	handleText(update, message.Text)
}

// requireUser resolves the internal user for an update, prompting for /start
// when the sender is unknown.
func requireUser(telegramID, chatID int64) *User {
	user, err := findUser(db, telegramID)
	if err != nil {
		sendError(chatID, err)
		return nil
	}
	if user == nil {
		reply(chatID, "Please start the bot with /start first.")
		return nil
	}
	return user
}

func handleCommand(update tgbotapi.Update, command, args string) {
	message := update.Message
	chatID := message.Chat.ID

	if command == "start" {
		handleStart(message)
		return
	}
	if command == "cancel" {
		conversations.clear(chatID)
		reply(chatID, "Operation cancelled.")
		return
	}
	if command == "wipeuser" {
		handleWipeUser(message, args)
		return
	}

	user := requireUser(message.From.ID, chatID)
	if user == nil {
		return
	}

	switch command {
	case "help":
		reply(chatID, helpText)
	case "addcard":
		handleAddCard(user, chatID, args)
	case "cards":
		handleListCards(user, chatID)
	case "statement":
		handleStatement(user, chatID, args)
	case "delcard":
		handleDeleteCard(user, chatID, args)
	case "categories":
		handleListCategories(user, chatID)
	case "delcategory":
		handleDeleteCategory(user, chatID, args)
	case "budget":
		handleSetBudget(user, chatID, args)
	case "budgets":
		handleListBudgets(user, chatID)
	case "delbudget":
		handleDeleteBudget(user, chatID, args)
	case "remind":
		handleSetReminder(user, chatID, args)
	case "cancelreminder":
		handleCancelReminder(user, chatID)
	case "schedule":
		handleSchedule(user, chatID, args)
	case "schedules":
		handleListSchedules(user, chatID)
	case "unschedule":
		handleUnschedule(user, chatID, args)
	case "report":
		handleReportMenu(chatID)
	case "export":
		handleExport(user, chatID)
	default:
		reply(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func handleText(update tgbotapi.Update, text string) {
	message := update.Message
	chatID := message.Chat.ID

	// Menu buttons are plain text messages.
	switch text {
	case "📊 Report":
		if requireUser(message.From.ID, chatID) != nil {
			handleReportMenu(chatID)
		}
		return
	case "💳 Cards":
		reply(chatID, cardsMenuText)
		return
	case "🗂️ Categories":
		if user := requireUser(message.From.ID, chatID); user != nil {
			handleListCategories(user, chatID)
		}
		return
	case "💡 Help":
		reply(chatID, helpText)
		return
	case "⏰ Reminders":
		reply(chatID, remindersMenuText)
		return
	case "⬇️ Export":
		if user := requireUser(message.From.ID, chatID); user != nil {
			handleExport(user, chatID)
		}
		return
	}

	conversation := conversations.get(chatID)
	if conversation != nil {
		switch conversation.State {
		case StateAwaitReportStart:
			handleReportStartDate(update, conversation, text)
			return
		case StateAwaitReportEnd:
			handleReportEndDate(update, conversation, text)
			return
		case StateOnboardingTransaction:
			handleOnboardingTransaction(update, text)
			return
		}
	}

	match := transactionPattern.FindStringSubmatch(text)
	if match == nil {
		return
	}
	user := requireUser(message.From.ID, chatID)
	if user == nil {
		return
	}
	startTransactionFlow(user, chatID, match[1], match[2], match[3])
}

// startTransactionFlow begins the interactive registration of a shorthand
// message: fuzzy category suggestion first when the typed name is unknown,
// then payment-method selection for debits.
func startTransactionFlow(user *User, chatID int64, sign, amountText, typed string) {
	typed = normalizeCategoryName(typed)
	if typed == "" {
		reply(chatID, "Add a category. Example: `-50 groceries`")
		return
	}
	if _, err := ParseAmount(amountText); err != nil {
		reply(chatID, "That amount doesn't look like a number. Example: `-15.50 lunch`")
		return
	}
	kind := KindCredit
	if sign == "-" {
		kind = KindDebit
	}
	pending := &PendingTransaction{Kind: kind, AmountText: amountText, Typed: typed}

	category, err := findCategory(db, user.ID, typed)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if category == nil {
		suggestion, _, err := SuggestCategory(db, user.ID, typed)
		if err != nil {
			sendError(chatID, err)
			return
		}
		if suggestion != "" {
			pending.Suggestion = suggestion
			conversations.set(chatID, &Conversation{State: StateAwaitSuggestion, Pending: pending})
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
				"Hmm, I don't know the category '%s'. Did you mean '%s'?", typed, titleCase(suggestion)))
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Yes, use '%s'", titleCase(suggestion)), "suggest:yes"),
					tgbotapi.NewInlineKeyboardButtonData("No, create new", "suggest:no"),
				),
			)
			bot.Send(msg)
			return
		}
	}
	proceedWithCategory(user, chatID, pending)
}

// proceedWithCategory continues once the category name is settled: credits
// post immediately, debits first ask how the user paid.
func proceedWithCategory(user *User, chatID int64, pending *PendingTransaction) {
	if pending.Kind == KindCredit {
		conversations.clear(chatID)
		finishRecord(user, chatID, pending, nil)
		return
	}
	cards, err := listCards(db, user.ID)
	if err != nil {
		sendError(chatID, err)
		return
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, card := range cards {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 "+card.Name, fmt.Sprintf("card:%d", card.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💵 Cash/Debit", "card:0"),
	))
	conversations.set(chatID, &Conversation{State: StateAwaitPayment, Pending: pending})
	msg := tgbotapi.NewMessage(chatID, "How did you pay?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	bot.Send(msg)
}

// finishRecord runs the recorder and sends the confirmation with its undo
// button. Gate denials route to the upsell instead of an error.
func finishRecord(user *User, chatID int64, pending *PendingTransaction, cardID *uint) {
	categoryName := pending.Typed
	if pending.Suggestion != "" {
		categoryName = pending.Suggestion
	}
	result, err := RecordTransaction(db, user.ID, categoryName, pending.Kind, pending.AmountText, cardID, false, time.Now())
	if errors.Is(err, ErrCategoryLimit) {
		sendUpsell(chatID, categoryLimitName)
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	text := confirmations[rand.Intn(len(confirmations))]
	text += fmt.Sprintf("\n*Category:* %s\n*Amount:* %s", titleCase(result.CategoryName), formatMoney(result.Transaction.Amount))
	if result.CardName != "" {
		text += fmt.Sprintf("\n*Card:* %s", result.CardName)
	}
	if result.StreakMessage != "" {
		text += "\n\n" + result.StreakMessage
	}
	if result.BudgetMessage != "" {
		text += "\n\n" + result.BudgetMessage
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Undo", fmt.Sprintf("undo:%d", result.Transaction.ID)),
		),
	)
	bot.Send(msg)
}

func handleCallback(update tgbotapi.Update) {
	query := update.CallbackQuery
	chatID := query.Message.Chat.ID
	bot.Request(tgbotapi.NewCallback(query.ID, ""))

	action, arg := query.Data, ""
	if i := strings.IndexByte(query.Data, ':'); i >= 0 {
		action, arg = query.Data[:i], query.Data[i+1:]
	}

	switch action {
	case "onboard":
		handleOnboardingCallback(query, arg)
		return
	case "upsell":
		switch arg {
		case "dismiss":
			editText(query, "Got it. Keep enjoying the free features! 😉")
		case "categories":
			if user := requireUser(query.From.ID, chatID); user != nil {
				reply(chatID, "Here are your current categories. Use /delcategory to remove one.")
				handleListCategories(user, chatID)
			}
		case "upgrade":
			editText(query, "💎 Premium subscriptions are activated by the bot admin. Get in touch!")
		}
		return
	}

	user := requireUser(query.From.ID, chatID)
	if user == nil {
		return
	}

	switch action {
	case "undo":
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			editText(query, "Could not process that.")
			return
		}
		err = UndoTransaction(db, user.ID, uint(id))
		if errors.Is(err, ErrAlreadyUndone) {
			editText(query, "✅ Already undone.")
			return
		}
		if err != nil {
			sendError(chatID, err)
			return
		}
		editText(query, "✅ Entry undone!")
	case "suggest":
		conversation := conversations.get(chatID)
		if conversation == nil || conversation.State != StateAwaitSuggestion {
			editText(query, "Something went wrong. Try logging that again.")
			return
		}
		pending := conversation.Pending
		if arg != "yes" {
			pending.Suggestion = ""
		}
		name := pending.Typed
		if pending.Suggestion != "" {
			name = pending.Suggestion
		}
		editText(query, fmt.Sprintf("Ok, using the category '%s'...", titleCase(name)))
		proceedWithCategory(user, chatID, pending)
	case "card":
		conversation := conversations.get(chatID)
		if conversation == nil || conversation.State != StateAwaitPayment {
			editText(query, "Something went wrong. Try logging that again.")
			return
		}
		conversations.clear(chatID)
		var cardID *uint
		if arg != "0" {
			id, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				editText(query, "Could not process that.")
				return
			}
			parsed := uint(id)
			cardID = &parsed
		}
		editText(query, "Ok, logging it...")
		finishRecord(user, chatID, conversation.Pending, cardID)
	case "report":
		handleReportCallback(user, query, arg)
	}
}

func editText(query *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if _, err := bot.Send(edit); err != nil {
		log.Printf("error editing message: %v", err)
	}
}
