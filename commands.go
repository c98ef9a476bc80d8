package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const helpText = "🤖 *Commands*\n\n" +
	"To log a transaction:\n" +
	"`-amount category` (expense)\n" +
	"`+amount category` (income)\n\n" +
	"💰 *Budgets (Premium):*\n" +
	"  `/budget <category> <amount>`\n" +
	"  `/budgets`\n" +
	"  `/delbudget <category>`\n\n" +
	"💳 *Credit cards:*\n" +
	"  `/addcard <name> <limit> <closing day>`\n" +
	"  `/cards`\n" +
	"  `/statement <card name>`\n" +
	"  `/delcard <name>`\n\n" +
	"⏰ *Reminders and schedules (Premium):*\n" +
	"  `/remind HH:MM` and `/cancelreminder`\n" +
	"  `/schedule <day> <HH:MM> [amount] <title>`\n" +
	"  `/schedules`\n" +
	"  `/unschedule <title>`\n\n" +
	"📊 *Analysis and export (Premium):*\n" +
	"  `/report`\n" +
	"  `/export`"

const cardsMenuText = "Manage your credit cards here:\n\n" +
	"➡️ To add:\n`/addcard <name> <limit> <closing day>`\n*Example:* `/addcard Nubank 1500 28`\n\n" +
	"➡️ To check:\n`/cards`\n`/statement <card name>`\n\n" +
	"➡️ To remove:\n`/delcard <card name>`"

const remindersMenuText = "Set up your notifications here:\n\n" +
	"☀️ *DAILY REMINDER* (to log expenses)\n`/remind HH:MM`\n`/cancelreminder`\n\n" +
	"🗓️ *BILL SCHEDULER* (automatic posting)\n`/schedule <day> <HH:MM> [amount] <title>`\n`/schedules`\n`/unschedule <title>`"

// --- /start and onboarding ---

func handleStart(message *tgbotapi.Message) {
	telegramID := message.From.ID
	chatID := message.Chat.ID
	user, err := findUser(db, telegramID)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if user == nil {
		user = &User{TelegramID: telegramID, ChatID: chatID, UserName: message.From.UserName}
		if err := db.Create(user).Error; err != nil {
			sendError(chatID, err)
			return
		}
		if err := registerWeeklyInsight(sched, db, user.ID, chatID); err != nil {
			log.Printf("error scheduling weekly insight for new user %v: %v", user.ID, err)
		}
		conversations.set(chatID, &Conversation{State: StateOnboardingStart})
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Hi, %s! 👋 Welcome to PlinBot!\n\nLooks like this is your first time here. "+
				"Would you like a quick tour of the main features?", message.From.FirstName))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Yes, let's go! 🚀", "onboard:start"),
				tgbotapi.NewInlineKeyboardButtonData("No, thanks.", "onboard:done"),
			),
		)
		bot.Send(msg)
		return
	}

	// Returning user: refresh the chat address and show the month so far.
	if err := db.Model(user).Update("chat_id", chatID).Error; err != nil {
		sendError(chatID, err)
		return
	}
	now := time.Now()
	monthStart, monthEnd := MonthRange(now, false)
	report, err := BuildPeriodReport(db, user.ID, monthStart, monthEnd)
	if err != nil {
		sendError(chatID, err)
		return
	}
	text := fmt.Sprintf("Welcome back, %s!\n\n📊 So far this month your expenses add up to *%s*.\n\n",
		message.From.FirstName, formatMoney(report.Expenses))
	if user.StreakDays > 1 {
		text += fmt.Sprintf("You're on a *%d day* logging streak! Keep it up! 🔥", user.StreakDays)
	} else {
		text += "What shall we organize today?"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = mainMenu()
	bot.Send(msg)
}

func handleOnboardingCallback(query *tgbotapi.CallbackQuery, arg string) {
	chatID := query.Message.Chat.ID
	switch arg {
	case "start":
		conversations.set(chatID, &Conversation{State: StateOnboardingCard})
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID,
			"Great! First, let's register a card. It helps organize your spending.\n\n"+
				"Use `/addcard <name> <limit> <closing day>`.\n\n"+
				"*Example:* `/addcard Nubank 1500 28`")
		edit.ParseMode = tgbotapi.ModeMarkdown
		edit.ReplyMarkup = &tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Skip this step ➡️", "onboard:skipcard"),
				),
			},
		}
		bot.Send(edit)
	case "skipcard":
		askOnboardingTransaction(chatID)
	case "done":
		finishOnboarding(chatID)
	}
}

func askOnboardingTransaction(chatID int64) {
	conversations.set(chatID, &Conversation{State: StateOnboardingTransaction})
	msg := tgbotapi.NewMessage(chatID,
		"Perfect! You're almost set.\n\n"+
			"The bot's main job is logging your transactions. Try logging your latest expense right now!\n\n"+
			"Use the format: `-amount category`\n\n*Example:* `-15 lunch`")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Finish tour ✅", "onboard:done"),
		),
	)
	bot.Send(msg)
}

// handleOnboardingTransaction posts the tour's first transaction without the
// payment-method round trip.
func handleOnboardingTransaction(update tgbotapi.Update, text string) {
	chatID := update.Message.Chat.ID
	match := transactionPattern.FindStringSubmatch(text)
	if match == nil {
		reply(chatID, "Invalid format. Try something like `-15 lunch`, or tap the button to finish the tour.")
		return
	}
	typed := normalizeCategoryName(match[3])
	if typed == "" {
		reply(chatID, "You forgot the category! Try `-15 lunch`.")
		return
	}
	user := requireUser(update.Message.From.ID, chatID)
	if user == nil {
		return
	}
	kind := KindCredit
	if match[1] == "-" {
		kind = KindDebit
	}
	finishRecord(user, chatID, &PendingTransaction{Kind: kind, AmountText: match[2], Typed: typed}, nil)
	reply(chatID, "Perfect, your first transaction is in!")
	finishOnboarding(chatID)
}

func finishOnboarding(chatID int64) {
	conversations.clear(chatID)
	msg := tgbotapi.NewMessage(chatID,
		"All set! You know the basics now, the bot is all yours.\n\n"+
			"Remember you can use the menu buttons any time.")
	msg.ReplyMarkup = mainMenu()
	bot.Send(msg)
}

// --- cards ---

func handleAddCard(user *User, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		reply(chatID, "Invalid format! Use: `/addcard <name> <limit> <closing day>`")
		return
	}
	name := titleCase(strings.ToLower(fields[0]))
	limit, limitErr := ParseAmount(fields[1])
	closingDay, dayErr := parseClosingDay(fields[2])
	if limitErr != nil || dayErr != nil {
		reply(chatID, "Invalid format! Use: `/addcard <name> <limit> <closing day>`")
		return
	}
	premium := IsPremium(db, user.ID, time.Now())
	_, err := createCard(db, user.ID, name, limit, closingDay, premium)
	if errors.Is(err, ErrCardLimit) {
		sendUpsell(chatID, cardLimitName)
		return
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		reply(chatID, fmt.Sprintf("⚠️ A card named '%s' already exists.", name))
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("💳 Card '%s' added!", name))
	conversation := conversations.get(chatID)
	if conversation != nil && conversation.State == StateOnboardingCard {
		askOnboardingTransaction(chatID)
	}
}

func parseClosingDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if day < 1 || day > 31 {
		return 0, fmt.Errorf("closing day out of range: %d", day)
	}
	return day, nil
}

func handleListCards(user *User, chatID int64) {
	cards, err := listCards(db, user.ID)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if len(cards) == 0 {
		reply(chatID, "No cards added yet. Use `/addcard`.")
		return
	}
	lines := []string{"💳 *Your cards:*\n"}
	for _, card := range cards {
		window := OpenStatementWindow(card.ClosingDay, time.Now(), config.Location)
		total, err := CardStatementTotal(db, card.ID, window)
		if err != nil {
			sendError(chatID, err)
			return
		}
		lines = append(lines,
			fmt.Sprintf("Card: *%s* (closes on day %d)", card.Name, card.ClosingDay),
			fmt.Sprintf("Open statement: %s", formatMoney(total)),
			fmt.Sprintf("Available limit: %s\n", formatMoney(card.Limit.Sub(total))))
	}
	reply(chatID, strings.Join(lines, "\n"))
}

func handleStatement(user *User, chatID int64, args string) {
	name := titleCase(strings.ToLower(strings.TrimSpace(args)))
	if name == "" {
		reply(chatID, "Usage: `/statement <card name>`")
		return
	}
	card, err := findCard(db, user.ID, name)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if card == nil {
		reply(chatID, fmt.Sprintf("I couldn't find the card '%s'.", name))
		return
	}
	window := OpenStatementWindow(card.ClosingDay, time.Now(), config.Location)
	total, err := CardStatementTotal(db, card.ID, window)
	if err != nil {
		sendError(chatID, err)
		return
	}
	lines := []string{
		fmt.Sprintf("📊 *Open statement - %s*", card.Name),
		fmt.Sprintf("Period: %s to %s\n", window.Start.Format("02/01"), window.End.Format("02/01")),
		fmt.Sprintf("Statement total: *%s*", formatMoney(total)),
		fmt.Sprintf("Available limit: %s\n", formatMoney(card.Limit.Sub(total))),
	}
	charges, err := RecentCardCharges(db, card.ID, window, 5)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if len(charges) > 0 {
		lines = append(lines, "*Latest charges:*")
		for _, t := range charges {
			categoryName := "No category"
			if t.CategoryID != nil {
				category := &Category{}
				if err := db.First(category, *t.CategoryID).Error; err == nil {
					categoryName = titleCase(category.Name)
				}
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", categoryName, formatMoney(t.Amount)))
		}
	}
	reply(chatID, strings.Join(lines, "\n"))
}

func handleDeleteCard(user *User, chatID int64, args string) {
	name := titleCase(strings.ToLower(strings.TrimSpace(args)))
	if name == "" {
		reply(chatID, "Usage: `/delcard <name>`")
		return
	}
	err := deleteCard(db, user.ID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reply(chatID, fmt.Sprintf("I couldn't find the card '%s'.", name))
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("✅ Card '%s' removed.", name))
}

// --- categories ---

func handleListCategories(user *User, chatID int64) {
	categories, err := listCategories(db, user.ID)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if len(categories) == 0 {
		reply(chatID, "You don't have any categories yet.")
		return
	}
	lines := []string{"*Your categories:*\n"}
	for _, category := range categories {
		lines = append(lines, "- "+titleCase(category.Name))
	}
	reply(chatID, strings.Join(lines, "\n"))
}

func handleDeleteCategory(user *User, chatID int64, args string) {
	name := normalizeCategoryName(args)
	if name == "" {
		reply(chatID, "Usage: `/delcategory <name>`")
		return
	}
	err := deleteCategory(db, user.ID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reply(chatID, fmt.Sprintf("Category '%s' not found.", name))
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("✅ Category '%s' deleted.", name))
}

// --- budgets ---

func handleSetBudget(user *User, chatID int64, args string) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		reply(chatID, "Invalid format! Use: `/budget <category> <amount>`\nExample: `/budget leisure 300`")
		return
	}
	amount, err := ParseAmount(fields[len(fields)-1])
	name := normalizeCategoryName(strings.Join(fields[:len(fields)-1], " "))
	if err != nil || name == "" {
		reply(chatID, "Invalid format! Use: `/budget <category> <amount>`\nExample: `/budget leisure 300`")
		return
	}
	category, err := resolveOrCreateCategory(db, user.ID, name, true)
	if err != nil {
		sendError(chatID, err)
		return
	}
	budget := &Budget{}
	err = db.Where("user_id = ? AND category_id = ?", user.ID, category.ID).First(budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		budget = &Budget{UserID: user.ID, CategoryID: category.ID, Amount: amount}
		err = db.Create(budget).Error
	} else if err == nil {
		err = db.Model(budget).Update("amount", amount).Error
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("✅ Budget of %s set for the category '%s'.", formatMoney(amount), titleCase(name)))
}

func handleListBudgets(user *User, chatID int64) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	var budgets []Budget
	if err := db.Where("user_id = ?", user.ID).Find(&budgets).Error; err != nil {
		sendError(chatID, err)
		return
	}
	if len(budgets) == 0 {
		reply(chatID, "You haven't set any budgets yet. Use `/budget <category> <amount>` to start.")
		return
	}
	lines := []string{"💰 *Your budgets for this month:*\n"}
	for _, budget := range budgets {
		category := &Category{}
		if err := db.First(category, budget.CategoryID).Error; err != nil {
			sendError(chatID, err)
			return
		}
		spent, err := monthToDateDebits(db, user.ID, budget.CategoryID, time.Now())
		if err != nil {
			sendError(chatID, err)
			return
		}
		percentage := decimal.Zero
		if budget.Amount.IsPositive() {
			percentage = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100))
		}
		lines = append(lines, fmt.Sprintf("🔹 *%s*: %s of %s (%s%%)",
			titleCase(category.Name), formatMoney(spent), formatMoney(budget.Amount), percentage.StringFixed(1)))
	}
	reply(chatID, strings.Join(lines, "\n"))
}

func handleDeleteBudget(user *User, chatID int64, args string) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	name := normalizeCategoryName(args)
	if name == "" {
		reply(chatID, "Invalid format! Use: `/delbudget <category>`")
		return
	}
	category, err := findCategory(db, user.ID, name)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if category == nil {
		reply(chatID, fmt.Sprintf("I couldn't find the category '%s'.", titleCase(name)))
		return
	}
	existed, err := deleteBudget(db, user.ID, category.ID)
	if err != nil {
		sendError(chatID, err)
		return
	}
	if !existed {
		reply(chatID, fmt.Sprintf("You had no budget set for '%s'.", titleCase(name)))
		return
	}
	reply(chatID, fmt.Sprintf("✅ Budget for '%s' removed.", titleCase(name)))
}

// --- reminders and schedules ---

func handleSetReminder(user *User, chatID int64, args string) {
	t, err := ParseTimeOfDay(args)
	if err != nil {
		reply(chatID, "Usage: `/remind HH:MM`")
		return
	}
	reminder := &DailyReminder{}
	err = db.Where("user_id = ?", user.ID).First(reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reminder = &DailyReminder{UserID: user.ID, ChatID: chatID, Time: t.String()}
		err = db.Create(reminder).Error
	} else if err == nil {
		err = db.Model(reminder).Updates(map[string]any{"time": t.String(), "chat_id": chatID}).Error
		reminder.Time = t.String()
		reminder.ChatID = chatID
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	if err := registerDailyReminder(sched, *reminder); err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("✅ Daily reminder set for %s.", t))
}

func handleCancelReminder(user *User, chatID int64) {
	if !sched.Registered(dailyReminderJobName(chatID)) {
		reply(chatID, "No active daily reminder.")
		return
	}
	sched.Cancel(dailyReminderJobName(chatID))
	if err := deleteDailyReminder(db, user.ID); err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, "✅ Daily reminder cancelled.")
}

func handleSchedule(user *User, chatID int64, args string) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	fields := strings.Fields(args)
	if len(fields) < 3 {
		reply(chatID, "Usage: `/schedule <day> <HH:MM> [amount] <title>`")
		return
	}
	day, dayErr := parseClosingDay(fields[0])
	t, timeErr := ParseTimeOfDay(fields[1])
	if dayErr != nil || timeErr != nil {
		reply(chatID, "Usage: `/schedule <day> <HH:MM> [amount] <title>`")
		return
	}
	var amount *decimal.Decimal
	titleFields := fields[2:]
	if parsed, err := ParseAmount(fields[2]); err == nil {
		amount = &parsed
		titleFields = fields[3:]
	}
	title := normalizeCategoryName(strings.Join(titleFields, " "))
	if title == "" {
		reply(chatID, "Usage: `/schedule <day> <HH:MM> [amount] <title>`")
		return
	}

	charge := &ScheduledCharge{}
	err := db.Where("user_id = ? AND title = ?", user.ID, title).First(charge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		charge = &ScheduledCharge{UserID: user.ID, ChatID: chatID, Day: day, Time: t.String(), Title: title, Amount: amount}
		err = db.Create(charge).Error
	} else if err == nil {
		err = db.Model(charge).Updates(map[string]any{
			"day": day, "time": t.String(), "chat_id": chatID, "amount": amount,
		}).Error
		charge.Day, charge.Time, charge.ChatID, charge.Amount = day, t.String(), chatID, amount
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	if err := registerScheduledCharge(sched, db, *charge); err != nil {
		sendError(chatID, err)
		return
	}
	if amount != nil {
		reply(chatID, fmt.Sprintf("✅ Expense '%s' of %s scheduled for day %d at %s every month!",
			titleCase(title), formatMoney(*amount), day, t))
	} else {
		reply(chatID, fmt.Sprintf("✅ Reminder for '%s' scheduled for day %d at %s every month!",
			titleCase(title), day, t))
	}
}

func handleListSchedules(user *User, chatID int64) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	var charges []ScheduledCharge
	err := db.Where("user_id = ?", user.ID).Order("day, time").Find(&charges).Error
	if err != nil {
		sendError(chatID, err)
		return
	}
	if len(charges) == 0 {
		reply(chatID, "No bills scheduled.")
		return
	}
	lines := []string{"🗓️ *Your scheduled bills:*\n"}
	for _, charge := range charges {
		if charge.Amount != nil {
			lines = append(lines, fmt.Sprintf("- *Day %d, %s:* %s (%s - fixed)",
				charge.Day, charge.Time, titleCase(charge.Title), formatMoney(*charge.Amount)))
		} else {
			lines = append(lines, fmt.Sprintf("- *Day %d, %s:* %s (variable)",
				charge.Day, charge.Time, titleCase(charge.Title)))
		}
	}
	reply(chatID, strings.Join(lines, "\n"))
}

func handleUnschedule(user *User, chatID int64, args string) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	title := normalizeCategoryName(args)
	if title == "" {
		reply(chatID, "Usage: `/unschedule <title>`")
		return
	}
	charge := &ScheduledCharge{}
	err := db.Where("user_id = ? AND title = ?", user.ID, title).First(charge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reply(chatID, fmt.Sprintf("I couldn't find a schedule titled '%s'.", title))
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	sched.Cancel(chargeJobName(charge.ID))
	if err := deleteScheduledCharge(db, charge); err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("✅ Schedule '%s' cancelled.", titleCase(title)))
}

// --- reports and export ---

func handleReportMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Which period would you like to analyze?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Current month", "report:current")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Previous month", "report:previous")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Custom period", "report:custom")),
	)
	bot.Send(msg)
}

func handleReportCallback(user *User, query *tgbotapi.CallbackQuery, arg string) {
	chatID := query.Message.Chat.ID
	switch arg {
	case "current":
		editText(query, "Generating the current month's report...")
		start, end := MonthRange(time.Now(), false)
		sendReport(user, chatID, start, end)
	case "previous":
		editText(query, "Generating last month's report...")
		start, end := MonthRange(time.Now(), true)
		sendReport(user, chatID, start, end)
	case "custom":
		conversations.set(chatID, &Conversation{State: StateAwaitReportStart})
		editText(query, "Ok. Please send me the start date as DD/MM/YYYY.")
	}
}

func handleReportStartDate(update tgbotapi.Update, conversation *Conversation, text string) {
	chatID := update.Message.Chat.ID
	start, err := time.ParseInLocation("02/01/2006", strings.TrimSpace(text), config.Location)
	if err != nil {
		reply(chatID, "Invalid date format. Use DD/MM/YYYY. Try again or /cancel.")
		return
	}
	conversation.ReportStart = start
	conversation.State = StateAwaitReportEnd
	conversations.set(chatID, conversation)
	reply(chatID, "Great. Now send me the end date (DD/MM/YYYY).")
}

func handleReportEndDate(update tgbotapi.Update, conversation *Conversation, text string) {
	chatID := update.Message.Chat.ID
	end, err := time.ParseInLocation("02/01/2006", strings.TrimSpace(text), config.Location)
	if err != nil {
		reply(chatID, "Invalid date format. Use DD/MM/YYYY. Try again or /cancel.")
		return
	}
	end = end.Add(24*time.Hour - time.Second)
	if conversation.ReportStart.After(end) {
		reply(chatID, "The end date can't be before the start date. Send the end date again.")
		return
	}
	conversations.clear(chatID)
	user := requireUser(update.Message.From.ID, chatID)
	if user == nil {
		return
	}
	reply(chatID, "Alright! Generating your custom report...")
	sendReport(user, chatID, conversation.ReportStart, end)
}

// sendReport delivers the period report: text for everybody, pie chart
// attached for premium subscribers.
func sendReport(user *User, chatID int64, start, end time.Time) {
	report, err := BuildPeriodReport(db, user.ID, start, end)
	if err != nil {
		sendError(chatID, err)
		return
	}
	text := FormatPeriodReport(report, config.Location)
	if IsPremium(db, user.ID, time.Now()) {
		png, err := RenderPieChart(report.ByCategory)
		if err != nil {
			log.Printf("error rendering pie chart for user %v: %v", user.ID, err)
		}
		if png != nil {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "report.png", Bytes: png})
			photo.Caption = text
			photo.ParseMode = tgbotapi.ModeMarkdown
			if _, err := bot.Send(photo); err != nil {
				log.Printf("error sending report chart to chat %v: %v", chatID, err)
			}
			return
		}
	}
	reply(chatID, text)
}

func handleExport(user *User, chatID int64) {
	if !IsPremium(db, user.ID, time.Now()) {
		sendUpsell(chatID, "")
		return
	}
	data, fileName, err := ExportCSV(db, user.ID, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reply(chatID, "There are no transactions this month to export.")
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	document := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	document.Caption = "Here is your transaction report for the month."
	if _, err := bot.Send(document); err != nil {
		log.Printf("error sending export to chat %v: %v", chatID, err)
	}
}

// --- admin ---

func handleWipeUser(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	if config.AdminTelegramID == 0 || message.From.ID != config.AdminTelegramID {
		reply(chatID, "You don't have permission to use this command.")
		return
	}
	targetID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		reply(chatID, "Usage: `/wipeuser <telegram id>`")
		return
	}
	err = wipeUser(db, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reply(chatID, fmt.Sprintf("No user found with telegram id %d.", targetID))
		return
	}
	if err != nil {
		sendError(chatID, err)
		return
	}
	reply(chatID, fmt.Sprintf("All data for user %d has been deleted.", targetID))
}
