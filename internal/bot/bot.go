package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"taskmate/internal/config"
	"taskmate/internal/extract"
	"taskmate/internal/model"
	"taskmate/internal/repository"
	"taskmate/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDismissPrefix  = "dismiss:"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
	iconBell    = "🔔"
)

// Bot aggregates the Telegram API with the extraction and notification
// services. Plain chat messages go through the task extractor; admitted
// notification batches come back out through Deliver.
type Bot struct {
	api          *tgbotapi.BotAPI
	userRepo     *repository.UserRepository
	notifRepo    *repository.NotificationRepository
	settingsRepo *repository.SettingsRepository
	taskSvc      *service.TaskService
	notifier     *service.Notifier
	config       *config.Config
}

func New(token string, userRepo *repository.UserRepository, notifRepo *repository.NotificationRepository, settingsRepo *repository.SettingsRepository, taskSvc *service.TaskService, notifier *service.Notifier, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:          api,
		userRepo:     userRepo,
		notifRepo:    notifRepo,
		settingsRepo: settingsRepo,
		taskSvc:      taskSvc,
		notifier:     notifier,
		config:       cfg,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	return b.handleChatText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "check":
		return b.handleCheck(ctx, msg)
	case "notifications":
		return b.handleNotifications(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help for what I understand.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi %s!\n<b>I'm TaskMate.</b> Tell me what's on your plate in plain words — "+
			"things like <i>I need to finish the report by Friday</i> — and I'll keep track "+
			"and remind you before deadlines.\n\nCommands:\n"+
			"• /tasks — list your open tasks\n"+
			"• /done &lt;id&gt; — mark a task completed\n"+
			"• /notifications on|off — toggle reminders\n"+
			"• /check — run a reminder check right now\n"+
			"• /help — show tips",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Tips</b>\n" +
		"• Just write what you need to do: <i>must send the invoice by tomorrow</i>\n" +
		"• Mention a day (<i>by Friday</i>, <i>due Thursday</i>) and I'll set the deadline\n" +
		"• /tasks — show open tasks with complete buttons\n" +
		"• /done &lt;id&gt; — complete a task by number (e.g. /done 3)\n" +
		"• /notifications on|off — reminders about upcoming deadlines\n" +
		"• /check — force a reminder check without waiting for the timer"
	return b.sendText(msg.Chat.ID, text)
}

// handleChatText runs the extractor over a plain chat message and saves
// whatever tasks it finds.
func (b *Bot) handleChatText(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	tasks, err := b.taskSvc.ExtractAndSave(ctx, user, msg.Text, time.Now())
	if err != nil {
		if errors.Is(err, extract.ErrEmptyMessage) {
			return b.sendText(msg.Chat.ID, "I can only read text messages for now.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save tasks: %s", escape(err.Error())))
	}

	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "No tasks detected in that message. Phrase it like <i>I need to … by Friday</i> and I'll pick it up.")
	}

	log.Printf("[info] extracted %d task(s) for user=%d", len(tasks), user.ID)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("✅ <b>Saved %d task(s)</b>\n", len(tasks)))
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("• #%d %s", task.ID, escape(task.Title)))
		if task.Deadline != nil {
			builder.WriteString(fmt.Sprintf(" — by %s", task.Deadline.Format("Mon, Jan 2 15:04")))
		}
		builder.WriteByte('\n')
	}
	builder.WriteString("\nUse /tasks to review them.")

	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	tasks, err := b.taskSvc.ListOpen(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}

	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "You have no open tasks. Tell me about one and I'll remember it.")
	}

	now := time.Now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to mark a task done.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now))
		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)),
				fmt.Sprintf("%s%d", cbCompletePrefix, task.ID),
			),
		})
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	reply.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give me a task id: /done 12")
	}

	taskID64, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	return b.completeTask(ctx, msg.Chat.ID, user, uint(taskID64))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.taskSvc.CompleteTask(ctx, user, taskID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Task \"%s\" completed.", escape(task.Title)))
}

func (b *Bot) handleCheck(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	report, err := b.notifier.RunCheck(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Check failed: %s", escape(err.Error())))
	}

	if !report.Enabled {
		return b.sendText(msg.Chat.ID, "Notifications are off. Turn them on with /notifications on.")
	}
	if report.Sent == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"Nothing to remind about right now (%d/%d sent today).",
			report.DailyCount, report.MaxPerDay))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf(
		"Sent %d reminder(s), %d/%d for today.",
		report.Sent, report.DailyCount, report.MaxPerDay))
}

func (b *Bot) handleNotifications(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	args := strings.ToLower(strings.TrimSpace(msg.CommandArguments()))
	switch args {
	case "on", "off":
		if err := b.settingsRepo.SetEnabled(ctx, args == "on"); err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not update settings: %s", escape(err.Error())))
		}
		if args == "on" {
			return b.sendText(msg.Chat.ID, fmt.Sprintf(
				"🔔 Notifications are on: up to %d per day, %s before a deadline, checked every %s.",
				b.config.MaxPerDay, b.config.LeadTime, b.config.CheckInterval))
		}
		return b.sendText(msg.Chat.ID, "🔕 Notifications are off.")
	case "":
		settings, err := b.settingsRepo.Get(ctx)
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not read settings: %s", escape(err.Error())))
		}
		state := "off"
		if settings.Enabled {
			state = "on"
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"Notifications are <b>%s</b>, %d/%d sent today. Use /notifications on|off to change.",
			state, settings.DailyCount, b.config.MaxPerDay))
	default:
		return b.sendText(msg.Chat.ID, "Say /notifications on or /notifications off.")
	}
}

// Deliver sends an admitted notification batch to its users' chats. It
// implements service.Delivery; the batch is already persisted, so send
// failures are logged and skipped rather than bubbled up.
func (b *Bot) Deliver(ctx context.Context, batch []model.Notification) error {
	for _, notification := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		user, err := b.userRepo.FindByID(ctx, notification.UserID)
		if err != nil {
			log.Printf("resolve notification user %d: %v", notification.UserID, err)
			continue
		}

		msg := tgbotapi.NewMessage(user.TelegramID, fmt.Sprintf("%s %s", iconBell, escape(notification.Message)))
		msg.ParseMode = tgbotapi.ModeHTML
		rows := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔕 Dismiss", fmt.Sprintf("%s%d", cbDismissPrefix, notification.ID)),
		}
		if notification.TaskID != nil {
			rows = append(rows, tgbotapi.NewInlineKeyboardButtonData("✅ Done", fmt.Sprintf("%s%d", cbCompletePrefix, *notification.TaskID)))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows)

		if _, err := b.api.Send(msg); err != nil {
			log.Printf("send notification %d to %d: %v", notification.ID, user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		log.Printf("[info] callback complete user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbCompletePrefix))
		taskID, err := parseCallbackID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		return b.completeTask(ctx, cb.Message.Chat.ID, user, taskID)
	case strings.HasPrefix(data, cbDismissPrefix):
		log.Printf("[info] callback dismiss user=%d notification=%s", cb.From.ID, strings.TrimPrefix(data, cbDismissPrefix))
		notifID, err := parseCallbackID(data, cbDismissPrefix)
		if err != nil {
			return nil
		}
		if err := b.notifRepo.Dismiss(ctx, notifID, time.Now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return b.sendText(cb.Message.Chat.ID, "That notification is gone already.")
			}
			return b.sendText(cb.Message.Chat.ID, fmt.Sprintf("Could not dismiss: %s", escape(err.Error())))
		}
		return b.sendText(cb.Message.Chat.ID, "🔕 Dismissed. I'll remind you again if the task stays open.")
	default:
		return nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func parseCallbackID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse callback id %q: %w", raw, err)
	}
	return uint(id64), nil
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := iconDefault
	if task.Deadline != nil {
		d := task.Deadline.In(now.Location())
		switch {
		case now.After(d):
			icon = iconOverdue
		case d.Sub(now) <= 48*time.Hour:
			icon = iconDue
		}
	}

	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, escape(strings.TrimSpace(task.Title))))

	if task.Deadline != nil {
		d := task.Deadline.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ by %s — <b>overdue</b>", d.Format("Mon, Jan 2 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ by %s", d.Format("Mon, Jan 2 15:04")))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
