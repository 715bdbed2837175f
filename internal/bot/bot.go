package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"wakeup-planner/internal/config"
	"wakeup-planner/internal/model"
	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
	"wakeup-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCurrentTime
	stageTargetTime
	stageTargetDate
)

const (
	btnConfirm          = "✅ Подтвердить"
	btnCancel           = "↩️ Отмена"
	btnCancelDialog     = "⏪ Отменить ввод"
	menuLabelWake       = "☀️ Я проснулся"
	menuLabelNext       = "🔔 Следующий подъём"
	menuLabelSchedule   = "📅 Расписание"
	menuLabelStatus     = "📊 Статус"
	menuLabelHelp       = "ℹ️ Помощь"
	menuLabelNewPlan    = "🆕 Новый план"
	confirmActionReset  = "reset"
)

type conversationState struct {
	stage conversationStage
	input service.PlanInput
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	planSvc       *service.PlanService
	evalSvc       *service.EvaluationService
	config        *config.Config
	log           *zap.SugaredLogger
	now           func() time.Time
	conversations map[int64]*conversationState
	confirmations map[int64]string
	mu            sync.Mutex
}

func New(cfg *config.Config, userRepo *repository.UserRepository, planSvc *service.PlanService, evalSvc *service.EvaluationService, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Infof("bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		planSvc:       planSvc,
		evalSvc:       evalSvc,
		config:        cfg,
		log:           log,
		now:           func() time.Time { return time.Now().In(cfg.Location) },
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Errorw("handle message", "from", update.Message.Chat.ID, "error", err)
		}
	}

	return nil
}

// SendEvaluationReports runs the adherence check for every user and reports
// the outcome to their chat.
func (b *Bot) SendEvaluationReports(ctx context.Context) error {
	results, err := b.evalSvc.EvaluateAll(ctx, b.now())
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.User.ChatID == 0 {
			continue
		}
		if err := b.sendText(r.User.ChatID, service.FormatOutcome(r.Outcome)); err != nil {
			b.log.Warnw("send evaluation report", "user", r.User.ID, "error", err)
		}
	}
	b.log.Infow("evaluation reports sent", "users", len(results))
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithMenu(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Infow("command", "from", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if action, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, action)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /plan, чтобы составить план подъёма, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendTextWithMenu(msg.Chat.ID, helpText)
	case "plan":
		return b.startPlanConversation(ctx, msg)
	case "next":
		return b.handleNext(ctx, msg)
	case "schedule":
		return b.handleSchedule(ctx, msg)
	case "wake":
		return b.handleWake(ctx, msg)
	case "status":
		return b.handleStatus(ctx, msg)
	case "history":
		return b.handleHistory(ctx, msg)
	case "replan":
		return b.handleReplan(ctx, msg)
	case "reset":
		b.setConfirmation(msg.From.ID, confirmActionReset)
		return b.sendWithReplyMarkup(msg.Chat.ID, "🗑 Удалить текущий план и все отметки?", confirmKeyboard())
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithMenu(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}
	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я помогу постепенно сдвинуть время подъёма.</b>\n\n%s", escape(name), helpText)
	return b.sendTextWithMenu(msg.Chat.ID, text)
}

func (b *Bot) startPlanConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageCurrentTime})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Составляем план.\n<b>Шаг 1:</b> во сколько ты встаёшь сейчас? Формат <code>08:00</code>.", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageCurrentTime:
		if _, err := planner.TimeToMinutes(text); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать время. Используй формат <code>08:00</code>.", cancelKeyboard())
		}
		state.input.CurrentWakeTime = text
		state.stage = stageTargetTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Шаг 2:</b> во сколько хочешь вставать? Например <code>06:00</code>.", cancelKeyboard())
	case stageTargetTime:
		if _, err := planner.TimeToMinutes(text); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать время. Используй формат <code>06:00</code>.", cancelKeyboard())
		}
		state.input.TargetWakeTime = text
		state.stage = stageTargetDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Шаг 3:</b> к какой дате? Формат <code>2026-11-30</code>.", cancelKeyboard())
	case stageTargetDate:
		if _, err := planner.ParseDate(text); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2026-11-30</code>.", cancelKeyboard())
		}
		state.input.TargetDate = text
		err := b.finishPlanCreation(ctx, msg, state.input)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /plan.")
	}
}

func (b *Bot) finishPlanCreation(ctx context.Context, msg *tgbotapi.Message, input service.PlanInput) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}

	plan, err := b.planSvc.CreatePlan(ctx, user, input, b.now())
	if err != nil {
		return b.sendTextWithMenu(msg.Chat.ID, fmt.Sprintf("Не удалось составить план: %s", escape(err.Error())))
	}

	text := fmt.Sprintf("✅ <b>План готов</b>\n%s → %s к %s\n\n%s",
		plan.CurrentWakeTime, plan.TargetWakeTime, plan.TargetDate, formatBlocks(planner.GroupByWakeTime(plan.Intervals)))
	return b.sendTextWithMenu(msg.Chat.ID, text)
}

func (b *Bot) handleNext(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	next, err := b.planSvc.NextWakeUp(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if next == nil {
		return b.sendText(msg.Chat.ID, "🏁 Все подъёмы по плану выполнены.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔔 Следующий подъём: <b>%s</b> в <b>%s</b>", next.Date, next.Time))
}

func (b *Bot) handleSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	blocks, err := b.planSvc.Blocks(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, "📅 <b>Расписание</b>\n\n"+formatBlocks(blocks))
}

// handleWake logs a check-in now, or at the HH:MM passed as argument for today.
func (b *Bot) handleWake(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	now := b.now()
	at, err := wakeTimeFromArgs(msg.CommandArguments(), now)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Время указывай в формате <code>/wake 06:40</code>.")
	}
	return b.checkIn(ctx, msg.Chat.ID, user, at, now)
}

func (b *Bot) checkIn(ctx context.Context, chatID int64, user *model.User, at, now time.Time) error {
	res, err := b.planSvc.CheckIn(ctx, user, at, now)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, formatCheckIn(res))
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	analysis, err := b.planSvc.Analyze(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatAnalysis(analysis))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	history, err := b.planSvc.History(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, formatHistory(history))
}

func (b *Bot) handleReplan(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if _, err := planner.TimeToMinutes(args); err != nil {
		return b.sendText(msg.Chat.ID, "Укажи фактическое время подъёма: <code>/replan 07:40</code>")
	}
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}
	plan, err := b.planSvc.Replan(ctx, user, args, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, "🔄 <b>План пересчитан</b>\n\n"+formatBlocks(planner.GroupByWakeTime(plan.Intervals)))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, action string) error {
	text := msg.Text
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if action != confirmActionReset {
			return nil
		}
		user, err := b.ensureUser(ctx, msg)
		if err != nil {
			return err
		}
		if err := b.planSvc.ResetPlan(ctx, user); err != nil {
			return err
		}
		return b.sendTextWithMenu(msg.Chat.ID, "🗑 План удалён. Новый можно составить через /plan.")
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithMenu(msg.Chat.ID, "Отменено.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Нажми «Подтвердить» или «Отмена».", confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelWake):
		user, err := b.ensureUser(ctx, msg)
		if err != nil {
			return true, err
		}
		now := b.now()
		return true, b.checkIn(ctx, msg.Chat.ID, user, now, now)
	case strings.ToLower(menuLabelNext):
		return true, b.handleNext(ctx, msg)
	case strings.ToLower(menuLabelSchedule):
		return true, b.handleSchedule(ctx, msg)
	case strings.ToLower(menuLabelStatus):
		return true, b.handleStatus(ctx, msg)
	case strings.ToLower(menuLabelNewPlan):
		return true, b.startPlanConversation(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendTextWithMenu(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrNoPlan):
		return b.sendText(chatID, "У тебя пока нет плана. Составь его через /plan.")
	case errors.Is(err, service.ErrNoIntervalToday):
		return b.sendText(chatID, "На сегодня подъём не запланирован.")
	default:
		b.log.Errorw("request failed", "chat", chatID, "error", err)
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
}

func (b *Bot) ensureUser(ctx context.Context, msg *tgbotapi.Message) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithMenu(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	action, ok := b.confirmations[userID]
	return action, ok
}

func (b *Bot) setConfirmation(userID int64, action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = action
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return ok && state != nil && state.stage != stageNone
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
