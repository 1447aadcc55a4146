package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"focus-planner/internal/config"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
	"focus-planner/internal/service"
	"focus-planner/internal/widget"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageIcon
	stageStart
	stageDuration
	stageCategory
	stageRepeat
)

const (
	cbDonePrefix     = "done:"
	cbSkipPrefix     = "skip:"
	cbDeletePrefix   = "del:"
	cbFuturePrefix   = "fut:"
	cbDupPrefix      = "dup:"
	cbBreakAccept    = "brk+:"
	cbBreakDismiss   = "brk-:"
	callbackDayStamp = "20060102"
)

const (
	btnSkip             = "⏭️ Пропустить"
	btnConfirm          = "✅ Подтвердить"
	btnCancel           = "↩️ Отмена"
	btnCancelDialog     = "⏪ Отменить ввод"
	btnRepeatNone       = "Без повтора"
	btnRepeatDaily      = "Каждый день"
	btnRepeatWeekly     = "Каждую неделю"
	btnRepeatMonthly    = "Каждый месяц"
	menuLabelNewTask    = "➕ Новая задача"
	menuLabelToday      = "📋 Сегодня"
	menuLabelBreaks     = "☕ Перерывы"
	menuLabelCategories = "📂 Категории"
	menuLabelHelp       = "ℹ️ Помощь"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

type confirmationAction int

const (
	actionSkip confirmationAction = iota
	actionDelete
	actionDeleteFuture
)

type confirmationRequest struct {
	occurrenceID string
	day          time.Time
	action       confirmationAction
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	categorySvc   *service.CategoryService
	taskSvc       *service.TaskService
	timelineSvc   *service.TimelineService
	breakSvc      *service.BreakService
	reminderSvc   *service.ReminderService
	reminders     *Reminders
	config        *config.Config
	log           logrus.FieldLogger
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

// Services groups the collaborators the bot talks to.
type Services struct {
	Users      *repository.UserRepository
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Timeline   *service.TimelineService
	Breaks     *service.BreakService
	Reminder   *service.ReminderService
	Reminders  *Reminders
}

func New(token string, svc Services, cfg *config.Config, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:           api,
		userRepo:      svc.Users,
		categorySvc:   svc.Categories,
		taskSvc:       svc.Tasks,
		timelineSvc:   svc.Timeline,
		breakSvc:      svc.Breaks,
		reminderSvc:   svc.Reminder,
		reminders:     svc.Reminders,
		config:        cfg,
		log:           log,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
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
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Warn("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Я здесь, чтобы начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"from": msg.From.ID, "command": msg.Command()}).Info("command")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "breaks":
		return b.handleBreaks(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "timezone":
		return b.handleTimezone(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Диалог создания задачи отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я планировщик дня: расписание, повторы и перерывы.</b>\n\nКоманды:\n"+
			"• /newtask — добавить задачу\n"+
			"• /today — расписание на сегодня\n"+
			"• /breaks — когда сделать перерыв\n"+
			"• /report — сводка дня\n"+
			"• /help — подсказки",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /newtask — добавить задачу пошагово (время, длительность, повтор)\n" +
		"• /today [ГГГГ-ММ-ДД] — расписание на день с кнопками\n" +
		"• /breaks — предложения перерывов на ближайшие часы\n" +
		"• /report — сводка дня\n" +
		"• /categories — задачи по категориям\n" +
		"• /timezone &lt;зона&gt; — часовой пояс, например /timezone Europe/Moscow\n" +
		"• /cancel — отменить текущий ввод"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, b.reminderSvc.DailySummary(ctx, user, time.Now()))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	loc := b.timelineSvc.Location(user)
	day := time.Now().In(loc)
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		parsed, err := time.ParseInLocation("2006-01-02", arg, loc)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code>.")
		}
		day = parsed
	}
	return b.sendDay(ctx, msg.Chat.ID, user, day)
}

func (b *Bot) handleBreaks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendBreaks(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	stats, err := b.categorySvc.Overview(ctx, user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(stats) == 0 {
		return b.sendText(msg.Chat.ID, "Задач пока нет. Добавь их через /newtask.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, st := range stats {
		builder.WriteString(fmt.Sprintf("• %s — %d задач, %d мин за неделю\n", escape(service.CategoryLabel(st.Category)), st.Templates, st.WeekMinutes))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущий часовой пояс: %s. Укажи другой, например: /timezone Europe/Moscow", escape(b.timelineSvc.Location(user).String())))
	}
	if err := b.userRepo.SetTimezone(ctx, user, name); err != nil {
		return b.sendText(msg.Chat.ID, "Не знаю такой часовой пояс. Пример: <code>Europe/Moscow</code>.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Часовой пояс обновлён: %s", escape(name)))
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageIcon
		return b.sendWithReplyMarkup(msg.Chat.ID, "🎨 Пришли эмодзи для задачи (или нажми «Пропустить»).", skipKeyboard())
	case stageIcon:
		if !isSkipInput(text) {
			state.input.Icon = text
		}
		state.stage = stageStart
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Когда начать? <code>09:30</code> — сегодня, или <code>2025-11-30 09:30</code>.", cancelKeyboard())
	case stageStart:
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		start, err := parseStart(text, time.Now().In(b.timelineSvc.Location(user)))
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать время. Пример: <code>09:30</code> или <code>2025-11-30 09:30</code>.", cancelKeyboard())
		}
		state.input.Start = start
		state.stage = stageDuration
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏳ Сколько минут займёт задача?", cancelKeyboard())
	case stageDuration:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 || minutes > 24*60 {
			return b.sendText(msg.Chat.ID, "Длительность должна быть числом минут от 1 до 1440.")
		}
		state.input.Duration = minutes
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = parseCategoryButton(text)
		}
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Повторять задачу?", repeatKeyboard())
	case stageRepeat:
		rule, ok := parseRepeatButton(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант повтора на клавиатуре.", repeatKeyboard())
		}
		state.input.Recurrence = rule
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}

	loc := b.timelineSvc.Location(user)
	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s %s\n", escape(task.Icon), escape(normalizeTitle(task.Title))))
	summary.WriteString(fmt.Sprintf("• <b>Начало:</b> %s\n", task.StartTime.In(loc).Format("2006-01-02 15:04")))
	summary.WriteString(fmt.Sprintf("• <b>Длительность:</b> %d мин\n", task.Duration))
	if task.Kind() != "" {
		summary.WriteString(fmt.Sprintf("• <b>Категория:</b> %s\n", escape(service.CategoryLabel(task.Kind()))))
	}
	if task.Rule().Repeats() {
		summary.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s\n", repeatLabel(task.Rule())))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, user, task.StartTime.In(loc))
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, user *model.User, day time.Time) error {
	loc := b.timelineSvc.Location(user)
	day = day.In(loc)
	now := time.Now().In(loc)
	occurrences := b.timelineSvc.Day(ctx, user, day)
	snap := widget.Build(occurrences, now)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Расписание на %s</b>\n", day.Format("02.01.2006")))
	if snap.Total == 0 {
		builder.WriteString("\nНичего не запланировано. Добавь задачу через /newtask.")
		return b.sendText(chatID, builder.String())
	}
	builder.WriteString(fmt.Sprintf("Выполнено %d из %d.\n\n", snap.Completed, snap.Total))

	stamp := day.Format(callbackDayStamp)
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, occ := range occurrences {
		if occ.State() == model.StatusCancelled {
			continue
		}
		builder.WriteString(service.FormatEntry(widget.Project(occ, now)))
		if occ.Done() {
			continue
		}

		label := fmt.Sprintf("✅ %s · %s", occ.StartTime.In(loc).Format("15:04"), shortTitle(occ.Title, 20))
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbDonePrefix, occ.ID, stamp)),
		}
		if occ.IsGeneratedFromRepeat {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⏭", callbackData(cbSkipPrefix, occ.ID, stamp)))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", callbackData(cbDeletePrefix, occ.ID, stamp)))
		}
		if occ.IsGeneratedFromRepeat || occ.Rule().Repeats() {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData("⏹", callbackData(cbFuturePrefix, occ.ID, stamp)),
				tgbotapi.NewInlineKeyboardButtonData("📄", callbackData(cbDupPrefix, occ.ID, stamp)),
			)
		}
		buttons = append(buttons, row)
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendBreaks(ctx context.Context, chatID int64, user *model.User) error {
	suggestions := b.breakSvc.Suggestions(ctx, user, time.Now())
	if len(suggestions) == 0 {
		return b.sendText(chatID, "☕ Пока нет подходящих перерывов. Загляни позже.")
	}

	var builder strings.Builder
	builder.WriteString("☕ <b>Перерывы на ближайшие часы</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, sg := range suggestions {
		builder.WriteString(service.FormatSuggestion(sg))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👍 %s %s", sg.StartTime.Format("15:04"), sg.Type.Title()), cbBreakAccept+sg.Key()),
			tgbotapi.NewInlineKeyboardButtonData("✖️", cbBreakDismiss+sg.Key()),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Debug("callback ack")
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.log.WithFields(logrus.Fields{"from": cb.From.ID, "data": data}).Info("callback")

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(data, cbBreakAccept), strings.HasPrefix(data, cbBreakDismiss):
		return b.handleBreakCallback(ctx, chatID, user, data)
	case strings.HasPrefix(data, cbDonePrefix):
		return b.withOccurrence(ctx, chatID, user, data, cbDonePrefix, func(occ model.Task, _ time.Time) error {
			if _, err := b.taskSvc.CompleteOccurrence(ctx, user, occ); err != nil {
				return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
			}
			if err := b.sendText(chatID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(occ.Title)))); err != nil {
				return err
			}
			return b.sendDay(ctx, chatID, user, occ.StartTime)
		})
	case strings.HasPrefix(data, cbDupPrefix):
		return b.withOccurrence(ctx, chatID, user, data, cbDupPrefix, func(occ model.Task, _ time.Time) error {
			dup, err := b.taskSvc.DuplicateOccurrence(ctx, user, occ)
			if err != nil {
				return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
			}
			if err := b.sendText(chatID, fmt.Sprintf("📄 Создана копия «%s».", escape(normalizeTitle(dup.Title)))); err != nil {
				return err
			}
			return b.sendDay(ctx, chatID, user, occ.StartTime)
		})
	case strings.HasPrefix(data, cbSkipPrefix):
		return b.askConfirmation(ctx, chatID, cb.From.ID, user, data, cbSkipPrefix, actionSkip)
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askConfirmation(ctx, chatID, cb.From.ID, user, data, cbDeletePrefix, actionDelete)
	case strings.HasPrefix(data, cbFuturePrefix):
		return b.askConfirmation(ctx, chatID, cb.From.ID, user, data, cbFuturePrefix, actionDeleteFuture)
	default:
		return nil
	}
}

func (b *Bot) handleBreakCallback(ctx context.Context, chatID int64, user *model.User, data string) error {
	accept := strings.HasPrefix(data, cbBreakAccept)
	key := strings.TrimPrefix(strings.TrimPrefix(data, cbBreakAccept), cbBreakDismiss)

	sg, ok := b.breakSvc.Find(ctx, user, key, time.Now())
	if !ok {
		return b.sendText(chatID, "Это предложение уже неактуально.")
	}
	if !accept {
		b.breakSvc.Dismiss(user, sg)
		return b.sendText(chatID, "Хорошо, не буду предлагать этот перерыв.")
	}
	task, err := b.breakSvc.Accept(ctx, user, sg)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось запланировать перерыв: %s", escape(err.Error())))
	}
	loc := b.timelineSvc.Location(user)
	return b.sendText(chatID, fmt.Sprintf("%s Перерыв «%s» запланирован на %s.", task.Icon, escape(task.Title), task.StartTime.In(loc).Format("15:04")))
}

func (b *Bot) withOccurrence(ctx context.Context, chatID int64, user *model.User, data, prefix string, fn func(model.Task, time.Time) error) error {
	id, day, err := parseCallback(data, prefix, b.timelineSvc.Location(user))
	if err != nil {
		return nil
	}
	occ, ok := b.timelineSvc.FindOccurrence(ctx, user, day, id)
	if !ok {
		return b.sendText(chatID, "Задача не найдена или уже изменилась.")
	}
	return fn(occ, day)
}

func (b *Bot) askConfirmation(ctx context.Context, chatID, fromID int64, user *model.User, data, prefix string, action confirmationAction) error {
	return b.withOccurrence(ctx, chatID, user, data, prefix, func(occ model.Task, day time.Time) error {
		title := escape(normalizeTitle(occ.Title))
		var text string
		switch action {
		case actionSkip:
			text = fmt.Sprintf("Пропустить «%s» только %s?", title, day.Format("02.01"))
		case actionDelete:
			if occ.Rule().Repeats() {
				text = fmt.Sprintf("Удалить «%s» вместе со всеми повторами?", title)
			} else {
				text = fmt.Sprintf("Удалить задачу «%s»?", title)
			}
		case actionDeleteFuture:
			text = fmt.Sprintf("Удалить сохранённые повторы «%s» начиная с %s?", title, day.Format("02.01"))
		}
		b.setConfirmation(fromID, confirmationRequest{occurrenceID: occ.ID, day: day, action: action})
		return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
	})
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.applyConfirmation(ctx, msg.Chat.ID, msg.From, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени действие.", confirmKeyboard())
	}
}

func (b *Bot) applyConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, req confirmationRequest) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	occ, ok := b.timelineSvc.FindOccurrence(ctx, user, req.day, req.occurrenceID)
	if !ok {
		return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
	}

	var info string
	switch req.action {
	case actionSkip:
		err = b.taskSvc.DeleteOccurrence(ctx, user, occ)
		info = fmt.Sprintf("⏭ «%s» пропущена %s.", escape(normalizeTitle(occ.Title)), req.day.Format("02.01"))
	case actionDelete:
		err = b.taskSvc.DeleteTask(ctx, user, occ.ID)
		info = fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(occ.Title)))
	case actionDeleteFuture:
		templateID := occ.ID
		if occ.ParentTaskID != nil {
			templateID = *occ.ParentTaskID
		}
		var n int
		n, err = b.taskSvc.DeleteFutureInstances(ctx, user, templateID, req.day)
		info = fmt.Sprintf("⏹ Удалено сохранённых повторов: %d.", n)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, user, req.day)
}

// SendDailyReports sends the agenda to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		user := &users[i]
		if err := b.sendText(user.TelegramID, b.reminderSvc.DailySummary(ctx, user, now)); err != nil {
			b.log.WithField("user", user.TelegramID).WithError(err).Warn("send summary")
		}
	}
	return nil
}

// SendReminders notifies users about occurrences starting within the lead time.
func (b *Bot) SendReminders(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	b.reminders.prune(now.Add(-24 * time.Hour))
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		user := &users[i]
		loc := b.timelineSvc.Location(user)
		for _, occ := range b.reminderSvc.Due(ctx, user, now, b.config.ReminderLead) {
			if !b.reminders.claim(occ) {
				continue
			}
			text := fmt.Sprintf("⏰ В %s: %s %s (%d мин)", occ.StartTime.In(loc).Format("15:04"), escape(occ.Icon), escape(normalizeTitle(occ.Title)), occ.Duration)
			if err := b.sendText(user.TelegramID, text); err != nil {
				b.log.WithFields(logrus.Fields{"user": user.TelegramID, "task": occ.ID}).WithError(err).Warn("send reminder")
			}
		}
	}
	return nil
}

// SendBreakNudges pushes the most relevant high-priority break to each user.
func (b *Bot) SendBreakNudges(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for i := range users {
		user := &users[i]
		for _, sg := range b.breakSvc.Suggestions(ctx, user, now) {
			if !sg.IsHighPriority() || sg.TimeUntilOptimal > b.config.BreakCheckInterval {
				continue
			}
			if !b.reminders.claimNudge(user.ID, sg.Key(), sg.StartTime) {
				break
			}
			msg := tgbotapi.NewMessage(user.TelegramID, strings.TrimSpace(service.FormatSuggestion(sg)))
			msg.ParseMode = tgbotapi.ModeHTML
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👍 Запланировать", cbBreakAccept+sg.Key()),
				tgbotapi.NewInlineKeyboardButtonData("✖️", cbBreakDismiss+sg.Key()),
			))
			if _, err := b.api.Send(msg); err != nil {
				b.log.WithField("user", user.TelegramID).WithError(err).Warn("send break nudge")
			}
			break
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Главное меню")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
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
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelToday):
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return true, err
		}
		return true, b.sendDay(ctx, msg.Chat.ID, user, time.Now())
	case strings.ToLower(menuLabelBreaks):
		return true, b.handleBreaks(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func callbackData(prefix, id, stamp string) string {
	return prefix + id + ":" + stamp
}

// parseCallback splits "<prefix><id>:<yyyymmdd>" into the id and the day in loc.
func parseCallback(data, prefix string, loc *time.Location) (string, time.Time, error) {
	raw := strings.TrimPrefix(data, prefix)
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 {
		return "", time.Time{}, fmt.Errorf("malformed callback %q", data)
	}
	day, err := time.ParseInLocation(callbackDayStamp, raw[idx+1:], loc)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed callback day: %w", err)
	}
	return raw[:idx], day, nil
}

// parseStart accepts "HH:MM" (on now's day) or "YYYY-MM-DD HH:MM" in now's location.
func parseStart(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.ParseInLocation("2006-01-02 15:04", text, now.Location()); err == nil {
		return t, nil
	}
	hour, minute, err := service.ParseClock(text)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location()), nil
}

func parseRepeatButton(text string) (model.Recurrence, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case strings.ToLower(btnRepeatNone), "нет", "no", "-":
		return model.RecurrenceNone, true
	case strings.ToLower(btnRepeatDaily), "daily":
		return model.RecurrenceDaily, true
	case strings.ToLower(btnRepeatWeekly), "weekly":
		return model.RecurrenceWeekly, true
	case strings.ToLower(btnRepeatMonthly), "monthly":
		return model.RecurrenceMonthly, true
	default:
		return model.RecurrenceNone, false
	}
}

// parseCategoryButton accepts a keyboard label ("💼 Работа") or a plain name.
func parseCategoryButton(text string) model.TaskCategory {
	for _, c := range model.Categories {
		if strings.EqualFold(strings.TrimSpace(text), service.CategoryLabel(c)) {
			return c
		}
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return model.ParseCategory(fields[len(fields)-1])
}

func repeatLabel(r model.Recurrence) string {
	switch r {
	case model.RecurrenceDaily:
		return "каждый день"
	case model.RecurrenceWeekly:
		return "каждую неделю"
	case model.RecurrenceMonthly:
		return "каждый месяц"
	default:
		return "без повтора"
	}
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelBreaks),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatNone),
			tgbotapi.NewKeyboardButton(btnRepeatDaily),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRepeatWeekly),
			tgbotapi.NewKeyboardButton(btnRepeatMonthly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range model.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(service.CategoryLabel(c)))
		if len(row) == 3 {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
