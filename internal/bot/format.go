package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/service"
)

const helpText = "<b>Команды:</b>\n" +
	"/plan — составить новый план подъёма\n" +
	"/next — ближайший подъём по плану\n" +
	"/schedule — расписание по блокам\n" +
	"/wake [ЧЧ:ММ] — отметить подъём (по умолчанию сейчас)\n" +
	"/status — как идут дела\n" +
	"/history — последние отметки\n" +
	"/replan ЧЧ:ММ — пересчитать план от фактического времени\n" +
	"/reset — удалить план\n" +
	"/cancel — отменить ввод"

const historyLimit = 7

// wakeTimeFromArgs resolves the moment of a check-in: now, or today at HH:MM.
func wakeTimeFromArgs(args string, now time.Time) (time.Time, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return now, nil
	}
	minutes, err := planner.TimeToMinutes(args)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, now.Location()), nil
}

func formatBlocks(blocks []planner.Block) string {
	if len(blocks) == 0 {
		return "Расписание пусто."
	}
	var b strings.Builder
	for _, block := range blocks {
		mark := "▫️"
		switch {
		case block.AllCompleted:
			mark = "✅"
		case block.HasCompleted:
			mark = "☑️"
		}
		period := block.StartDate
		if block.EndDate != block.StartDate {
			period = fmt.Sprintf("%s — %s", block.StartDate, block.EndDate)
		}
		line := fmt.Sprintf("%s <b>%s</b>  %s (%s)", mark, block.WakeTime, period, daysLabel(block.DaysCount))
		if block.HasAdjusted {
			line += " 🔄"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func daysLabel(n int) string {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return fmt.Sprintf("%d день", n)
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return fmt.Sprintf("%d дня", n)
	default:
		return fmt.Sprintf("%d дней", n)
	}
}

func formatCheckIn(res service.CheckInResult) string {
	entry := res.Entry
	scheduled := planner.MinutesToTime(entry.ScheduledWakeMinutes)
	if entry.ActualWakeMinutes == nil {
		return fmt.Sprintf("📝 %s: подъём не отмечен (план %s).", entry.Date, scheduled)
	}
	actual := planner.MinutesToTime(*entry.ActualWakeMinutes)
	text := fmt.Sprintf("📝 %s: встал в <b>%s</b>, по плану %s", entry.Date, actual, scheduled)
	if entry.DeviationMinutes != nil && *entry.DeviationMinutes > 0 {
		text += fmt.Sprintf(" (отклонение %d мин)", *entry.DeviationMinutes)
	}
	if res.Verified {
		return text + "\n✅ Подъём засчитан!"
	}
	return text + "\n⏳ Вне окна подтверждения, день не засчитан."
}

func formatAnalysis(a planner.Analysis) string {
	var b strings.Builder
	b.WriteString("📊 <b>Статус плана</b>\n")
	if a.NeedsReset {
		b.WriteString(fmt.Sprintf("⚠️ %s\n", escape(service.ReasonLabel(a.Reason))))
		b.WriteString("Можно пересчитать план: <code>/replan ЧЧ:ММ</code>\n")
	} else {
		b.WriteString("✅ Всё идёт по плану.\n")
	}
	if a.LatestWakeTime != "" {
		b.WriteString(fmt.Sprintf("⏰ Последний подтверждённый подъём: <b>%s</b>", a.LatestWakeTime))
	}
	return strings.TrimSpace(b.String())
}

func formatHistory(history []planner.CheckIn) string {
	if len(history) == 0 {
		return "Отметок пока нет."
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	var b strings.Builder
	b.WriteString("🗒 <b>Последние отметки</b>\n")
	for i := len(history) - 1; i >= 0; i-- {
		c := history[i]
		scheduled := planner.MinutesToTime(c.ScheduledWakeMinutes)
		if c.Missed() {
			b.WriteString(fmt.Sprintf("❌ %s — пропуск (план %s)\n", c.Date, scheduled))
			continue
		}
		dev := 0
		if c.DeviationMinutes != nil {
			dev = *c.DeviationMinutes
		}
		b.WriteString(fmt.Sprintf("• %s — %s (план %s, ±%d мин)\n", c.Date, planner.MinutesToTime(*c.ActualWakeMinutes), scheduled, dev))
	}
	return strings.TrimRight(b.String(), "\n")
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
			tgbotapi.NewKeyboardButton(menuLabelWake),
			tgbotapi.NewKeyboardButton(menuLabelNext),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSchedule),
			tgbotapi.NewKeyboardButton(menuLabelStatus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewPlan),
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

func escape(s string) string {
	return html.EscapeString(s)
}
