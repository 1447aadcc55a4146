package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"focus-planner/internal/breaks"
	"focus-planner/internal/model"
	"focus-planner/internal/widget"
)

const summaryBreakLimit = 3

// ReminderService builds human-readable summaries and picks the occurrences
// that are about to start.
type ReminderService struct {
	timeline *TimelineService
	breaks   *BreakService
}

func NewReminderService(timeline *TimelineService, breakSvc *BreakService) *ReminderService {
	return &ReminderService{timeline: timeline, breaks: breakSvc}
}

// DailySummary renders the agenda of now's day as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user *model.User, now time.Time) string {
	now = now.In(s.timeline.Location(user))
	day := s.timeline.Day(ctx, user, now)
	snap := widget.Build(day, now)

	var builder strings.Builder
	builder.WriteString("📋 <b>План на день</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s · выполнено %d из %d (%d%%)\n\n", now.Format("02.01.2006"), snap.Completed, snap.Total, snap.Progress))

	if snap.Total == 0 {
		builder.WriteString("— на сегодня ничего не запланировано\n")
	} else {
		for _, e := range snap.Entries {
			builder.WriteString(FormatEntry(e))
		}
	}

	if snap.Next != nil {
		builder.WriteString(fmt.Sprintf("\n⏭ Дальше: <b>%s</b> в %s\n", html.EscapeString(snap.Next.Title), snap.Next.Start.Format("15:04")))
	}

	if s.breaks != nil {
		suggestions := s.breaks.Suggestions(ctx, user, now)
		if len(suggestions) > summaryBreakLimit {
			suggestions = suggestions[:summaryBreakLimit]
		}
		if len(suggestions) > 0 {
			builder.WriteString("\n☕ <b>Перерывы</b>\n")
			for _, sg := range suggestions {
				builder.WriteString(FormatSuggestion(sg))
			}
		}
	}

	return strings.TrimSpace(builder.String())
}

// Due returns unfinished occurrences starting within (now, now+lead].
func (s *ReminderService) Due(ctx context.Context, user *model.User, now time.Time, lead time.Duration) []model.Task {
	now = now.In(s.timeline.Location(user))
	var due []model.Task
	for _, occ := range s.timeline.Day(ctx, user, now) {
		if occ.Done() || occ.State() == model.StatusCancelled {
			continue
		}
		if occ.StartTime.After(now) && !occ.StartTime.After(now.Add(lead)) {
			due = append(due, occ)
		}
	}
	return due
}

// FormatEntry renders one agenda line.
func FormatEntry(e widget.Entry) string {
	var sb strings.Builder

	mark := "▫️"
	switch {
	case e.Completed:
		mark = "✅"
	case e.Active:
		mark = "▶️"
	}
	icon := e.Icon
	if icon == "" {
		icon = "🟢"
	}

	sb.WriteString(fmt.Sprintf("%s %s–%s %s %s", mark, e.Start.Format("15:04"), e.End.Format("15:04"), icon, html.EscapeString(strings.TrimSpace(e.Title))))
	if e.Repeating {
		sb.WriteString(" ♻️")
	}
	if e.Category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(CategoryLabel(model.TaskCategory(e.Category)))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// FormatSuggestion renders one break suggestion line.
func FormatSuggestion(sg breaks.Suggestion) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s · %s, %d мин", sg.Type.Icon(), sg.StartTime.Format("15:04"), sg.Type.Title(), sg.Duration))
	if sg.IsHighPriority() {
		sb.WriteString(" ❗")
	}
	if sg.Reason != "" {
		sb.WriteString(fmt.Sprintf("\n   💡 %s", html.EscapeString(sg.Reason)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// CategoryLabel is the display name of a category.
func CategoryLabel(c model.TaskCategory) string {
	switch c {
	case model.CategoryWork:
		return "💼 Работа"
	case model.CategoryStudy:
		return "🎓 Учёба"
	case model.CategoryPersonal:
		return "🧩 Личное"
	case model.CategoryHealth:
		return "🩺 Здоровье"
	case model.CategoryExercise:
		return "🏃 Спорт"
	case model.CategoryMeal:
		return "🍽 Еда"
	case model.CategorySocial:
		return "💬 Встречи"
	case model.CategoryBreak:
		return "☕ Перерыв"
	case model.CategoryOther:
		return "🏷️ Другое"
	default:
		return "📁 Без категории"
	}
}
