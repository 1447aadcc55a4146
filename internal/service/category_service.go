package service

import (
	"context"
	"time"

	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

// CategoryStat is one line of the category overview.
type CategoryStat struct {
	Category    model.TaskCategory
	Templates   int64
	WeekMinutes int64
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Overview lists the user's categories with template counts and the minutes
// planned during the last seven days.
func (s *CategoryService) Overview(ctx context.Context, user *model.User, now time.Time) ([]CategoryStat, error) {
	counts, err := s.repo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	minutes, err := s.repo.MinutesSince(ctx, user.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	stats := make([]CategoryStat, 0, len(counts))
	for _, c := range counts {
		cat := model.ParseCategory(string(c.Category))
		stats = append(stats, CategoryStat{Category: cat, Templates: c.Total, WeekMinutes: minutes[cat]})
	}
	return stats, nil
}
