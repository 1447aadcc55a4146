package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

// CategoryCount is the number of templates in one category.
type CategoryCount struct {
	Category model.TaskCategory
	Total    int64
}

// CategoryRepository reports how a user's templates spread over categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// CountByUser counts the user's own templates per category, ignoring generated rows.
func (r *CategoryRepository) CountByUser(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("category, COUNT(*) AS total").
		Where("user_id = ? AND is_generated_from_repeat = ?", userID, false).
		Group("category").
		Order("total DESC, category ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	return counts, nil
}

// MinutesSince sums planned minutes per category for templates starting after since.
func (r *CategoryRepository) MinutesSince(ctx context.Context, userID uint, since time.Time) (map[model.TaskCategory]int64, error) {
	var rows []struct {
		Category model.TaskCategory
		Minutes  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("category, SUM(duration) AS minutes").
		Where("user_id = ? AND start_time >= ? AND status <> ?", userID, since.UTC(), model.StatusCancelled).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum category minutes: %w", err)
	}
	out := make(map[model.TaskCategory]int64, len(rows))
	for _, row := range rows {
		out[model.ParseCategory(string(row.Category))] += row.Minutes
	}
	return out, nil
}
