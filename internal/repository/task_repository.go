package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"focus-planner/internal/model"
)

var repeatingRules = []string{
	string(model.RecurrenceDaily),
	string(model.RecurrenceWeekly),
	string(model.RecurrenceMonthly),
}

// TaskRepository handles CRUD for task templates, generated children and tombstones.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// ListWindow returns every row the expander needs for [from, to): rows starting
// inside the window plus repeating templates that started before its end.
func (r *TaskRepository) ListWindow(ctx context.Context, userID uint, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(r.db.Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
			Or("recurrence IN ? AND is_generated_from_repeat = ? AND start_time < ?", repeatingRules, false, to.UTC())).
		Order("start_time ASC, created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID uint, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task) error {
	task.IsCompleted = true
	task.Status = model.StatusCompleted
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Delete removes a single row for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID uint, taskID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DeleteTree removes the task and all of its descendants in one transaction.
// It returns the ids that were removed.
func (r *TaskRepository) DeleteTree(ctx context.Context, userID uint, taskID string) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		frontier := []string{taskID}
		seen := map[string]bool{taskID: true}
		for len(frontier) > 0 {
			removed = append(removed, frontier...)
			var children []string
			if err := tx.Model(&model.Task{}).
				Where("user_id = ? AND parent_task_id IN ?", userID, frontier).
				Pluck("id", &children).Error; err != nil {
				return fmt.Errorf("list children: %w", err)
			}
			frontier = frontier[:0]
			for _, id := range children {
				if !seen[id] {
					seen[id] = true
					frontier = append(frontier, id)
				}
			}
		}
		if err := tx.Where("user_id = ? AND id IN ?", userID, removed).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete tree: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteChildrenFrom removes children of parentID starting at or after from.
// Tombstones stay, so skipped days remain skipped while the template repeats.
func (r *TaskRepository) DeleteChildrenFrom(ctx context.Context, userID uint, parentID string, from time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).
			Where("user_id = ? AND parent_task_id = ? AND start_time >= ? AND status <> ?", userID, parentID, from.UTC(), model.StatusCancelled).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list future children: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("user_id = ? AND id IN ?", userID, ids).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete future children: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
