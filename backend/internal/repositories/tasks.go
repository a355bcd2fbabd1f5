package repositories

import (
	"fmt"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"gorm.io/gorm"
)

// CompletedAtFormat is the stored completion timestamp layout. All values are
// UTC with a trailing Z, so lexicographic comparison matches chronological
// order and window filters can run inside SQL.
const CompletedAtFormat = "2006-01-02T15:04:05Z07:00"

// activeOrder ranks priorities High > Medium > Low, newest first within a
// priority.
const activeOrder = `CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END DESC, id DESC`

// TaskRepository is the durable store for tasks. Every query is scoped by
// owner; no call can observe or mutate another owner's rows.
type TaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		db:  db,
		now: time.Now,
	}
}

// WithClock substitutes the reference clock, for tests.
func (r *TaskRepository) WithClock(now func() time.Time) *TaskRepository {
	r.now = now
	return r
}

// Create inserts a new active task and returns the assigned id. The caller
// is expected to pass already-validated data.
func (r *TaskRepository) Create(task *models.Task) (uint, error) {
	task.IsCompleted = false
	task.CompletedAt = ""
	if err := r.db.Create(task).Error; err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return task.ID, nil
}

// ListActive returns the owner's open tasks, highest priority first, newest
// first within equal priority.
func (r *TaskRepository) ListActive(ownerID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("owner_id = ? AND is_completed = ?", ownerID, false).
		Order(activeOrder).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	return tasks, nil
}

// ListCreatedSince returns every task the owner created at or after the
// cutoff, completed or not.
func (r *TaskRepository) ListCreatedSince(ownerID int64, since time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("owner_id = ? AND created_at >= ?", ownerID, since).
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks created since %v: %w", since, err)
	}
	return tasks, nil
}

// ListCompleted returns up to limit completed tasks, most recently completed
// first.
func (r *TaskRepository) ListCompleted(ownerID int64, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("owner_id = ? AND is_completed = ?", ownerID, true).
		Order("completed_at DESC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	return tasks, nil
}

// ListCompletedPage returns one window of the completed list, same ordering
// as ListCompleted.
func (r *TaskRepository) ListCompletedPage(ownerID int64, pageSize, offset int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("owner_id = ? AND is_completed = ?", ownerID, true).
		Order("completed_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed page: %w", err)
	}
	return tasks, nil
}

// ListCompletedInWindow returns tasks completed inside a trailing window.
// windowDays of zero means the current UTC calendar day; anything else means
// completed at or after now minus windowDays.
func (r *TaskRepository) ListCompletedInWindow(ownerID int64, windowDays int) ([]models.Task, error) {
	now := r.now().UTC()

	query := r.db.Where("owner_id = ? AND is_completed = ?", ownerID, true)
	if windowDays == 0 {
		query = query.Where("completed_at LIKE ?", now.Format("2006-01-02")+"%")
	} else {
		cutoff := now.AddDate(0, 0, -windowDays).Format(CompletedAtFormat)
		query = query.Where("completed_at >= ?", cutoff)
	}

	var tasks []models.Task
	if err := query.Order("completed_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed tasks in window: %w", err)
	}
	return tasks, nil
}

// MarkDone flips a task to completed and stamps completed_at, once. It
// reports false when the task does not exist, belongs to someone else, or is
// already completed; the guard in the WHERE clause keeps the timestamp from
// ever being rewritten.
func (r *TaskRepository) MarkDone(id uint, ownerID int64) (bool, error) {
	completedAt := r.now().UTC().Format(CompletedAtFormat)

	result := r.db.Model(&models.Task{}).
		Where("id = ? AND owner_id = ? AND is_completed = ?", id, ownerID, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark task done: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the task outright. No tombstone is kept.
func (r *TaskRepository) Delete(id uint, ownerID int64) (bool, error) {
	result := r.db.
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Task{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
