package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/dates"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/repositories"
)

// ErrEmptyName rejects task creation when the name is blank after trimming.
var ErrEmptyName = errors.New("task name must not be empty")

// Period tokens accepted by ListByPeriod.
const (
	PeriodToday   = "today"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// CreateTaskInput carries the fields for a new task. Exactly one of the due
// date fields is used: DueDate is already canonical (YYYY-MM-DD or the
// no-deadline sentinel) and stored as-is; otherwise DueDateText is free text
// and normalized here, once.
type CreateTaskInput struct {
	Name        string
	Description string
	DueDate     string
	DueDateText string
	Priority    string
	Tags        string
	Project     string
}

// ExportRow is one line of the tabular export for an owner's completed
// tasks.
type ExportRow struct {
	CompletedDate string
	Name          string
	Priority      string
	Project       string
}

// TaskService is the only entry point for reading and mutating tasks. It
// enforces the validation the repository does not: the repository only ever
// receives already-valid data.
type TaskService interface {
	Create(ownerID int64, input CreateTaskInput) (uint, error)
	ListActive(ownerID int64) ([]models.Task, error)
	ListCompleted(ownerID int64, limit int) ([]models.Task, error)
	ListCompletedPage(ownerID int64, pageSize, offset int) ([]models.Task, error)
	ListCreatedSince(ownerID int64, since time.Time) ([]models.Task, error)
	ListByPeriod(ownerID int64, period string) ([]models.Task, error)
	Complete(id uint, ownerID int64) (bool, error)
	Delete(id uint, ownerID int64) (bool, error)
	ExportRows(ownerID int64) ([]ExportRow, error)
}

type TaskServiceImpl struct {
	repo *repositories.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo *repositories.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock substitutes the reference clock, for tests.
func (s *TaskServiceImpl) WithClock(now func() time.Time) *TaskServiceImpl {
	s.now = now
	return s
}

func (s *TaskServiceImpl) Create(ownerID int64, input CreateTaskInput) (uint, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return 0, ErrEmptyName
	}

	dueDate := input.DueDate
	if dueDate == "" {
		dueDate = dates.Normalize(input.DueDateText, s.now().UTC())
	}

	task := &models.Task{
		OwnerID:     ownerID,
		Name:        name,
		Description: input.Description,
		DueDate:     dueDate,
		Priority:    models.NormalizePriority(input.Priority),
		Tags:        input.Tags,
		Project:     input.Project,
	}

	id, err := s.repo.Create(task)
	if err != nil {
		return 0, fmt.Errorf("create task for owner %d: %w", ownerID, err)
	}
	return id, nil
}

func (s *TaskServiceImpl) ListActive(ownerID int64) ([]models.Task, error) {
	return s.repo.ListActive(ownerID)
}

func (s *TaskServiceImpl) ListCompleted(ownerID int64, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListCompleted(ownerID, limit)
}

func (s *TaskServiceImpl) ListCompletedPage(ownerID int64, pageSize, offset int) ([]models.Task, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListCompletedPage(ownerID, pageSize, offset)
}

func (s *TaskServiceImpl) ListCreatedSince(ownerID int64, since time.Time) ([]models.Task, error) {
	return s.repo.ListCreatedSince(ownerID, since)
}

// ListByPeriod maps a period token to a trailing window of completed tasks.
// Unknown tokens yield an empty result, not an error.
func (s *TaskServiceImpl) ListByPeriod(ownerID int64, period string) ([]models.Task, error) {
	var windowDays int
	switch period {
	case PeriodToday:
		windowDays = 0
	case PeriodWeekly:
		windowDays = 7
	case PeriodMonthly:
		windowDays = 30
	default:
		return []models.Task{}, nil
	}
	return s.repo.ListCompletedInWindow(ownerID, windowDays)
}

// Complete is a one-way, idempotent transition. False means no state
// changed: missing, not owned, or already completed.
func (s *TaskServiceImpl) Complete(id uint, ownerID int64) (bool, error) {
	return s.repo.MarkDone(id, ownerID)
}

func (s *TaskServiceImpl) Delete(id uint, ownerID int64) (bool, error) {
	return s.repo.Delete(id, ownerID)
}

// ExportRows produces the tabular export data: completed tasks, most recent
// first, project defaulted when unset. Writing the rows to a file is the
// adapter's job.
func (s *TaskServiceImpl) ExportRows(ownerID int64) ([]ExportRow, error) {
	tasks, err := s.repo.ListCompleted(ownerID, 1000)
	if err != nil {
		return nil, fmt.Errorf("export rows for owner %d: %w", ownerID, err)
	}

	rows := make([]ExportRow, 0, len(tasks))
	for _, task := range tasks {
		project := task.Project
		if project == "" {
			project = models.DefaultProject
		}
		completedDate := task.CompletedAt
		if len(completedDate) >= 10 {
			completedDate = completedDate[:10]
		}
		rows = append(rows, ExportRow{
			CompletedDate: completedDate,
			Name:          task.Name,
			Priority:      task.Priority,
			Project:       project,
		})
	}
	return rows, nil
}
