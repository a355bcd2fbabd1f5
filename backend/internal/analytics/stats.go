// Package analytics derives read-only productivity metrics from completed
// tasks. All date arithmetic is anchored to UTC so day boundaries do not
// depend on where the caller happens to be.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"
)

const (
	// recentFetchLimit bounds the completed-task batch for performance,
	// not correctness; nobody's trailing year should exceed it by much.
	recentFetchLimit = 300

	// DefaultDailyGoal replaces non-positive goal inputs.
	DefaultDailyGoal = 3

	// DefaultArchivePageSize is the archive page length.
	DefaultArchivePageSize = 10
)

const dayFormat = "2006-01-02"

// Progress reports how today's completions measure against the daily goal.
type Progress struct {
	Count   int     `json:"count"`
	Goal    int     `json:"goal"`
	Percent float64 `json:"percent"`
	Reached bool    `json:"reached"`
}

type Engine struct {
	tasks      services.TaskService
	now        func() time.Time
	fetchLimit int
}

func NewEngine(tasks services.TaskService) *Engine {
	return &Engine{
		tasks:      tasks,
		now:        time.Now,
		fetchLimit: recentFetchLimit,
	}
}

// WithClock substitutes the reference clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithFetchLimit overrides the completed-task batch size.
func (e *Engine) WithFetchLimit(limit int) *Engine {
	if limit > 0 {
		e.fetchLimit = limit
	}
	return e
}

// RecentCompletions returns completed tasks whose completion timestamp
// parses and falls at or after now minus days. Tasks with unparseable
// timestamps are excluded, never counted as in-window.
func (e *Engine) RecentCompletions(ownerID int64, days int) ([]models.Task, error) {
	tasks, err := e.tasks.ListCompleted(ownerID, e.fetchLimit)
	if err != nil {
		return nil, err
	}

	cutoff := e.now().UTC().AddDate(0, 0, -days)

	recent := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		completedAt, ok := parseCompletedAt(task.CompletedAt)
		if !ok {
			continue
		}
		if !completedAt.Before(cutoff) {
			recent = append(recent, task)
		}
	}
	return recent, nil
}

// DailyCounts groups recent completions by UTC calendar day.
func (e *Engine) DailyCounts(ownerID int64, days int) (map[string]int, error) {
	tasks, err := e.RecentCompletions(ownerID, days)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, task := range tasks {
		completedAt, ok := parseCompletedAt(task.CompletedAt)
		if !ok {
			continue
		}
		counts[completedAt.Format(dayFormat)]++
	}
	return counts, nil
}

// CurrentStreak counts consecutive days with at least one completion,
// scanning backward from today. A zero count on today itself does not break
// the streak, since the owner may simply not have finished anything yet; a
// zero on any earlier day does.
func (e *Engine) CurrentStreak(ownerID int64) (int, error) {
	counts, err := e.DailyCounts(ownerID, 365)
	if err != nil {
		return 0, err
	}
	return e.streakFromCounts(counts), nil
}

func (e *Engine) streakFromCounts(counts map[string]int) int {
	now := e.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	if counts[today.Format(dayFormat)] == 0 && counts[yesterday.Format(dayFormat)] == 0 {
		return 0
	}

	streak := 0
	day := today
	if counts[day.Format(dayFormat)] > 0 {
		streak++
	}
	day = day.AddDate(0, 0, -1)

	for counts[day.Format(dayFormat)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// StreakDetails summarizes the owner's completion history: the current and
// longest streaks, the most recent completion day, and how many distinct
// days saw at least one completion.
type StreakDetails struct {
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	LastCompletion string `json:"last_completion,omitempty"`
	CompletionDays int    `json:"completion_days"`
}

func (e *Engine) StreakDetails(ownerID int64) (StreakDetails, error) {
	counts, err := e.DailyCounts(ownerID, 365)
	if err != nil {
		return StreakDetails{}, err
	}

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	details := StreakDetails{
		CurrentStreak:  e.streakFromCounts(counts),
		LongestStreak:  longestRun(days),
		CompletionDays: len(days),
	}
	if len(days) > 0 {
		details.LastCompletion = days[len(days)-1]
	}
	return details, nil
}

// longestRun finds the longest stretch of consecutive calendar days in a
// sorted, de-duplicated day list.
func longestRun(days []string) int {
	if len(days) == 0 {
		return 0
	}

	longest, current := 1, 1
	prev, _ := time.Parse(dayFormat, days[0])
	for _, day := range days[1:] {
		t, err := time.Parse(dayFormat, day)
		if err != nil {
			continue
		}
		if t.Sub(prev) == 24*time.Hour {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
		prev = t
	}
	return longest
}

// SevenDayConsistency is the share of tasks created in the trailing week
// that got completed, as a percentage rounded to one decimal. Tasks created
// before the window do not count against the owner.
func (e *Engine) SevenDayConsistency(ownerID int64) (float64, error) {
	cutoff := e.now().UTC().AddDate(0, 0, -7)

	tasks, err := e.tasks.ListCreatedSince(ownerID, cutoff)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	completed := 0
	for _, task := range tasks {
		if !task.IsCompleted {
			continue
		}
		// A completion stamp that fails to parse still counts the task as
		// done; the flag is authoritative here.
		completedAt, ok := parseCompletedAt(task.CompletedAt)
		if !ok || !completedAt.Before(cutoff) {
			completed++
		}
	}

	percent := float64(completed) / float64(len(tasks)) * 100
	return math.Round(percent*10) / 10, nil
}

// ProgressToday measures today's completions against the daily goal. The
// percentage is capped at 1.0.
func (e *Engine) ProgressToday(ownerID int64, dailyGoal int) (Progress, error) {
	if dailyGoal <= 0 {
		dailyGoal = DefaultDailyGoal
	}

	// A one-day window keeps the whole of today inside the cutoff.
	counts, err := e.DailyCounts(ownerID, 1)
	if err != nil {
		return Progress{}, err
	}

	now := e.now().UTC()
	today := now.Format(dayFormat)
	count := counts[today]

	percent := float64(count) / float64(dailyGoal)
	if percent > 1.0 {
		percent = 1.0
	}

	return Progress{
		Count:   count,
		Goal:    dailyGoal,
		Percent: percent,
		Reached: count >= dailyGoal,
	}, nil
}

// ArchivePage returns one page of completed tasks plus a "more pages"
// signal. The signal is a heuristic: a full page is assumed to mean more
// rows exist, which over-reports by one page when the total is an exact
// multiple of the page size.
func (e *Engine) ArchivePage(ownerID int64, page, pageSize int) ([]models.Task, bool, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultArchivePageSize
	}

	offset := (page - 1) * pageSize
	tasks, err := e.tasks.ListCompletedPage(ownerID, pageSize, offset)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(tasks) == pageSize
	return tasks, hasMore, nil
}

// parseCompletedAt tolerates the timestamp variants that have appeared in
// stored data over time.
func parseCompletedAt(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
