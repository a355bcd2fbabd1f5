package handlers

import (
	"net/http"
	"strconv"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/analytics"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	engine    *analytics.Engine
	dailyGoal int
	pageSize  int
}

func NewStatsHandler(engine *analytics.Engine, dailyGoal, pageSize int) *StatsHandler {
	if dailyGoal <= 0 {
		dailyGoal = analytics.DefaultDailyGoal
	}
	if pageSize <= 0 {
		pageSize = analytics.DefaultArchivePageSize
	}
	return &StatsHandler{engine: engine, dailyGoal: dailyGoal, pageSize: pageSize}
}

func (h *StatsHandler) GetStreak(c *gin.Context) {
	streak, err := h.engine.CurrentStreak(middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": streak})
}

func (h *StatsHandler) GetStreakDetails(c *gin.Context) {
	details, err := h.engine.StreakDetails(middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetConsistency reports the completion rate over tasks created in the last
// seven days.
func (h *StatsHandler) GetConsistency(c *gin.Context) {
	consistency, err := h.engine.SevenDayConsistency(middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consistency": consistency})
}

func (h *StatsHandler) GetProgress(c *gin.Context) {
	goal, _ := strconv.Atoi(c.DefaultQuery("goal", "0"))
	if goal <= 0 {
		goal = h.dailyGoal
	}

	progress, err := h.engine.ProgressToday(middleware.OwnerID(c), goal)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// GetArchive pages through completed tasks. The has_more flag is a
// heuristic: a full page is assumed to mean another page exists.
func (h *StatsHandler) GetArchive(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	tasks, hasMore, err := h.engine.ArchivePage(middleware.OwnerID(c), page, h.pageSize)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"tasks":    tasks,
		"has_more": hasMore,
	})
}

func (h *StatsHandler) GetDailyCounts(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 {
		days = 7
	}

	counts, err := h.engine.DailyCounts(middleware.OwnerID(c), days)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "counts": counts})
}
