package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var taskInput struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
		Priority    string `json:"priority"`
		Tags        string `json:"tags"`
		Project     string `json:"project"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := middleware.OwnerID(c)
	id, err := h.taskService.Create(ownerID, services.CreateTaskInput{
		Name:        taskInput.Name,
		Description: taskInput.Description,
		DueDateText: taskInput.DueDate,
		Priority:    taskInput.Priority,
		Tags:        taskInput.Tags,
		Project:     taskInput.Project,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task name must not be empty"})
			return
		}
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *TaskHandler) GetActiveTasks(c *gin.Context) {
	tasks, err := h.taskService.ListActive(middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetCompletedTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tasks, err := h.taskService.ListCompleted(middleware.OwnerID(c), limit)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetTasksByPeriod(c *gin.Context) {
	period := c.Param("period")

	tasks, err := h.taskService.ListByPeriod(middleware.OwnerID(c), period)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "tasks": tasks})
}

// MarkTaskDone reports changed=false instead of an error when the task is
// missing, owned by someone else, or already completed.
func (h *TaskHandler) MarkTaskDone(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	changed, err := h.taskService.Complete(id, middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"changed": false, "message": "task not found or already done"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	changed, err := h.taskService.Delete(id, middleware.OwnerID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"changed": false, "message": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": true})
}

func parseTaskID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return uint(id), true
}

// handleTaskError is the storage-fault path: logged with context, surfaced
// to the adapter, never swallowed.
func handleTaskError(c *gin.Context, err error) {
	log.Printf("task request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "failed to process task request",
	})
}
