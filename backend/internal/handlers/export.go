package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ExportHandler serializes an owner's completed tasks as CSV. The filename
// is deterministic per owner so repeated exports overwrite cleanly on the
// caller's side.
type ExportHandler struct {
	taskService services.TaskService
}

func NewExportHandler(taskService services.TaskService) *ExportHandler {
	return &ExportHandler{taskService: taskService}
}

func (h *ExportHandler) ExportCSV(c *gin.Context) {
	ownerID := middleware.OwnerID(c)

	rows, err := h.taskService.ExportRows(ownerID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	filename := fmt.Sprintf("tasks_%d.csv", ownerID)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write([]string{"completed_date", "name", "priority", "project"}); err != nil {
		return
	}
	for _, row := range rows {
		record := []string{row.CompletedDate, row.Name, row.Priority, row.Project}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}
