package handlers

import (
	"net/http"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/flow"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// FlowHandler exposes the task-creation conversation. Each endpoint maps one
// chat event onto the owner's session.
type FlowHandler struct {
	manager *flow.Manager
}

func NewFlowHandler(manager *flow.Manager) *FlowHandler {
	return &FlowHandler{manager: manager}
}

var stagePrompts = map[flow.Stage]string{
	flow.StageAwaitingName:        "What's the task name?",
	flow.StageAwaitingDescription: "Add a description, or say 'skip'.",
	flow.StageAwaitingDueDate:     "When is it due? (e.g. 'tomorrow', 'Dec 20', or 'skip')",
	flow.StageAwaitingPriority:    "Priority? (Low / Medium / High)",
}

func (h *FlowHandler) Start(c *gin.Context) {
	stage := h.manager.Start(middleware.OwnerID(c))
	c.JSON(http.StatusOK, gin.H{
		"stage":  stage.String(),
		"prompt": stagePrompts[stage],
	})
}

func (h *FlowHandler) Message(c *gin.Context) {
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := middleware.OwnerID(c)
	result, ok := h.manager.HandleText(ownerID, input.Text)
	if !ok {
		// No session: the message is not part of this flow.
		c.JSON(http.StatusOK, gin.H{
			"in_flow": false,
			"message": "no task creation in progress; start one first",
		})
		return
	}

	if result.Done {
		if result.Err != nil {
			handleTaskError(c, result.Err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"in_flow": false,
			"created": true,
			"task_id": result.TaskID,
		})
		return
	}

	response := gin.H{
		"in_flow":  true,
		"stage":    result.Stage.String(),
		"accepted": result.Accepted,
		"prompt":   stagePrompts[result.Stage],
	}
	if result.NormalizedDate != "" {
		response["due_date"] = result.NormalizedDate
	}
	c.JSON(http.StatusOK, response)
}

func (h *FlowHandler) Cancel(c *gin.Context) {
	cancelled := h.manager.Cancel(middleware.OwnerID(c))
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}
