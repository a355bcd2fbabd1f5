package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/analytics"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/flow"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/handlers"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/repositories"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 12, 28, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// setupRouter wires the full adapter over an in-memory database.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := repositories.NewTaskRepository(db).WithClock(fixedClock(testNow))
	taskService := services.NewTaskService(repo).WithClock(fixedClock(testNow))
	flowManager := flow.NewManager(taskService).WithClock(fixedClock(testNow))
	engine := analytics.NewEngine(taskService).WithClock(fixedClock(testNow))

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireOwner())

	taskHandler := handlers.NewTaskHandler(taskService)
	v1.POST("/tasks", taskHandler.CreateTask)
	v1.GET("/tasks", taskHandler.GetActiveTasks)
	v1.GET("/tasks/completed", taskHandler.GetCompletedTasks)
	v1.GET("/tasks/period/:period", taskHandler.GetTasksByPeriod)
	v1.POST("/tasks/:id/done", taskHandler.MarkTaskDone)
	v1.DELETE("/tasks/:id", taskHandler.DeleteTask)

	exportHandler := handlers.NewExportHandler(taskService)
	v1.GET("/tasks/export", exportHandler.ExportCSV)

	flowHandler := handlers.NewFlowHandler(flowManager)
	v1.POST("/flow/start", flowHandler.Start)
	v1.POST("/flow/message", flowHandler.Message)
	v1.POST("/flow/cancel", flowHandler.Cancel)

	statsHandler := handlers.NewStatsHandler(engine, 3, 10)
	v1.GET("/stats/streak", statsHandler.GetStreak)
	v1.GET("/stats/streak/details", statsHandler.GetStreakDetails)
	v1.GET("/stats/consistency", statsHandler.GetConsistency)
	v1.GET("/stats/progress", statsHandler.GetProgress)
	v1.GET("/stats/archive", statsHandler.GetArchive)

	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, ownerID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if ownerID != "" {
		req.Header.Set(middleware.OwnerIDHeader, ownerID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRequireOwner(t *testing.T) {
	r := setupRouter(t)

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(t, r, "GET", "/api/v1/tasks", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(t, r, "GET", "/api/v1/tasks", "not-a-number", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("valid header", func(t *testing.T) {
		w := doRequest(t, r, "GET", "/api/v1/tasks", "42", nil)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}

func TestCreateTask(t *testing.T) {
	r := setupRouter(t)

	t.Run("valid task", func(t *testing.T) {
		w := doRequest(t, r, "POST", "/api/v1/tasks", "42", gin.H{
			"name":     "write report",
			"due_date": "tomorrow",
			"priority": "High",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("blank name", func(t *testing.T) {
		w := doRequest(t, r, "POST", "/api/v1/tasks", "42", gin.H{"name": "   "})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for blank name, got %d", w.Code)
		}
	})

	t.Run("stored task is normalized", func(t *testing.T) {
		w := doRequest(t, r, "GET", "/api/v1/tasks", "42", nil)
		body := decodeBody(t, w)
		tasks := body["tasks"].([]interface{})
		if len(tasks) != 1 {
			t.Fatalf("expected 1 active task, got %d", len(tasks))
		}
		task := tasks[0].(map[string]interface{})
		if task["due_date"] != "2025-12-29" {
			t.Errorf("expected normalized due date 2025-12-29, got %v", task["due_date"])
		}
		if task["priority"] != "High" {
			t.Errorf("expected priority High, got %v", task["priority"])
		}
	})
}

func TestOwnerScoping(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "1", gin.H{"name": "owner one task"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	body := decodeBody(t, w)
	id := int(body["id"].(float64))

	// Another owner cannot see or complete the task.
	w = doRequest(t, r, "GET", "/api/v1/tasks", "2", nil)
	if tasks := decodeBody(t, w)["tasks"].([]interface{}); len(tasks) != 0 {
		t.Errorf("expected owner 2 to see no tasks, got %d", len(tasks))
	}

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "2", nil)
	if changed := decodeBody(t, w)["changed"]; changed != false {
		t.Error("expected wrong-owner completion to report no change")
	}

	w = doRequest(t, r, "DELETE", fmt.Sprintf("/api/v1/tasks/%d", id), "2", nil)
	if changed := decodeBody(t, w)["changed"]; changed != false {
		t.Error("expected wrong-owner delete to report no change")
	}
}

func TestMarkTaskDoneTwice(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "1", gin.H{"name": "task"})
	id := int(decodeBody(t, w)["id"].(float64))

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "1", nil)
	if changed := decodeBody(t, w)["changed"]; changed != true {
		t.Error("expected first completion to report a change")
	}

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "1", nil)
	if changed := decodeBody(t, w)["changed"]; changed != false {
		t.Error("expected second completion to report no change")
	}
}

func TestFlowEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/flow/start", "9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stage := decodeBody(t, w)["stage"]; stage != "awaiting_name" {
		t.Errorf("expected awaiting_name, got %v", stage)
	}

	steps := []gin.H{
		{"text": "plan the week"},
		{"text": "skip"},
		{"text": "tomorrow"},
	}
	for _, step := range steps {
		w = doRequest(t, r, "POST", "/api/v1/flow/message", "9", step)
		if w.Code != http.StatusOK {
			t.Fatalf("step %v: expected 200, got %d", step, w.Code)
		}
	}

	w = doRequest(t, r, "POST", "/api/v1/flow/message", "9", gin.H{"text": "High"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on completion, got %d: %s", w.Code, w.Body.String())
	}
	if created := decodeBody(t, w)["created"]; created != true {
		t.Error("expected created=true")
	}

	// The task is now visible through the normal listing.
	w = doRequest(t, r, "GET", "/api/v1/tasks", "9", nil)
	tasks := decodeBody(t, w)["tasks"].([]interface{})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task after flow, got %d", len(tasks))
	}
	task := tasks[0].(map[string]interface{})
	if task["due_date"] != "2025-12-29" {
		t.Errorf("expected due date 2025-12-29, got %v", task["due_date"])
	}
}

func TestFlowMessageWithoutSession(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/flow/message", "9", gin.H{"text": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if inFlow := decodeBody(t, w)["in_flow"]; inFlow != false {
		t.Error("expected in_flow=false without a session")
	}
}

func TestExportCSV(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "5", gin.H{"name": "ship release", "priority": "High"})
	id := int(decodeBody(t, w)["id"].(float64))
	doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "5", nil)

	w = doRequest(t, r, "GET", "/api/v1/tasks/export", "5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if disposition := w.Header().Get("Content-Disposition"); !strings.Contains(disposition, "tasks_5.csv") {
		t.Errorf("expected deterministic filename tasks_5.csv, got %q", disposition)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "completed_date,name,priority,project" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "2025-12-28,ship release,High,General" {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestProgressEndpoint(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 3; i++ {
		w := doRequest(t, r, "POST", "/api/v1/tasks", "7", gin.H{"name": fmt.Sprintf("task %d", i)})
		id := int(decodeBody(t, w)["id"].(float64))
		doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "7", nil)
	}

	w := doRequest(t, r, "GET", "/api/v1/stats/progress?goal=5", "7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", body["count"])
	}
	if body["percent"] != 0.6 {
		t.Errorf("expected percent 0.6, got %v", body["percent"])
	}
	if body["reached"] != false {
		t.Errorf("expected reached=false, got %v", body["reached"])
	}
}

func TestStreakEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "7", gin.H{"name": "task"})
	id := int(decodeBody(t, w)["id"].(float64))
	doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "7", nil)

	w = doRequest(t, r, "GET", "/api/v1/stats/streak", "7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if streak := decodeBody(t, w)["streak"]; streak != float64(1) {
		t.Errorf("expected streak 1, got %v", streak)
	}
}

func TestStreakDetailsEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "7", gin.H{"name": "task"})
	id := int(decodeBody(t, w)["id"].(float64))
	doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "7", nil)

	w = doRequest(t, r, "GET", "/api/v1/stats/streak/details", "7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["current_streak"] != float64(1) {
		t.Errorf("expected current streak 1, got %v", body["current_streak"])
	}
	if body["longest_streak"] != float64(1) {
		t.Errorf("expected longest streak 1, got %v", body["longest_streak"])
	}
	if body["last_completion"] != "2025-12-28" {
		t.Errorf("expected last completion 2025-12-28, got %v", body["last_completion"])
	}
	if body["completion_days"] != float64(1) {
		t.Errorf("expected 1 completion day, got %v", body["completion_days"])
	}
}

func TestConsistencyEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/v1/tasks", "7", gin.H{"name": "done"})
	id := int(decodeBody(t, w)["id"].(float64))
	doRequest(t, r, "POST", fmt.Sprintf("/api/v1/tasks/%d/done", id), "7", nil)
	doRequest(t, r, "POST", "/api/v1/tasks", "7", gin.H{"name": "still open"})

	w = doRequest(t, r, "GET", "/api/v1/stats/consistency", "7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["consistency"]; got != float64(50) {
		t.Errorf("expected consistency 50, got %v", got)
	}
}

func TestUnknownPeriodReturnsEmpty(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, "GET", "/api/v1/tasks/period/quarterly", "7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	tasks := decodeBody(t, w)["tasks"].([]interface{})
	if len(tasks) != 0 {
		t.Errorf("expected empty result for unknown period, got %d", len(tasks))
	}
}
