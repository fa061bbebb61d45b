package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/taskmate/server/internal/application/services"
	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

// UserHandler handles user profile requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetCurrentUser returns the requesting user's profile with badges
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	userID := getUserIDFromContext(c)

	user, err := h.userService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get current user failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err, "user_id", userID)
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), taskID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	return c.JSON(http.StatusOK, task)
}

// ListTasks lists the requesting user's tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID := getUserIDFromContext(c)

	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListUserTasks(c.Request().Context(), userID, filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}

// ListGroupTasks lists a group's tasks; members only
func (h *TaskHandler) ListGroupTasks(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListGroupTasks(c.Request().Context(), userID, groupID, filter)
	if err != nil {
		h.logger.Error("List group tasks failed", "error", err, "group_id", groupID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// UpdateTask handles task updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), userID, taskID, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", taskID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		h.logger.Error("Delete task failed", "error", err, "task_id", taskID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}

// CompleteTask marks a task completed and credits the reward
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	response, err := h.taskService.CompleteTask(c.Request().Context(), userID, taskID)
	if err != nil {
		h.logger.Error("Complete task failed", "error", err, "task_id", taskID, "user_id", userID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, response)
}

// VerifyTask marks a completed task as verified by a fellow member
func (h *TaskHandler) VerifyTask(c echo.Context) error {
	verifierID := getUserIDFromContext(c)

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.taskService.VerifyTask(c.Request().Context(), verifierID, taskID)
	if err != nil {
		h.logger.Error("Verify task failed", "error", err, "task_id", taskID, "verifier_id", verifierID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// GetStats summarizes the user's tasks in a group for today and this week
func (h *TaskHandler) GetStats(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	stats, err := h.taskService.GetStats(c.Request().Context(), userID, groupID)
	if err != nil {
		h.logger.Error("Get stats failed", "error", err, "group_id", groupID, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve stats")
	}

	return c.JSON(http.StatusOK, stats)
}

// GroupHandler handles group-related requests
type GroupHandler struct {
	groupService *services.GroupService
	logger       *logger.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, logger *logger.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// CreateGroup handles group creation
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	group, err := h.groupService.CreateGroup(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Create group failed", "error", err, "user_id", userID)
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, group)
}

// GetGroup handles getting a group by ID
func (h *GroupHandler) GetGroup(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	group, err := h.groupService.GetGroup(c.Request().Context(), userID, groupID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// ListMembers lists the group's members in join order
func (h *GroupHandler) ListMembers(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	members, err := h.groupService.ListMembers(c.Request().Context(), userID, groupID)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, members)
}

// JoinGroup adds the requesting user via invite code
func (h *GroupHandler) JoinGroup(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.JoinGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	group, err := h.groupService.JoinGroup(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Join group failed", "error", err, "user_id", userID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// UpdateSettings changes a group's reset cadence and multiplier; admin only
func (h *GroupHandler) UpdateSettings(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	var req ports.UpdateGroupSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	group, err := h.groupService.UpdateSettings(c.Request().Context(), userID, groupID, req)
	if err != nil {
		h.logger.Error("Update group settings failed", "error", err, "group_id", groupID)
		return domainError(err)
	}

	return c.JSON(http.StatusOK, group)
}

// LeaderboardHandler handles leaderboard projections
type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	groupService       *services.GroupService
	achievementService *services.AchievementService
	logger             *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(
	leaderboardService *services.LeaderboardService,
	groupService *services.GroupService,
	achievementService *services.AchievementService,
	logger *logger.Logger,
) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		groupService:       groupService,
		achievementService: achievementService,
		logger:             logger,
	}
}

// GroupLeaderboard returns the weekly and lifetime rankings for a group
func (h *LeaderboardHandler) GroupLeaderboard(c echo.Context) error {
	userID := getUserIDFromContext(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	// Membership gate; projections are member-visible only.
	if _, err := h.groupService.GetGroup(c.Request().Context(), userID, groupID); err != nil {
		return domainError(err)
	}

	board, err := h.leaderboardService.GroupLeaderboard(c.Request().Context(), groupID)
	if err != nil {
		h.logger.Error("Group leaderboard failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build leaderboard")
	}

	return c.JSON(http.StatusOK, board)
}

// GlobalLeaderboard returns the top users across all groups
func (h *LeaderboardHandler) GlobalLeaderboard(c echo.Context) error {
	entries, err := h.leaderboardService.GlobalLeaderboard(c.Request().Context())
	if err != nil {
		h.logger.Error("Global leaderboard failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build leaderboard")
	}

	return c.JSON(http.StatusOK, entries)
}

// ListAchievements returns the requesting user's earned badges
func (h *LeaderboardHandler) ListAchievements(c echo.Context) error {
	userID := getUserIDFromContext(c)

	achievements, err := h.achievementService.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("List achievements failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve achievements")
	}

	return c.JSON(http.StatusOK, achievements)
}

// SweepHandler exposes the sweeps on guarded internal endpoints so an external
// scheduler can trigger them alongside the built-in ticker
type SweepHandler struct {
	sweepService *services.SweepService
	logger       *logger.Logger
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(sweepService *services.SweepService, logger *logger.Logger) *SweepHandler {
	return &SweepHandler{
		sweepService: sweepService,
		logger:       logger,
	}
}

// RunPenalties triggers the overdue penalty sweep
func (h *SweepHandler) RunPenalties(c echo.Context) error {
	result, err := h.sweepService.PenalizeOverdue(c.Request().Context())
	if err != nil {
		h.logger.Error("Penalty sweep failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Penalty sweep failed")
	}

	return c.JSON(http.StatusOK, result)
}

// RunResets triggers the group reset sweep
func (h *SweepHandler) RunResets(c echo.Context) error {
	result, err := h.sweepService.RunResets(c.Request().Context())
	if err != nil {
		h.logger.Error("Reset sweep failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Reset sweep failed")
	}

	return c.JSON(http.StatusOK, result)
}

// Utility functions

func getUserIDFromContext(c echo.Context) uuid.UUID {
	user := c.Get("user")
	if user == nil {
		return uuid.Nil
	}

	if userStr, ok := user.(string); ok {
		userID, _ := uuid.Parse(userStr)
		return userID
	}

	return uuid.Nil
}

// taskFilterFromQuery parses the shared task listing query parameters.
func taskFilterFromQuery(c echo.Context) (ports.TaskFilter, error) {
	filter := ports.TaskFilter{Limit: 50}

	if status := c.QueryParam("status"); status != "" {
		taskStatus := entities.TaskStatus(status)
		if !taskStatus.IsValid() {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = &taskStatus
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		filter.Limit = limit
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
		filter.Offset = offset
	}

	return filter, nil
}

// domainError maps sentinel domain errors onto HTTP status codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrGroupNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrNotGroupMember):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrTaskAlreadyCompleted),
		errors.Is(err, entities.ErrTaskNotCompleted),
		errors.Is(err, entities.ErrCannotVerifyOwnTask),
		errors.Is(err, entities.ErrAlreadyMember):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrInvalidInviteCode),
		errors.Is(err, entities.ErrInvalidPriority),
		errors.Is(err, entities.ErrInvalidEffort),
		errors.Is(err, entities.ErrUnknownResetCadence):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
