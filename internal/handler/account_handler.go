package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gucnotify/internal/model"
	"gucnotify/internal/scraper"
	"gucnotify/internal/service"
)

type AccountHandler struct {
	registration *service.Registration
}

func NewAccountHandler(registration *service.Registration) *AccountHandler {
	return &AccountHandler{
		registration: registration,
	}
}

// Register handles POST /register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		case errors.Is(err, scraper.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid GUC username or password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Login handles POST /login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, err := h.registration.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me handles GET /me.
func (h *AccountHandler) Me(c *gin.Context) {
	username := c.GetString("username")

	u, err := h.registration.Me(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}

	// 不回传凭证
	c.JSON(http.StatusOK, gin.H{
		"username":                            u.Username,
		"email":                               u.Email,
		"todoist_project_id":                  u.TodoistProjectID,
		"course_id_to_todoist_section_id":     u.CourseSectionIDs,
		"courses":                             u.Courses,
		"email_notifications":                 u.EmailNotifications,
		"add_course_items_to_todoist_enabled": u.AddCourseItemsToTodoistEnabled,
	})
}

// UpdatePreferences handles PUT /preferences.
func (h *AccountHandler) UpdatePreferences(c *gin.Context) {
	username := c.GetString("username")

	var req struct {
		EmailNotifications             model.EmailNotifications `json:"email_notifications"`
		AddCourseItemsToTodoistEnabled bool                     `json:"add_course_items_to_todoist_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.registration.UpdatePreferences(c.Request.Context(), username, req.EmailNotifications, req.AddCourseItemsToTodoistEnabled)
	if err != nil {
		if errors.Is(err, service.ErrUnknownUser) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
