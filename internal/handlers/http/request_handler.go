package http

import (
	"net/http"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/internal/core/services"
	"clipcoach/internal/infrastructure/middleware"
	"clipcoach/pkg/validation"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requests ports.RequestService
	coaches  *services.CoachDirectory
}

func NewRequestHandler(requests ports.RequestService, coaches *services.CoachDirectory) *RequestHandler {
	return &RequestHandler{requests: requests, coaches: coaches}
}

func (h *RequestHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/requests", h.SubmitRequest)
	api.GET("/requests", h.ListRequests)
	api.POST("/requests/:id/approve", h.ApproveRequest)
	api.POST("/requests/:id/decline", h.DeclineRequest)

	api.GET("/coaches", h.ListCoaches)
	api.POST("/coaches", h.RegisterCoach)
}

type requestResponse struct {
	ID            domain.RequestID     `json:"id"`
	StudentID     domain.ActorID       `json:"student_id"`
	StudentName   string               `json:"student_name"`
	CoachID       domain.ActorID       `json:"coach_id"`
	CoachName     string               `json:"coach_name"`
	VideoID       domain.VideoID       `json:"video_id"`
	Message       string               `json:"message,omitempty"`
	Status        domain.RequestStatus `json:"status"`
	EstimatedCost float64              `json:"estimated_cost"`
	CreatedAt     time.Time            `json:"created_at"`
	RespondedAt   *time.Time           `json:"responded_at,omitempty"`
}

func toRequestResponse(req *domain.AnnotationRequest) requestResponse {
	return requestResponse{
		ID:            req.ID,
		StudentID:     req.StudentID,
		StudentName:   req.StudentName,
		CoachID:       req.CoachID,
		CoachName:     req.CoachName,
		VideoID:       req.VideoID,
		Message:       req.Message,
		Status:        req.Status,
		EstimatedCost: req.EstimatedCost,
		CreatedAt:     req.CreatedAt,
		RespondedAt:   req.RespondedAt,
	}
}

func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		CoachID domain.ActorID `json:"coach_id" binding:"required"`
		VideoID domain.VideoID `json:"video_id" binding:"required"`
		Message string         `json:"message" binding:"max=2048"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentName := c.GetString("actor_name")

	submitted, err := h.requests.Submit(c.Request.Context(), actorID, studentName, req.CoachID, req.VideoID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": toRequestResponse(submitted)})
}

// ListRequests returns the caller's requests from both sides: those
// they submitted and those addressed to them as a coach.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	submitted, err := h.requests.ListForStudent(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	received, err := h.requests.ListForCoach(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	submittedOut := make([]requestResponse, 0, len(submitted))
	for _, req := range submitted {
		submittedOut = append(submittedOut, toRequestResponse(req))
	}
	receivedOut := make([]requestResponse, 0, len(received))
	for _, req := range received {
		receivedOut = append(receivedOut, toRequestResponse(req))
	}

	c.JSON(http.StatusOK, gin.H{
		"submitted": submittedOut,
		"received":  receivedOut,
	})
}

func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	approved, err := h.requests.Approve(c.Request.Context(), domain.RequestID(c.Param("id")), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(approved)})
}

func (h *RequestHandler) DeclineRequest(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	declined, err := h.requests.Decline(c.Request.Context(), domain.RequestID(c.Param("id")), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(declined)})
}

func (h *RequestHandler) ListCoaches(c *gin.Context) {
	coaches, err := h.coaches.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	type coachResponse struct {
		ID          domain.ActorID `json:"id"`
		Name        string         `json:"name"`
		HourlyRate  float64        `json:"hourly_rate"`
		Specialties []string       `json:"specialties,omitempty"`
	}

	out := make([]coachResponse, 0, len(coaches))
	for _, coach := range coaches {
		out = append(out, coachResponse{
			ID:          coach.ID,
			Name:        coach.Name,
			HourlyRate:  coach.HourlyRate,
			Specialties: coach.Specialties,
		})
	}

	c.JSON(http.StatusOK, gin.H{"coaches": out})
}

func (h *RequestHandler) RegisterCoach(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		Name        string   `json:"name" binding:"required,min=1,max=100"`
		Email       string   `json:"email" binding:"required"`
		HourlyRate  float64  `json:"hourly_rate" binding:"required,min=0"`
		Specialties []string `json:"specialties"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coach := &domain.Coach{
		ID:          actorID,
		Name:        req.Name,
		Email:       req.Email,
		HourlyRate:  req.HourlyRate,
		Status:      domain.CoachActive,
		Specialties: req.Specialties,
		CreatedAt:   time.Now(),
	}
	if err := h.coaches.Save(c.Request.Context(), coach); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"coach_id": coach.ID})
}
