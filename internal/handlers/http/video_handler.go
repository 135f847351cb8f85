package http

import (
	"net/http"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"
	"clipcoach/internal/infrastructure/middleware"
	"clipcoach/pkg/validation"

	"github.com/gin-gonic/gin"
)

// videoIDParam validates the :id path parameter before it reaches the
// engine.
func videoIDParam(c *gin.Context) (domain.VideoID, bool) {
	id := c.Param("id")
	if err := validation.ValidateVideoID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return domain.VideoID(id), true
}

type VideoHandler struct {
	access ports.AccessService
}

func NewVideoHandler(access ports.AccessService) *VideoHandler {
	return &VideoHandler{access: access}
}

func (h *VideoHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/videos", h.UploadVideo)
	api.GET("/videos", h.ListVideos)
	api.GET("/videos/:id", h.GetVideo)
	api.DELETE("/videos/:id", h.DeleteVideo)

	api.GET("/videos/:id/capabilities", h.GetCapabilities)
	api.POST("/videos/:id/grants", h.Delegate)
	api.DELETE("/videos/:id/grants/:actor_id", h.Revoke)

	api.POST("/videos/:id/annotations", h.AppendAnnotations)
	api.GET("/videos/:id/annotations", h.GetAnnotations)
	api.PUT("/videos/:id/analysis", h.SetAnalysis)
}

type videoResponse struct {
	ID          domain.VideoID       `json:"id"`
	OwnerID     domain.ActorID       `json:"owner_id"`
	Filename    string               `json:"filename"`
	Status      domain.VideoStatus   `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	Annotations []annotationResponse `json:"annotations,omitempty"`
	Analysis    *analysisResponse    `json:"analysis,omitempty"`
}

type annotationResponse struct {
	Seq       domain.AnnotationSeq `json:"seq"`
	AuthorID  domain.ActorID       `json:"author_id"`
	CreatedAt time.Time            `json:"created_at"`
	Body      string               `json:"body"`
	Kind      string               `json:"kind,omitempty"`
}

type analysisResponse struct {
	Data      map[string]interface{} `json:"data"`
	UpdatedBy domain.ActorID         `json:"updated_by"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toVideoResponse(v *domain.Video) videoResponse {
	resp := videoResponse{
		ID:        v.ID,
		OwnerID:   v.OwnerID,
		Filename:  v.Filename,
		Status:    v.Status,
		CreatedAt: v.CreatedAt,
	}
	for _, a := range v.Annotations {
		resp.Annotations = append(resp.Annotations, toAnnotationResponse(a))
	}
	if v.Analysis != nil {
		resp.Analysis = &analysisResponse{
			Data:      v.Analysis.Data,
			UpdatedBy: v.Analysis.UpdatedBy,
			UpdatedAt: v.Analysis.UpdatedAt,
		}
	}
	return resp
}

func toAnnotationResponse(a domain.Annotation) annotationResponse {
	return annotationResponse{
		Seq:       a.Seq,
		AuthorID:  a.AuthorID,
		CreatedAt: a.CreatedAt,
		Body:      a.Body,
		Kind:      a.Kind,
	}
}

func (h *VideoHandler) UploadVideo(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		Filename string `json:"filename" binding:"required,min=1,max=255"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidateFilename(req.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := h.access.UploadVideo(c.Request.Context(), actorID, domain.VideoMeta{Filename: req.Filename})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"video": toVideoResponse(video)})
}

func (h *VideoHandler) GetVideo(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.access.GetVideo(c.Request.Context(), videoID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": toVideoResponse(video)})
}

func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	if err := h.access.DeleteVideo(c.Request.Context(), videoID, actorID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	listed, err := h.access.ListVideosFor(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	type videoAccessResponse struct {
		Video        videoResponse       `json:"video"`
		Capabilities []domain.Capability `json:"capabilities"`
	}

	out := make([]videoAccessResponse, 0, len(listed))
	for _, access := range listed {
		out = append(out, videoAccessResponse{
			Video:        toVideoResponse(access.Video),
			Capabilities: access.Capabilities.Slice(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"videos": out})
}

// GetCapabilities reports the caller's own capabilities by default; an
// actor_id query parameter asks about someone else.
func (h *VideoHandler) GetCapabilities(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	subject := actorID
	if q := c.Query("actor_id"); q != "" {
		subject = domain.ActorID(q)
	}

	videoID, okID := videoIDParam(c)
	if !okID {
		return
	}

	caps, err := h.access.CapabilitiesOf(c.Request.Context(), videoID, subject)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actor_id":     subject,
		"capabilities": caps.Slice(),
	})
}

func (h *VideoHandler) Delegate(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		ActorID      domain.ActorID `json:"actor_id" binding:"required"`
		Capabilities []string       `json:"capabilities" binding:"required,min=1"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caps := domain.NewCapabilitySet()
	for _, raw := range req.Capabilities {
		capability, err := domain.ParseCapability(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		caps[capability] = struct{}{}
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}
	if err := h.access.Delegate(c.Request.Context(), videoID, actorID, req.ActorID, caps); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":     videoID,
		"actor_id":     req.ActorID,
		"capabilities": caps.Slice(),
	})
}

func (h *VideoHandler) Revoke(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}
	target := domain.ActorID(c.Param("actor_id"))

	if err := h.access.Revoke(c.Request.Context(), videoID, actorID, target); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *VideoHandler) AppendAnnotations(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		Annotations []struct {
			Body string `json:"body" binding:"required,min=1,max=4096"`
			Kind string `json:"kind" binding:"max=64"`
		} `json:"annotations" binding:"required,min=1"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	annotations := make([]domain.Annotation, len(req.Annotations))
	for i, a := range req.Annotations {
		if err := validation.ValidateAnnotationBody(a.Body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		annotations[i] = domain.Annotation{Body: a.Body, Kind: a.Kind}
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	count, err := h.access.AppendAnnotations(c.Request.Context(), videoID, actorID, annotations)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"appended": count})
}

func (h *VideoHandler) GetAnnotations(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	annotations, err := h.access.GetAnnotations(c.Request.Context(), videoID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]annotationResponse, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, toAnnotationResponse(a))
	}

	c.JSON(http.StatusOK, gin.H{"annotations": out})
}

func (h *VideoHandler) SetAnalysis(c *gin.Context) {
	actorID, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		Data map[string]interface{} `json:"data" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	if err := h.access.SetAnalysis(c.Request.Context(), videoID, actorID, req.Data); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
