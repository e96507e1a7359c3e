package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/leads/service"
	"lead_capture_backend/internal/leads/transport"
	"lead_capture_backend/platform/httpkit"
	"lead_capture_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"

	formFieldImage = "image"
	formFieldAudio = "audio"
	formFieldScan  = "scan"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the lead routes on the /leads group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/scan", h.CaptureScan)
	rg.GET("/export", h.ExportAll)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/scans", h.AddScan)
	rg.GET("/:id/export", h.Export)
	rg.POST("/:id/follow-up", h.SendFollowUp)
	rg.GET("/:id/conversations/:conversationId/audio", h.AudioURL)
}

// RegisterCaptureRoutes mounts the conversation and enrichment capture routes.
func (h *Handler) RegisterCaptureRoutes(rg *gin.RouterGroup) {
	rg.POST("/conversations", h.RecordConversation)
	rg.POST("/enrich", h.Enrich)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.ScanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) CaptureScan(c *gin.Context) {
	var req transport.ScanCaptureRequest
	var image *ports.Upload

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		upload, closeFn, err := formUpload(c, formFieldImage)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		defer closeFn()
		image = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	resp, err := h.svc.CaptureScan(c.Request.Context(), req, image)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	leads, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, leads)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) AddScan(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.ScanRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.AddScan(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Export(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	file, err := h.svc.Export(c.Request.Context(), id, req.Format)
	if httpkit.HandleError(c, err) {
		return
	}

	writeFile(c, file)
}

func (h *Handler) ExportAll(c *gin.Context) {
	var req transport.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	file, err := h.svc.ExportAll(c.Request.Context(), req.Format)
	if httpkit.HandleError(c, err) {
		return
	}

	writeFile(c, file)
}

func (h *Handler) SendFollowUp(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.svc.SendFollowUp(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) AudioURL(c *gin.Context) {
	leadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	conversationID, ok := parseID(c, "conversationId")
	if !ok {
		return
	}

	resp, err := h.svc.AudioURL(c.Request.Context(), leadID, conversationID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) RecordConversation(c *gin.Context) {
	var req transport.RecordConversationRequest
	var audio *ports.Upload

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if raw := strings.TrimSpace(c.PostForm(formFieldScan)); raw != "" {
			var scan transport.ScanRequest
			if err := json.Unmarshal([]byte(raw), &scan); err != nil {
				httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "scan must be a JSON object")
				return
			}
			req.Scan = &scan
		}
		upload, closeFn, err := formUpload(c, formFieldAudio)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		defer closeFn()
		audio = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	resp, err := h.svc.RecordConversation(c.Request.Context(), req, audio)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) Enrich(c *gin.Context) {
	var req transport.EnrichRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Enrich(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	return h.validate(c, req)
}

func (h *Handler) validate(c *gin.Context, req any) bool {
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		msg := msgInvalidRequest
		if param == "id" {
			msg = msgInvalidLeadID
		}
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.Nil, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formUpload opens an optional file field. A missing field yields a nil upload.
func formUpload(c *gin.Context, field string) (*ports.Upload, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*ports.Upload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return &ports.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}, func() { _ = file.Close() }, nil
}

func writeFile(c *gin.Context, file transport.ExportFile) {
	c.Header("Content-Disposition", "attachment; filename="+file.FileName)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
