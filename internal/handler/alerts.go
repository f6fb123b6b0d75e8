package handlers

import (
	"net/http"

	"AidLink/internal/lifecycle"
	"AidLink/internal/models"
	"AidLink/internal/readmodel"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

type createAlertReq struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Type        string           `json:"type" binding:"required"`
	Severity    string           `json:"severity"`
	Priority    int              `json:"priority"`
	Location    *models.Location `json:"location" binding:"required"`
}

type statusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handlers) renderAlert(c *gin.Context, status int, message string, alert *models.Alert) {
	view, err := h.views.Alert(c.Request.Context(), alert)
	if err != nil {
		response.Error(c, err)
		return
	}
	if status == http.StatusCreated {
		response.Created(c, message, view)
		return
	}
	response.Success(c, message, view)
}

func (h *Handlers) handleCreateAlert(c *gin.Context) {
	var req createAlertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	alert, err := h.engine.CreateAlert(c.Request.Context(), actor(c), lifecycle.CreateAlertInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Severity:    req.Severity,
		Priority:    req.Priority,
		Location:    req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusCreated, "alert created", alert)
}

func (h *Handlers) handleListAlerts(c *gin.Context) {
	q, err := h.listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.engine.ListAlerts(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.views.Alerts(c.Request.Context(), page.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", lifecycle.Page[readmodel.AlertView]{Items: views, Pagination: page.Pagination})
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	alert, err := h.engine.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusOK, "success", alert)
}

func (h *Handlers) handleUpdateAlertStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	alert, err := h.engine.UpdateAlertStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusOK, "alert status updated", alert)
}

func (h *Handlers) handleRespondToAlert(c *gin.Context) {
	alert, err := h.engine.RespondToAlert(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusOK, "responded to alert", alert)
}

func (h *Handlers) handleUpdateResponderStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	entry, err := h.engine.UpdateResponderStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "responder status updated", entry)
}

func (h *Handlers) handleListResponders(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.engine.ListResponders(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.views.Responders(ctx, entries)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"responders": views})
}

func (h *Handlers) handleVerifyAlert(c *gin.Context) {
	alert, err := h.engine.VerifyAlert(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusOK, "alert verified", alert)
}

func (h *Handlers) handleAttachAlertImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		response.Fail(c, "image file is required", gin.H{"error": err.Error()})
		return
	}
	if fh.Size > maxImageBytes {
		response.Fail(c, "image too large", gin.H{"maxBytes": maxImageBytes})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, "cannot read image", gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	alert, err := h.engine.AttachAlertImage(c.Request.Context(), actor(c), c.Param("id"), lifecycle.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderAlert(c, http.StatusOK, "image attached", alert)
}
