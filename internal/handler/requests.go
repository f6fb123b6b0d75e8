package handlers

import (
	"net/http"
	"time"

	"AidLink/internal/lifecycle"
	"AidLink/internal/models"
	"AidLink/internal/readmodel"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type createRequestReq struct {
	Title             string               `json:"title" binding:"required"`
	Description       string               `json:"description" binding:"required"`
	Type              string               `json:"type" binding:"required"`
	Priority          string               `json:"priority"`
	Location          *models.Location     `json:"location" binding:"required"`
	Requirements      *models.Requirements `json:"requirements"`
	UrgentBy          *time.Time           `json:"urgentBy"`
	EstimatedDuration int                  `json:"estimatedDuration"`
}

type feedbackReq struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (h *Handlers) renderRequest(c *gin.Context, status int, message string, r *models.AssistanceRequest) {
	view, err := h.views.Request(c.Request.Context(), r)
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

func (h *Handlers) renderRequests(c *gin.Context, list []models.AssistanceRequest) {
	views, err := h.views.Requests(c.Request.Context(), list)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"requests": views})
}

func (h *Handlers) handleCreateRequest(c *gin.Context) {
	var req createRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	r, err := h.engine.CreateRequest(c.Request.Context(), actor(c), lifecycle.CreateRequestInput{
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Priority:          req.Priority,
		Location:          req.Location,
		Requirements:      req.Requirements,
		UrgentBy:          req.UrgentBy,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequest(c, http.StatusCreated, "request created", r)
}

func (h *Handlers) handleListRequests(c *gin.Context) {
	q, err := h.listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.engine.ListRequests(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.views.Requests(c.Request.Context(), page.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", lifecycle.Page[readmodel.RequestView]{Items: views, Pagination: page.Pagination})
}

func (h *Handlers) handleGetRequest(c *gin.Context) {
	r, err := h.engine.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequest(c, http.StatusOK, "success", r)
}

func (h *Handlers) handleAcceptRequest(c *gin.Context) {
	r, err := h.engine.AcceptRequest(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequest(c, http.StatusOK, "request accepted", r)
}

func (h *Handlers) handleUpdateRequestStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	r, err := h.engine.UpdateRequestStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequest(c, http.StatusOK, "request status updated", r)
}

func (h *Handlers) handleSubmitFeedback(c *gin.Context) {
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	r, err := h.engine.SubmitFeedback(c.Request.Context(), actor(c), c.Param("id"), lifecycle.FeedbackInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequest(c, http.StatusOK, "feedback submitted", r)
}

func (h *Handlers) handleMyRequests(c *gin.Context) {
	list, err := h.engine.MyRequests(c.Request.Context(), actor(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequests(c, list)
}

func (h *Handlers) handleVolunteerAccepted(c *gin.Context) {
	list, err := h.engine.VolunteerAccepted(c.Request.Context(), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderRequests(c, list)
}
