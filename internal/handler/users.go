package handlers

import (
	"AidLink/internal/lifecycle"
	"AidLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type locationReq struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address"`
}

type availabilityReq struct {
	Availability *bool `json:"availability" binding:"required"`
}

type skillsReq struct {
	Skills []string `json:"skills"`
}

func (h *Handlers) handleUpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	u, err := h.engine.UpdateUserLocation(c.Request.Context(), actor(c), lifecycle.LocationInput{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "location updated", u)
}

func (h *Handlers) handleUpdateAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "availability is required", gin.H{"error": err.Error()})
		return
	}
	u, err := h.engine.UpdateAvailability(c.Request.Context(), actor(c), *req.Availability)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "availability updated", u)
}

func (h *Handlers) handleUpdateSkills(c *gin.Context) {
	var req skillsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", gin.H{"error": err.Error()})
		return
	}
	u, err := h.engine.UpdateSkills(c.Request.Context(), actor(c), req.Skills)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "skills updated", u)
}

func (h *Handlers) handleNearbyVolunteers(c *gin.Context) {
	q, err := nearbyQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.engine.QueryNearbyVolunteers(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"volunteers": out, "count": len(out)})
}

func (h *Handlers) handleUserStats(c *gin.Context) {
	stats, err := h.engine.GetUserStats(c.Request.Context(), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", stats)
}

func nearbyQuery(c *gin.Context) (lifecycle.NearbyQuery, error) {
	q := lifecycle.NearbyQuery{Skills: queryList(c, "skills")}
	var err error
	if q.Lat, err = queryFloat(c, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = queryFloat(c, "lng"); err != nil {
		return q, err
	}
	if q.Radius, err = queryNumber(c, "radius"); err != nil {
		return q, err
	}
	q.Limit, err = queryInt(c, "limit")
	return q, err
}
