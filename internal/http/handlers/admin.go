package handlers

import (
	"net/http"

	"taxibot/internal/domain/models"
	"taxibot/internal/http/middleware"
	"taxibot/internal/repositories"
	"taxibot/internal/services"

	"github.com/gin-gonic/gin"
)

type tripResponse struct {
	ID         int64   `json:"id"`
	Direction  string  `json:"direction"`
	Label      string  `json:"label"`
	Date       string  `json:"date"`
	Passengers []int64 `json:"passengers"`
	Available  int     `json:"available"`
}

func toTripResponse(t models.Trip, capacity int) tripResponse {
	return tripResponse{
		ID:         t.ID,
		Direction:  string(t.Direction),
		Label:      t.Direction.Label(),
		Date:       t.Date,
		Passengers: t.Passengers,
		Available:  t.Available(capacity),
	}
}

type createTripRequest struct {
	Direction string `json:"direction" binding:"required,oneof=to_ufa from_ufa"`
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
}

type announceRequest struct {
	Text string `json:"text" binding:"required,max=4096"`
}

func withRequestID(c *gin.Context, svc services.AdminService) services.AdminService {
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

// GET /api/admin/trips
func ListTrips(admin services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		trips, err := admin.ListTrips(c.Request.Context())
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		out := make([]tripResponse, 0, len(trips))
		for _, t := range trips {
			out = append(out, toTripResponse(t, admin.Capacity))
		}
		c.JSON(http.StatusOK, gin.H{"trips": out})
	}
}

// POST /api/admin/trips
func CreateTrip(admin services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTripRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		trip, err := withRequestID(c, admin).AddTrip(c.Request.Context(), req.Direction, req.Date)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toTripResponse(trip, admin.Capacity))
	}
}

// DELETE /api/admin/trips/:id
func DeleteTrip(admin services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := withRequestID(c, admin).RemoveTrip(c.Request.Context(), id); err != nil {
			RespondDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /api/admin/trips/:id/passengers
func TripPassengers(admin services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		r, err := admin.Roster(c.Request.Context(), id)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"trip":     toTripResponse(r.Trip, r.Capacity),
			"bookings": r.Bookings,
		})
	}
}

// GET /api/admin/trips/:id/passengers.pdf
func TripPassengersPDF(docs services.DocsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		svc := docs
		svc.RequestID = middleware.GetRequestID(c)
		pdf, filename, err := svc.RosterPDF(c.Request.Context(), id)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

// POST /api/admin/announce
func Announce(admin services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req announceRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		rep, err := withRequestID(c, admin).Announce(c.Request.Context(), req.Text)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": rep.Sent, "failed": rep.Failed})
	}
}

// GET /api/admin/finance/average?period=day|week|month
func AverageProfit(finance services.FinanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		period := c.DefaultQuery("period", repositories.PeriodDay)
		svc := finance
		svc.RequestID = middleware.GetRequestID(c)
		avg, err := svc.AverageProfit(c.Request.Context(), period)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"period": period, "average": avg})
	}
}

// PUT and DELETE /api/admin/users/:id/ban
func SetUserBanned(admin services.AdminService, banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := withRequestID(c, admin).SetBanned(c.Request.Context(), id, banned); err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id, "banned": banned})
	}
}
