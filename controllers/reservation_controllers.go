package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

type ReservationController struct {
	Service *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Service: svc}
}

type createReservationRequest struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Phone     string  `json:"phone" binding:"required,intlphone"`
	Date      string  `json:"date" binding:"required,datetime=2006-01-02"`
	Time      string  `json:"time" binding:"required,hhmm"`
	SeatCount uint    `json:"seatCount" binding:"required,min=1"`
	Workflow  string  `json:"workflow" binding:"required,max=64"`
	Status    *string `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
	Notes     *string `json:"notes" binding:"omitempty,max=500"`
}

// modifyReservationRequest: every create field is optional. A missing
// workflow is reported by the service after the id has been resolved.
type modifyReservationRequest struct {
	ID        uint    `json:"id" binding:"required,min=1"`
	Workflow  string  `json:"workflow" binding:"max=64"`
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,intlphone"`
	Date      *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time      *string `json:"time" binding:"omitempty,hhmm"`
	SeatCount *uint   `json:"seatCount" binding:"omitempty,min=1"`
	Status    *string `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
	Notes     *string `json:"notes" binding:"omitempty,max=500"`
}

type confirmReservationRequest struct {
	ID       uint   `json:"id" binding:"required,min=1"`
	Phone    string `json:"phone" binding:"required,intlphone"`
	Workflow string `json:"workflow" binding:"required,max=64"`
}

type cancelReservationRequest struct {
	ID                 uint    `json:"id" binding:"required,min=1"`
	Phone              string  `json:"phone" binding:"required,intlphone"`
	Workflow           string  `json:"workflow" binding:"required,max=64"`
	CancellationReason *string `json:"cancellationReason" binding:"omitempty,max=200"`
}

// CreateReservation -> POST /reservation
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Service.Create(c.Request.Context(), services.CreateReservationInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Date:      req.Date,
		Time:      req.Time,
		SeatCount: req.SeatCount,
		Workflow:  req.Workflow,
		Status:    toStatus(req.Status),
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

// FindByPhoneAndWorkflow -> GET /reservation/ByPhone?phone=&workflow=
func (rc *ReservationController) FindByPhoneAndWorkflow(c *gin.Context) {
	phone := c.Query("phone")
	workflow := c.Query("workflow")

	switch {
	case phone == "":
		respondInvalid(c, "phone is required")
		return
	case workflow == "":
		respondInvalid(c, "workflow is required")
		return
	case !utils.PhonePattern.MatchString(phone):
		respondInvalid(c, "phone "+utils.PhoneFormatMessage)
		return
	}

	reservations, err := rc.Service.FindAll(c.Request.Context(), phone, workflow)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// ModifyReservation -> PATCH /reservation
//
// This is an administrative patch: any supplied field is overwritten,
// including status (subject to the transition table).
func (rc *ReservationController) ModifyReservation(c *gin.Context) {
	var req modifyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Service.Modify(c.Request.Context(), services.ModifyReservationInput{
		ID:        req.ID,
		Workflow:  req.Workflow,
		Name:      req.Name,
		Phone:     req.Phone,
		Date:      req.Date,
		Time:      req.Time,
		SeatCount: req.SeatCount,
		Status:    toStatus(req.Status),
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

// ConfirmReservation -> POST /reservation/confirm
func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	var req confirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Service.Confirm(c.Request.Context(), services.ConfirmReservationInput{
		ID:       req.ID,
		Phone:    req.Phone,
		Workflow: req.Workflow,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", reservation)
}

// CancelReservation -> POST /reservation/cancel
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	var req cancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	reservation, err := rc.Service.Cancel(c.Request.Context(), services.CancelReservationInput{
		ID:                 req.ID,
		Phone:              req.Phone,
		Workflow:           req.Workflow,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", reservation)
}

func respondInvalid(c *gin.Context, msg string) {
	utils.RespondErrorCode(c, http.StatusBadRequest, string(services.KindInvalidRequest), errors.New(msg))
}

func toStatus(s *string) *models.ReservationStatus {
	if s == nil {
		return nil
	}
	status := models.ReservationStatus(*s)
	return &status
}
