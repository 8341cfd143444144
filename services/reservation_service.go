package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

// Event names published after a successful write.
const (
	EventReservationCreated   = "reservation_created"
	EventReservationModified  = "reservation_modified"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCancelled = "reservation_cancelled"
)

// EventPublisher receives reservation lifecycle events.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// ReservationService owns reservation records and the rules that gate
// every status change.
//
// Every mutation after create must present the workflow token stored at
// creation. Confirm and cancel additionally require the phone of the linked
// customer. Writes are guarded by the reservation version, a stale write
// fails with ErrConflict instead of overwriting a concurrent change.
type ReservationService struct {
	DB        *gorm.DB
	Customers *CustomerService
	Events    EventPublisher
}

func NewReservationService(db *gorm.DB, customers *CustomerService, events EventPublisher) *ReservationService {
	return &ReservationService{DB: db, Customers: customers, Events: events}
}

type CreateReservationInput struct {
	Name      string
	Phone     string
	Date      string
	Time      string
	SeatCount uint
	Workflow  string
	Status    *models.ReservationStatus
	Notes     *string
}

// ModifyReservationInput patches a reservation. ID and Workflow select and
// authorize the record; every other nil field is left unchanged.
type ModifyReservationInput struct {
	ID        uint
	Workflow  string
	Name      *string
	Phone     *string
	Date      *string
	Time      *string
	SeatCount *uint
	Status    *models.ReservationStatus
	Notes     *string
}

type ConfirmReservationInput struct {
	ID       uint
	Phone    string
	Workflow string
}

type CancelReservationInput struct {
	ID                 uint
	Phone              string
	Workflow           string
	CancellationReason *string
}

// Create resolves the customer by phone (creating it when unknown) and
// stores a new reservation linked to it.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	status := models.StatusPending
	if in.Status != nil {
		status = *in.Status
	}
	reservation := &models.Reservation{
		Name:      in.Name,
		Phone:     in.Phone,
		Date:      in.Date,
		Time:      in.Time,
		SeatCount: in.SeatCount,
		Workflow:  in.Workflow,
		Status:    status,
		Notes:     in.Notes,
		Version:   1,
	}

	unlock := s.Customers.locks.lock(in.Phone)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, _, err := resolveCustomer(tx, in.Name, in.Phone)
		if err != nil {
			return err
		}
		reservation.CustomerID = customer.ID
		if err := tx.Omit("Customer").Create(reservation).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		reservation.Customer = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"customer_id":    reservation.CustomerID,
		"status":         reservation.Status,
	}).Info("Reservation created")
	s.publish(EventReservationCreated, reservation)
	return reservation, nil
}

// FindAll returns the reservations whose own phone and workflow both equal
// the given values. No match yields an empty slice.
func (s *ReservationService) FindAll(ctx context.Context, phone, workflow string) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	if err := s.DB.WithContext(ctx).
		Where("phone = ? AND workflow = ?", phone, workflow).
		Order("id ASC").
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	return reservations, nil
}

// Modify overlays the supplied fields onto the reservation. Status edits
// go through the transition table.
func (s *ReservationService) Modify(ctx context.Context, in ModifyReservationInput) (*models.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	reservation, err := s.load(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Workflow == "" {
		return nil, s.reject(in.ID, "workflow", newError(KindInvalidRequest, "workflow is required"))
	}
	if err := checkWorkflow(reservation, in.Workflow); err != nil {
		return nil, s.reject(in.ID, "workflow", err)
	}

	if in.Name != nil {
		reservation.Name = *in.Name
	}
	if in.Phone != nil {
		reservation.Phone = *in.Phone
	}
	if in.Date != nil {
		reservation.Date = *in.Date
	}
	if in.Time != nil {
		reservation.Time = *in.Time
	}
	if in.SeatCount != nil {
		reservation.SeatCount = *in.SeatCount
	}
	if in.Notes != nil {
		reservation.Notes = in.Notes
	}
	if in.Status != nil {
		to := *in.Status
		if !CanTransition(reservation.Status, to) {
			return nil, s.reject(in.ID, "status", newError(KindInvalidRequest,
				"cannot change reservation status from %s to %s", reservation.Status, to))
		}
		if to == models.StatusConfirmed {
			reservation.Confirm()
		} else {
			reservation.Status = to
		}
	}

	return s.save(ctx, reservation, EventReservationModified)
}

// Confirm sets the reservation to CONFIRMED and clears any cancellation reason.
func (s *ReservationService) Confirm(ctx context.Context, in ConfirmReservationInput) (*models.Reservation, error) {
	reservation, err := s.loadAuthorized(ctx, in.ID, in.Workflow, in.Phone)
	if err != nil {
		return nil, err
	}

	reservation.Confirm()
	return s.save(ctx, reservation, EventReservationConfirmed)
}

// Cancel sets the reservation to CANCELLED with the supplied reason, if any.
func (s *ReservationService) Cancel(ctx context.Context, in CancelReservationInput) (*models.Reservation, error) {
	if in.CancellationReason != nil && utf8.RuneCountInString(*in.CancellationReason) > 200 {
		return nil, newError(KindInvalidRequest, "cancellationReason must be at most 200 characters")
	}

	reservation, err := s.loadAuthorized(ctx, in.ID, in.Workflow, in.Phone)
	if err != nil {
		return nil, err
	}

	reservation.Cancel(in.CancellationReason)
	return s.save(ctx, reservation, EventReservationCancelled)
}

// loadAuthorized loads the reservation and runs, in order, the workflow and
// customer phone checks.
func (s *ReservationService) loadAuthorized(ctx context.Context, id uint, workflow, phone string) (*models.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWorkflow(reservation, workflow); err != nil {
		return nil, s.reject(id, "workflow", err)
	}
	if err := checkIdentity(reservation, phone); err != nil {
		return nil, s.reject(id, "phone", err)
	}
	return reservation, nil
}

func (s *ReservationService) load(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.DB.WithContext(ctx).Preload("Customer").First(&reservation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "Reservation with id %d not found", id)
		}
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	return &reservation, nil
}

// save writes every mutable column only if the stored version still equals
// the one that was read, then returns the fresh row.
func (s *ReservationService) save(ctx context.Context, r *models.Reservation, event string) (*models.Reservation, error) {
	res := s.DB.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]interface{}{
			"name":                r.Name,
			"phone":               r.Phone,
			"date":                r.Date,
			"time":                r.Time,
			"seat_count":          r.SeatCount,
			"status":              string(r.Status),
			"notes":               r.Notes,
			"cancellation_reason": r.CancellationReason,
			"version":             r.Version + 1,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("save reservation %d: %w", r.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, s.reject(r.ID, "version", newError(KindConflict,
			"Reservation with id %d was modified concurrently, retry with fresh state", r.ID))
	}

	saved, err := s.load(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": saved.ID,
		"status":         saved.Status,
		"version":        saved.Version,
	}).Infof("Reservation %s", strings.TrimPrefix(event, "reservation_"))
	s.publish(event, saved)
	return saved, nil
}

func (s *ReservationService) reject(id uint, check string, err error) error {
	utils.InfoLogger.WithFields(logrus.Fields{
		"reservation_id": id,
		"check":          check,
	}).Warnf("Reservation mutation rejected: %v", err)
	return err
}

func (s *ReservationService) publish(event string, r *models.Reservation) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(event, r)
}

func checkWorkflow(r *models.Reservation, workflow string) error {
	if r.Workflow != workflow {
		return ErrWorkflowMismatch
	}
	return nil
}

// checkIdentity compares against the linked customer's phone, not the
// reservation's own phone field.
func checkIdentity(r *models.Reservation, phone string) error {
	if r.Customer == nil || r.Customer.Phone != phone {
		return ErrIdentityMismatch
	}
	return nil
}

func (in CreateReservationInput) validate() error {
	if in.Phone == "" {
		return newError(KindInvalidRequest, "phone is required")
	}
	if in.Workflow == "" {
		return newError(KindInvalidRequest, "workflow is required")
	}
	if utf8.RuneCountInString(in.Workflow) > 64 {
		return newError(KindInvalidRequest, "workflow must be at most 64 characters")
	}
	if in.SeatCount < 1 {
		return newError(KindInvalidRequest, "seatCount must not be less than 1")
	}
	if in.Status != nil && !in.Status.Valid() {
		return newError(KindInvalidRequest, "status must be one of PENDING, CONFIRMED, CANCELLED")
	}
	return validateReservationFields(&in.Name, &in.Phone, in.Notes)
}

func (in ModifyReservationInput) validate() error {
	if in.SeatCount != nil && *in.SeatCount < 1 {
		return newError(KindInvalidRequest, "seatCount must not be less than 1")
	}
	if in.Status != nil && !in.Status.Valid() {
		return newError(KindInvalidRequest, "status must be one of PENDING, CONFIRMED, CANCELLED")
	}
	return validateReservationFields(in.Name, in.Phone, in.Notes)
}

func validateReservationFields(name, phone, notes *string) error {
	if name != nil {
		if n := utf8.RuneCountInString(*name); n < 1 || n > 100 {
			return newError(KindInvalidRequest, "name must be 1-100 characters")
		}
	}
	if phone != nil && utf8.RuneCountInString(*phone) > 20 {
		return newError(KindInvalidRequest, "phone must be at most 20 characters")
	}
	if notes != nil && utf8.RuneCountInString(*notes) > 500 {
		return newError(KindInvalidRequest, "notes must be at most 500 characters")
	}
	return nil
}
