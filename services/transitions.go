package services

import "github.com/yeremiapane/restaurant-reservation/models"

// allowedTransitions is the status table enforced on direct status edits.
// It mirrors what confirm and cancel permit; only PENDING may stay PENDING.
var allowedTransitions = map[models.ReservationStatus]map[models.ReservationStatus]bool{
	models.StatusPending: {
		models.StatusPending:   true,
		models.StatusConfirmed: true,
		models.StatusCancelled: true,
	},
	models.StatusConfirmed: {
		models.StatusConfirmed: true,
		models.StatusCancelled: true,
	},
	models.StatusCancelled: {
		models.StatusConfirmed: true,
		models.StatusCancelled: true,
	},
}

// CanTransition reports whether a reservation in status from may be set to to.
func CanTransition(from, to models.ReservationStatus) bool {
	return allowedTransitions[from][to]
}
