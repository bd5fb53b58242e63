// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used with the default exchange. Routing key == queue name.
const (
	QueueReservationRequested = "reservation.requested"
	QueueReservationDecided   = "reservation.decided"
)

// ReservationRequestedEvent is published when a new reservation request
// lands in the ledger. Consumers use it for admin notification mail.
type ReservationRequestedEvent struct {
	ReservationID  string `json:"reservation_id"`
	BoatID         string `json:"boat_id"`
	BoatName       string `json:"boat_name"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	StartDate      string `json:"start_date"`
	EndExclusive   string `json:"end_exclusive"`
	RequestedAt    string `json:"requested_at"`
}

// ReservationDecidedEvent is published when an admin approves, denies or
// cancels a reservation, and carries enough for a notification without a
// database round trip.
type ReservationDecidedEvent struct {
	ReservationID  string `json:"reservation_id"`
	BoatID         string `json:"boat_id"`
	BoatName       string `json:"boat_name"`
	RequesterEmail string `json:"requester_email"`
	StartDate      string `json:"start_date"`
	EndExclusive   string `json:"end_exclusive"`
	Status         string `json:"status"`
	DecidedAt      string `json:"decided_at"`
}
