package model

import "time"

// Boat represents a row in the `boats` table. Boats are never hard
// deleted; an admin toggles Active off instead so historical
// reservations keep their foreign key.
type Boat struct {
	ID          string    // boats.id (uuid)
	Name        string    // boats.name
	Type        string    // boats.type (e.g. "sail", "motor")
	Capacity    int       // boats.capacity
	Beds        int       // boats.number_of_beds
	Location    string    // boats.location
	ImageURL    *string   // boats.image_url (nullable)
	Description *string   // boats.description (nullable)
	Active      bool      // boats.active
	CreatedAt   time.Time // boats.created_at
	UpdatedAt   time.Time // boats.updated_at
}
