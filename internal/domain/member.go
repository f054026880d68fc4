package domain

import "time"

// Member es la identidad verificada y durable de un socio.
type Member struct {
	ID          string    `json:"member_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Contact     string    `json:"contact,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}
