package domain

import "time"

// Customer is a bank customer who raises complaints. Tickets may also be
// created without a customer reference (anonymous channel intake).
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	PushToken    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
