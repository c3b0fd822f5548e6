package model

import "time"

// Vehicle is a car registered by a user so its plate can be attached to
// bookings.  Vehicles are deleted on explicit request and cascaded away on
// account erasure; bookings keep their own plate snapshot.
//
// Fields:
//  ID           – UUID primary key.
//  UserID       – owning user.
//  LicensePlate – registration plate (PII).
//  Make         – optional manufacturer.
//  Model        – optional model name.
//  Color        – optional color.
//  CreatedAt    – timestamp of registration.
type Vehicle struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	LicensePlate string    `json:"license_plate"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Color        string    `json:"color,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
