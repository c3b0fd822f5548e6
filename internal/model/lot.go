package model

import "time"

// ParkingLot groups the floors of a single physical location.  Floors are
// embedded in the lot record rather than stored in their own bucket; a lot
// rarely has more than a handful of floors and they are always read
// together with the lot.
//
// Fields:
//  ID        – UUID primary key.
//  Name      – human readable lot name.
//  Address   – street address shown to users.
//  Floors    – ordered list of floors belonging to this lot.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last mutation.
type ParkingLot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Floors    []Floor   `json:"floors"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Floor is one level of a parking lot.  Slots reference their floor by ID.
//
// Fields:
//  ID          – UUID identifier, unique within the store.
//  Name        – label such as "Level 1" or "Roof".
//  FloorNumber – ordinal used for sorting floors within a lot.
type Floor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FloorNumber int    `json:"floor_number"`
}
