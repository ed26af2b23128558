package models

import "time"

// Stop places one destination on one day of one route.
// OrderInDay is the 1-based dense rank of the stop within its (route, day).
type Stop struct {
	ID            int64        `json:"id"`
	RouteID       int64        `json:"route_id"`
	DestinationID int64        `json:"destination_id"`
	DayNumber     int          `json:"day_number"`
	OrderInDay    int          `json:"order_in_day"`
	Notes         *string      `json:"notes,omitempty"`
	PlannedTime   *string      `json:"planned_time,omitempty"`
	Visited       bool         `json:"visited"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Destination   *Destination `json:"destination,omitempty"`
}

// Destination is a catalog entry as seen by the itinerary core. It is read-only here.
type Destination struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (d *Destination) HasCoordinates() bool {
	return d != nil && d.Latitude != nil && d.Longitude != nil
}

// AddStopRequest is the body of POST /routes/:routeId/stops.
// A missing OrderInDay appends the stop to the end of the day.
type AddStopRequest struct {
	DestinationID int64   `json:"destination_id" validate:"required,gt=0"`
	DayNumber     int     `json:"day_number" validate:"required,gt=0"`
	OrderInDay    *int    `json:"order_in_day,omitempty" validate:"omitempty,gt=0"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	PlannedTime   *string `json:"planned_time,omitempty" validate:"omitempty,datetime=15:04"`
}

// UpdateStopRequest carries the fields to change on a stop; nil fields are left untouched.
type UpdateStopRequest struct {
	DayNumber   *int    `json:"day_number,omitempty" validate:"omitempty,gt=0"`
	OrderInDay  *int    `json:"order_in_day,omitempty" validate:"omitempty,gt=0"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	PlannedTime *string `json:"planned_time,omitempty" validate:"omitempty,datetime=15:04"`
	Visited     *bool   `json:"visited,omitempty"`
}

// ReorderDayRequest is the body of PUT /routes/:routeId/days/:day/order.
type ReorderDayRequest struct {
	StopIDs []int64 `json:"stop_ids" validate:"required,dive,gt=0"`
}
