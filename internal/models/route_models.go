package models

import "time"

// Route statuses, derived from the route's dates at read time.
const (
	RouteStatusDraft     = "draft"
	RouteStatusUpcoming  = "upcoming"
	RouteStatusActive    = "active"
	RouteStatusCompleted = "completed"
)

// DateLayout is the wire format of route dates.
const DateLayout = "2006-01-02"

// Route is one user's multi-day itinerary.
type Route struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"-"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	DayCount  int        `json:"day_count"`
	Status    string     `json:"status"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RouteStatus derives the status of a route from its dates and the current time.
// Only calendar days are compared, in the location of now.
func RouteStatus(start, end *time.Time, now time.Time) string {
	if start == nil || end == nil {
		return RouteStatusDraft
	}
	today := dateOf(now, now.Location())
	switch {
	case today.Before(dateOf(*start, now.Location())):
		return RouteStatusUpcoming
	case today.After(dateOf(*end, now.Location())):
		return RouteStatusCompleted
	default:
		return RouteStatusActive
	}
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// RouteDay groups the stops of one day, ordered by OrderInDay.
type RouteDay struct {
	DayNumber int     `json:"day_number"`
	Stops     []*Stop `json:"stops"`
}

// RouteDetail is a route together with its days.
type RouteDetail struct {
	*Route
	Days []RouteDay `json:"days"`
}

// CreateRouteRequest is the body of POST /routes.
type CreateRouteRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// UpdateRouteRequest carries the fields to change; nil fields are left untouched.
type UpdateRouteRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// AddDayResponse reports the day number created by POST /routes/:routeId/days.
type AddDayResponse struct {
	DayNumber int `json:"day_number"`
	DayCount  int `json:"day_count"`
}

// ShareRouteRequest is the body of POST /routes/:routeId/share.
type ShareRouteRequest struct {
	Email string `json:"email" validate:"required,email"`
}
