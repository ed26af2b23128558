package itinerary

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"trip-planner/internal/models"
	"trip-planner/internal/modules/catalog"
	"trip-planner/internal/store"

	"github.com/labstack/gommon/log"
)

const plannedTimeLayout = "15:04"

// ServiceInterface defines the contract for the itinerary service.
// Every operation takes the id of the requesting user; routes owned by
// someone else are reported as not found.
type ServiceInterface interface {
	CreateRoute(ctx context.Context, userID string, req models.CreateRouteRequest) (*models.Route, error)
	UpdateRoute(ctx context.Context, userID string, routeID int64, req models.UpdateRouteRequest) (*models.Route, error)
	DeleteRoute(ctx context.Context, userID string, routeID int64) error
	ListRoutes(ctx context.Context, userID string) ([]*models.Route, error)
	GetRoute(ctx context.Context, userID string, routeID int64) (*models.RouteDetail, error)

	AddStop(ctx context.Context, userID string, routeID int64, req models.AddStopRequest) (*models.Stop, error)
	UpdateStop(ctx context.Context, userID string, stopID int64, req models.UpdateStopRequest) (*models.Stop, error)
	RemoveStop(ctx context.Context, userID string, routeID, stopID int64) error
	ReorderDay(ctx context.Context, userID string, routeID int64, dayNumber int, stopIDs []int64) error
	OptimizeDay(ctx context.Context, userID string, routeID int64, dayNumber int) (*models.RouteDay, error)

	AddDay(ctx context.Context, userID string, routeID int64) (*models.AddDayResponse, error)
	RemoveDay(ctx context.Context, userID string, routeID int64, dayNumber int) error
}

// Service implements the itinerary operations on top of a store.Store.
type Service struct {
	store   store.Store
	catalog catalog.ServiceInterface
	locks   *routeLocks
	retries int
	now     func() time.Time
	logger  *log.Logger
}

// NewService creates a new itinerary service. retries bounds how many times an
// operation is re-run after a concurrent modification was detected.
func NewService(st store.Store, cat catalog.ServiceInterface, retries int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New("itinerary")
	}
	if retries < 0 {
		retries = 0
	}
	return &Service{
		store:   st,
		catalog: cat,
		locks:   newRouteLocks(),
		retries: retries,
		now:     time.Now,
		logger:  logger,
	}
}

// unit is the state of one attempt of a mutating operation.
type unit struct {
	tx    store.Tx
	route *models.Route
	days  []int
	dirty bool
}

// touch marks the route as modified and records days whose order must be verified.
func (u *unit) touch(days ...int) {
	u.dirty = true
	for _, d := range days {
		if !slices.Contains(u.days, d) {
			u.days = append(u.days, d)
		}
	}
}

// mutate runs fn as one transaction on a locked route. The route row is saved
// through the version check when fn marked it dirty, after every touched day was
// verified to be dense. A version conflict re-runs the whole of fn.
func (s *Service) mutate(ctx context.Context, op string, routeID int64, userID string, missing error, fn func(ctx context.Context, u *unit) error) error {
	unlock, err := s.locks.lock(ctx, routeID)
	if err != nil {
		return err
	}
	defer unlock()

	check := versionCheckFrom(ctx)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var committed int64
		err := s.store.WithinTx(ctx, func(tx store.Tx) error {
			route, err := tx.LockRoute(ctx, routeID, userID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return missing
				}
				return err
			}
			if check != nil && check.Expected > 0 && route.Version != check.Expected {
				return models.Conflict("route %d is at version %d, the change was based on version %d", routeID, route.Version, check.Expected)
			}

			u := &unit{tx: tx, route: route}
			if err := fn(ctx, u); err != nil {
				return err
			}
			committed = route.Version
			if !u.dirty {
				return nil
			}
			if err := s.verifyDays(ctx, u); err != nil {
				return err
			}
			route.UpdatedAt = s.now().UTC()
			if err := tx.SaveRoute(ctx, route, route.Version); err != nil {
				return err
			}
			committed = route.Version
			return nil
		})
		if err == nil {
			if check != nil {
				check.Committed = committed
			}
			return nil
		}

		var kindErr *models.Error
		if !errors.Is(err, models.ErrConflict) || errors.As(err, &kindErr) {
			return s.classify(ctx, op, err)
		}
		if attempt >= s.retries {
			s.logger.Warnf("%s: route %d still conflicting after %d attempts", op, routeID, attempt+1)
			return models.Conflict("route %d was modified concurrently, please retry", routeID)
		}
		s.logger.Debugf("%s: route %d modified concurrently, retrying (attempt %d)", op, routeID, attempt+1)
	}
}

// VersionCheck makes a mutating operation conditional on the route version the
// caller last saw. Committed is set to the route version after the operation succeeded.
type VersionCheck struct {
	Expected  int64
	Committed int64
}

type versionCheckKey struct{}

// WithVersionCheck returns a context under which mutating operations fail with a
// Conflict when the route is no longer at check.Expected. An Expected of zero
// disables the comparison but still reports Committed.
func WithVersionCheck(ctx context.Context, check *VersionCheck) context.Context {
	return context.WithValue(ctx, versionCheckKey{}, check)
}

func versionCheckFrom(ctx context.Context) *VersionCheck {
	check, _ := ctx.Value(versionCheckKey{}).(*VersionCheck)
	return check
}

// verifyDays re-reads every touched day and checks that its order is dense.
func (s *Service) verifyDays(ctx context.Context, u *unit) error {
	for _, d := range u.days {
		stops, err := u.tx.ListDayStops(ctx, u.route.ID, d)
		if err != nil {
			return err
		}
		if err := checkDense(u.route.ID, d, stops); err != nil {
			return err
		}
	}
	return nil
}

// classify turns a failure into one of the client-facing error kinds.
func (s *Service) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var kindErr *models.Error
	var dense *densityError
	switch {
	case errors.As(err, &kindErr):
		return kindErr
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &dense):
		s.logger.Errorf("%s: aborted, %v", op, dense)
		return fmt.Errorf("service.%s: %w", op, err)
	case errors.Is(err, models.ErrNotFound):
		return models.NotFound("resource not found")
	default:
		s.logger.Errorf("%s: store failure: %v", op, err)
		return models.Unavailable(err, "persistence store unavailable")
	}
}

func routeNotFound(routeID int64) error {
	return models.NotFound("route %d not found", routeID)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, models.InvalidArgument("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func validatePlannedTime(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := time.Parse(plannedTimeLayout, *value); err != nil {
		return models.InvalidArgument("planned_time must be in HH:MM format")
	}
	return nil
}

// emptyToNil clears an optional text field when the caller sent an empty string.
func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

// inclusiveDays is the number of calendar days from start to end, both included.
// Both are midnight UTC, so whole days divide the Unix difference exactly.
func inclusiveDays(start, end time.Time) int {
	return int((end.Unix()-start.Unix())/86400) + 1
}

func (s *Service) withStatus(route *models.Route) *models.Route {
	route.Status = models.RouteStatus(route.StartDate, route.EndDate, s.now())
	return route
}

// CreateRoute creates an empty route spanning the given dates.
func (s *Service) CreateRoute(ctx context.Context, userID string, req models.CreateRouteRequest) (*models.Route, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.InvalidArgument("name must not be empty")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, models.InvalidArgument("end_date must not be before start_date")
	}

	now := s.now().UTC()
	route, err := s.store.CreateRoute(ctx, &models.Route{
		UserID:    userID,
		Name:      name,
		StartDate: &start,
		EndDate:   &end,
		Notes:     emptyToNil(req.Notes),
		DayCount:  inclusiveDays(start, end),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, s.classify(ctx, "CreateRoute", err)
	}
	s.logger.Infof("route %d created for user %s", route.ID, userID)
	return s.withStatus(route), nil
}

// UpdateRoute applies the provided fields of req to the route.
func (s *Service) UpdateRoute(ctx context.Context, userID string, routeID int64, req models.UpdateRouteRequest) (*models.Route, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, models.InvalidArgument("name must not be empty")
		}
	}
	var start, end time.Time
	var err error
	if req.StartDate != nil {
		if start, err = parseDate("start_date", *req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if end, err = parseDate("end_date", *req.EndDate); err != nil {
			return nil, err
		}
	}

	var updated *models.Route
	err = s.mutate(ctx, "UpdateRoute", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		route := u.route
		if req.Name != nil {
			route.Name = name
		}
		if req.StartDate != nil {
			route.StartDate = &start
		}
		if req.EndDate != nil {
			route.EndDate = &end
		}
		if route.StartDate != nil && route.EndDate != nil && route.EndDate.Before(*route.StartDate) {
			return models.InvalidArgument("end_date must not be before start_date")
		}
		if req.Notes != nil {
			route.Notes = emptyToNil(req.Notes)
		}
		u.touch()
		updated = route
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.withStatus(updated), nil
}

// DeleteRoute deletes the route and all of its stops.
func (s *Service) DeleteRoute(ctx context.Context, userID string, routeID int64) error {
	err := s.mutate(ctx, "DeleteRoute", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		return u.tx.DeleteRoute(ctx, u.route.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Infof("route %d deleted by user %s", routeID, userID)
	return nil
}

// ListRoutes returns the user's routes, most recently modified first.
func (s *Service) ListRoutes(ctx context.Context, userID string) ([]*models.Route, error) {
	routes, err := s.store.ListRoutes(ctx, userID)
	if err != nil {
		return nil, s.classify(ctx, "ListRoutes", err)
	}
	for _, r := range routes {
		s.withStatus(r)
	}
	return routes, nil
}

// GetRoute returns the route with every day from 1 to its day count. Stops carry
// their resolved destinations.
func (s *Service) GetRoute(ctx context.Context, userID string, routeID int64) (*models.RouteDetail, error) {
	route, err := s.store.FindRoute(ctx, routeID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, routeNotFound(routeID)
		}
		return nil, s.classify(ctx, "GetRoute", err)
	}
	stops, err := s.store.ListStops(ctx, route.ID)
	if err != nil {
		return nil, s.classify(ctx, "GetRoute", err)
	}
	if err := s.attachDestinations(ctx, stops); err != nil {
		return nil, err
	}

	route.DayCount = dayCount(route, stops)
	byDay := groupByDay(stops)
	detail := &models.RouteDetail{Route: s.withStatus(route), Days: make([]models.RouteDay, 0, route.DayCount)}
	for d := 1; d <= route.DayCount; d++ {
		day := byDay[d]
		if day == nil {
			day = []*models.Stop{}
		}
		detail.Days = append(detail.Days, models.RouteDay{DayNumber: d, Stops: day})
	}
	return detail, nil
}

// attachDestinations resolves the destination of every stop through the catalog.
func (s *Service) attachDestinations(ctx context.Context, stops []*models.Stop) error {
	if len(stops) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(stops))
	for _, st := range stops {
		ids = append(ids, st.DestinationID)
	}
	found, err := s.catalog.Resolve(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return models.Unavailable(err, "destination catalog unavailable")
	}
	for _, st := range stops {
		st.Destination = found[st.DestinationID]
	}
	return nil
}

// attachAfterCommit resolves destinations for a response once the write is committed.
// A catalog failure at that point is logged and the stops are returned without them.
func (s *Service) attachAfterCommit(ctx context.Context, stops ...*models.Stop) {
	if err := s.attachDestinations(ctx, stops); err != nil {
		s.logger.Warnf("could not resolve destinations for response: %v", err)
	}
}

// AddStop places a destination on a day of the route, at the end of the day
// or at the requested position.
func (s *Service) AddStop(ctx context.Context, userID string, routeID int64, req models.AddStopRequest) (*models.Stop, error) {
	if req.DestinationID <= 0 {
		return nil, models.InvalidArgument("destination_id must be positive")
	}
	if req.DayNumber <= 0 {
		return nil, models.InvalidArgument("day_number must be positive")
	}
	if req.OrderInDay != nil && *req.OrderInDay <= 0 {
		return nil, models.InvalidArgument("order_in_day must be positive")
	}
	if err := validatePlannedTime(req.PlannedTime); err != nil {
		return nil, err
	}

	found, err := s.catalog.Resolve(ctx, []int64{req.DestinationID})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.Unavailable(err, "destination catalog unavailable")
	}
	destination, ok := found[req.DestinationID]
	if !ok {
		return nil, models.NotFound("destination %d not found", req.DestinationID)
	}

	var stop *models.Stop
	err = s.mutate(ctx, "AddStop", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		day, err := u.tx.ListDayStops(ctx, u.route.ID, req.DayNumber)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		stop = &models.Stop{
			RouteID:       u.route.ID,
			DestinationID: req.DestinationID,
			DayNumber:     req.DayNumber,
			Notes:         emptyToNil(req.Notes),
			PlannedTime:   emptyToNil(req.PlannedTime),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		var shifted []*models.Stop
		if req.OrderInDay == nil {
			stop.OrderInDay = appendPosition(day)
		} else if shifted, err = insertAt(day, stop, *req.OrderInDay); err != nil {
			return err
		}

		if err := s.writeStops(ctx, u.tx, now, shifted); err != nil {
			return err
		}
		if err := u.tx.InsertStop(ctx, stop); err != nil {
			return err
		}
		u.route.DayCount = max(u.route.DayCount, req.DayNumber)
		u.touch(req.DayNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	stop.Destination = destination
	return stop, nil
}

// writeStops persists the day and order of stops shifted by an operation.
func (s *Service) writeStops(ctx context.Context, tx store.Tx, now time.Time, stops []*models.Stop) error {
	for _, st := range stops {
		st.UpdatedAt = now
		if err := tx.UpdateStop(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStop changes a stop. A new day number moves it to that day (appended
// unless order_in_day is given); a new order_in_day alone moves it within its day.
func (s *Service) UpdateStop(ctx context.Context, userID string, stopID int64, req models.UpdateStopRequest) (*models.Stop, error) {
	if req.DayNumber != nil && *req.DayNumber <= 0 {
		return nil, models.InvalidArgument("day_number must be positive")
	}
	if req.OrderInDay != nil && *req.OrderInDay <= 0 {
		return nil, models.InvalidArgument("order_in_day must be positive")
	}
	if err := validatePlannedTime(req.PlannedTime); err != nil {
		return nil, err
	}

	stopNotFound := models.NotFound("stop %d not found", stopID)
	routeID, err := s.store.FindStopRouteID(ctx, stopID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, stopNotFound
		}
		return nil, s.classify(ctx, "UpdateStop", err)
	}

	var stop *models.Stop
	err = s.mutate(ctx, "UpdateStop", routeID, userID, stopNotFound, func(ctx context.Context, u *unit) error {
		var err error
		stop, err = u.tx.FindStop(ctx, u.route.ID, stopID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return stopNotFound
			}
			return err
		}

		now := s.now().UTC()
		oldDay := stop.DayNumber
		switch {
		case req.DayNumber != nil && *req.DayNumber != oldDay:
			if err := s.moveAcrossDays(ctx, u, stop, *req.DayNumber, req.OrderInDay, now); err != nil {
				return err
			}
		case req.OrderInDay != nil && *req.OrderInDay != stop.OrderInDay:
			if err := s.moveInDay(ctx, u, stop, *req.OrderInDay, now); err != nil {
				return err
			}
		}

		if req.Notes != nil {
			stop.Notes = emptyToNil(req.Notes)
		}
		if req.PlannedTime != nil {
			stop.PlannedTime = emptyToNil(req.PlannedTime)
		}
		if req.Visited != nil {
			stop.Visited = *req.Visited
		}
		stop.UpdatedAt = now
		if err := u.tx.UpdateStop(ctx, stop); err != nil {
			return err
		}
		u.touch(oldDay, stop.DayNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.attachAfterCommit(ctx, stop)
	return stop, nil
}

// moveAcrossDays removes stop from its day and inserts it into newDay at position,
// or at the end of newDay when position is nil.
func (s *Service) moveAcrossDays(ctx context.Context, u *unit, stop *models.Stop, newDay int, position *int, now time.Time) error {
	source, err := u.tx.ListDayStops(ctx, u.route.ID, stop.DayNumber)
	if err != nil {
		return err
	}
	target, err := u.tx.ListDayStops(ctx, u.route.ID, newDay)
	if err != nil {
		return err
	}

	p := appendPosition(target)
	if position != nil {
		p = *position
	}
	old := *stop
	stop.DayNumber = newDay
	shiftedTarget, err := insertAt(target, stop, p)
	if err != nil {
		return err
	}
	shiftedSource := removeFrom(source, &old)

	if err := s.writeStops(ctx, u.tx, now, shiftedSource); err != nil {
		return err
	}
	if err := s.writeStops(ctx, u.tx, now, shiftedTarget); err != nil {
		return err
	}
	u.route.DayCount = max(u.route.DayCount, newDay)
	return nil
}

// moveInDay moves stop to position n of its own day.
func (s *Service) moveInDay(ctx context.Context, u *unit, stop *models.Stop, n int, now time.Time) error {
	day, err := u.tx.ListDayStops(ctx, u.route.ID, stop.DayNumber)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(day, func(st *models.Stop) bool { return st.ID == stop.ID })
	if idx < 0 {
		return models.NotFound("stop %d not found", stop.ID)
	}
	shifted, err := moveWithin(day, day[idx], n)
	if err != nil {
		return err
	}
	stop.OrderInDay = n
	return s.writeStops(ctx, u.tx, now, shifted)
}

// RemoveStop deletes a stop and closes the gap it leaves in its day.
func (s *Service) RemoveStop(ctx context.Context, userID string, routeID, stopID int64) error {
	return s.mutate(ctx, "RemoveStop", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		stop, err := u.tx.FindStop(ctx, u.route.ID, stopID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NotFound("stop %d not found on route %d", stopID, routeID)
			}
			return err
		}
		day, err := u.tx.ListDayStops(ctx, u.route.ID, stop.DayNumber)
		if err != nil {
			return err
		}
		if err := u.tx.DeleteStop(ctx, stop.ID); err != nil {
			return err
		}
		if err := s.writeStops(ctx, u.tx, s.now().UTC(), removeFrom(day, stop)); err != nil {
			return err
		}
		u.touch(stop.DayNumber)
		return nil
	})
}

// loadDay returns the sorted stops of dayNumber. A day beyond the route's day count does not exist.
func loadDay(ctx context.Context, u *unit, dayNumber int) ([]*models.Stop, error) {
	all, err := u.tx.ListRouteStops(ctx, u.route.ID)
	if err != nil {
		return nil, err
	}
	if dayNumber > dayCount(u.route, all) {
		return nil, models.NotFound("day %d not found on route %d", dayNumber, u.route.ID)
	}
	return groupByDay(all)[dayNumber], nil
}

// ReorderDay sets the order of a day to the order of stopIDs, which must list
// every stop of the day exactly once.
func (s *Service) ReorderDay(ctx context.Context, userID string, routeID int64, dayNumber int, stopIDs []int64) error {
	if dayNumber <= 0 {
		return models.InvalidArgument("day_number must be positive")
	}
	return s.mutate(ctx, "ReorderDay", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		day, err := loadDay(ctx, u, dayNumber)
		if err != nil {
			return err
		}
		changed, err := reorder(day, stopIDs)
		if err != nil {
			return err
		}
		if len(day) == 0 {
			return nil
		}
		if err := s.writeStops(ctx, u.tx, s.now().UTC(), changed); err != nil {
			return err
		}
		u.touch(dayNumber)
		return nil
	})
}

// OptimizeDay resequences a day with the nearest-neighbour heuristic and
// returns the day in its new order. Days with fewer than two stops are left as they are.
func (s *Service) OptimizeDay(ctx context.Context, userID string, routeID int64, dayNumber int) (*models.RouteDay, error) {
	if dayNumber <= 0 {
		return nil, models.InvalidArgument("day_number must be positive")
	}

	var result []*models.Stop
	err := s.mutate(ctx, "OptimizeDay", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		day, err := loadDay(ctx, u, dayNumber)
		if err != nil {
			return err
		}
		result = day
		if len(day) <= 1 {
			return nil
		}
		if err := s.attachDestinations(ctx, day); err != nil {
			return err
		}

		order, err := nearestNeighborOrder(day)
		if err != nil {
			return err
		}
		before := pathLengthMeters(day)
		changed, err := reorder(day, order)
		if err != nil {
			return err
		}
		sortDay(day)
		s.logger.Debugf("route %d day %d optimized: %.0fm -> %.0fm", u.route.ID, dayNumber, before, pathLengthMeters(day))

		if err := s.writeStops(ctx, u.tx, s.now().UTC(), changed); err != nil {
			return err
		}
		u.touch(dayNumber)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*models.Stop{}
	} else if len(result) == 1 {
		s.attachAfterCommit(ctx, result...)
	}
	return &models.RouteDay{DayNumber: dayNumber, Stops: result}, nil
}

// AddDay appends an empty day to the route and returns its number.
func (s *Service) AddDay(ctx context.Context, userID string, routeID int64) (*models.AddDayResponse, error) {
	var resp models.AddDayResponse
	err := s.mutate(ctx, "AddDay", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		all, err := u.tx.ListRouteStops(ctx, u.route.ID)
		if err != nil {
			return err
		}
		u.route.DayCount = dayCount(u.route, all) + 1
		u.touch()
		resp = models.AddDayResponse{DayNumber: u.route.DayCount, DayCount: u.route.DayCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveDay deletes every stop of dayNumber and moves each later day one day earlier.
func (s *Service) RemoveDay(ctx context.Context, userID string, routeID int64, dayNumber int) error {
	if dayNumber <= 0 {
		return models.InvalidArgument("day_number must be positive")
	}
	return s.mutate(ctx, "RemoveDay", routeID, userID, routeNotFound(routeID), func(ctx context.Context, u *unit) error {
		all, err := u.tx.ListRouteStops(ctx, u.route.ID)
		if err != nil {
			return err
		}
		count := dayCount(u.route, all)
		if dayNumber > count {
			return models.NotFound("day %d not found on route %d", dayNumber, u.route.ID)
		}

		deleted, shifted := removeDay(all, dayNumber)
		if err := u.tx.DeleteDayStops(ctx, u.route.ID, dayNumber); err != nil {
			return err
		}
		if err := s.writeStops(ctx, u.tx, s.now().UTC(), shifted); err != nil {
			return err
		}

		u.route.DayCount = count - 1
		u.touch()
		for _, st := range shifted {
			u.touch(st.DayNumber)
		}
		s.logger.Infof("route %d: day %d removed with %d stops, %d stops moved earlier", u.route.ID, dayNumber, len(deleted), len(shifted))
		return nil
	})
}
