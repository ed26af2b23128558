package itinerary

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-planner/internal/models"
	"trip-planner/internal/modules/catalog"
	"trip-planner/internal/sqlite"
	"trip-planner/internal/store"
)

const (
	owner    = "user-owner"
	stranger = "user-stranger"
)

type fixture struct {
	svc   *Service
	db    *sqlite.Store
	dests []int64 // destinations with coordinates, west to east
	bare  int64   // destination without coordinates
}

func setupFixture(t *testing.T) *fixture {
	return setupFixtureWith(t, nil)
}

// setupFixtureWith builds a service over a fresh SQLite database. wrap, when set,
// decorates the store handed to the service.
func setupFixtureWith(t *testing.T, wrap func(store.Store) store.Store) *fixture {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), sqlite.DefaultDBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	f := &fixture{db: db}
	for i := 0; i < 6; i++ {
		lat, lng := 38.70, -9.20+float64(i)*0.01
		d, err := db.SaveDestination(ctx, &models.Destination{Name: "Lisbon spot", Latitude: &lat, Longitude: &lng})
		require.NoError(t, err)
		f.dests = append(f.dests, d.ID)
	}
	bare, err := db.SaveDestination(ctx, &models.Destination{Name: "Unmapped"})
	require.NoError(t, err)
	f.bare = bare.ID

	var st store.Store = db
	if wrap != nil {
		st = wrap(db)
	}
	f.svc = NewService(st, catalog.NewService(db, time.Minute, nil), 3, nil)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) newRoute(t *testing.T, start, end string) *models.Route {
	t.Helper()
	route, err := f.svc.CreateRoute(context.Background(), owner, models.CreateRouteRequest{
		Name:      "Lisbon",
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return route
}

func (f *fixture) add(t *testing.T, routeID, destinationID int64, day int, position ...int) int64 {
	t.Helper()
	req := models.AddStopRequest{DestinationID: destinationID, DayNumber: day}
	if len(position) > 0 {
		req.OrderInDay = &position[0]
	}
	stop, err := f.svc.AddStop(context.Background(), owner, routeID, req)
	require.NoError(t, err)
	return stop.ID
}

// day returns the stop ids of one day in order, asserting that the day is dense.
func (f *fixture) day(t *testing.T, routeID int64, dayNumber int) []int64 {
	t.Helper()
	detail, err := f.svc.GetRoute(context.Background(), owner, routeID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(detail.Days), dayNumber)

	var out []int64
	for i, st := range detail.Days[dayNumber-1].Stops {
		assert.Equal(t, i+1, st.OrderInDay, "day %d is not dense", dayNumber)
		out = append(out, st.ID)
	}
	return out
}

// assertDense checks every day of the route straight from the store.
func (f *fixture) assertDense(t *testing.T, routeID int64) {
	t.Helper()
	stops, err := f.db.ListStops(context.Background(), routeID)
	require.NoError(t, err)
	for d, day := range groupByDay(stops) {
		assert.NoError(t, checkDense(routeID, d, day))
	}
}

func TestCreateRoute(t *testing.T) {
	f := setupFixture(t)
	route := f.newRoute(t, "2026-11-01", "2026-11-04")

	assert.Equal(t, 4, route.DayCount)
	assert.Equal(t, models.RouteStatusUpcoming, route.Status)
	assert.Equal(t, int64(1), route.Version)

	detail, err := f.svc.GetRoute(context.Background(), owner, route.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Days, 4)
	for _, d := range detail.Days {
		assert.NotNil(t, d.Stops)
		assert.Empty(t, d.Stops)
	}
}

func TestCreateRouteValidation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateRouteRequest
	}{
		{"blank name", models.CreateRouteRequest{Name: "  ", StartDate: "2026-11-01", EndDate: "2026-11-02"}},
		{"bad date", models.CreateRouteRequest{Name: "x", StartDate: "01/11/2026", EndDate: "2026-11-02"}},
		{"end before start", models.CreateRouteRequest{Name: "x", StartDate: "2026-11-03", EndDate: "2026-11-02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRoute(ctx, owner, tt.req)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}

	routes, err := f.svc.ListRoutes(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestUpdateRoute(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-10-10", "2026-10-20")
	assert.Equal(t, models.RouteStatusActive, route.Status)

	name, notes := "Lisbon and Sintra", "trains from Rossio"
	updated, err := f.svc.UpdateRoute(ctx, owner, route.ID, models.UpdateRouteRequest{Name: &name, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, route.Version+1, updated.Version)
	require.NotNil(t, updated.StartDate)

	early := "2026-10-01"
	_, err = f.svc.UpdateRoute(ctx, owner, route.ID, models.UpdateRouteRequest{EndDate: &early})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = f.svc.UpdateRoute(ctx, stranger, route.ID, models.UpdateRouteRequest{Name: &name})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListRoutesMostRecentFirst(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	first := f.newRoute(t, "2026-11-01", "2026-11-02")
	second := f.newRoute(t, "2026-12-01", "2026-12-02")

	f.svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	f.add(t, first.ID, f.dests[0], 1)

	routes, err := f.svc.ListRoutes(ctx, owner)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, first.ID, routes[0].ID)
	assert.Equal(t, second.ID, routes[1].ID)

	others, err := f.svc.ListRoutes(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestItineraryScenario(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	a := f.add(t, route.ID, f.dests[0], 1)
	b := f.add(t, route.ID, f.dests[1], 1)
	c := f.add(t, route.ID, f.dests[2], 1)
	e := f.add(t, route.ID, f.dests[4], 2)
	require.Equal(t, []int64{a, b, c}, f.day(t, route.ID, 1))

	require.NoError(t, f.svc.RemoveStop(ctx, owner, route.ID, b))
	assert.Equal(t, []int64{a, c}, f.day(t, route.ID, 1))

	d := f.add(t, route.ID, f.dests[3], 1)
	assert.Equal(t, []int64{a, c, d}, f.day(t, route.ID, 1))

	require.NoError(t, f.svc.ReorderDay(ctx, owner, route.ID, 1, []int64{d, a, c}))
	assert.Equal(t, []int64{d, a, c}, f.day(t, route.ID, 1))

	require.NoError(t, f.svc.RemoveDay(ctx, owner, route.ID, 1))
	detail, err := f.svc.GetRoute(ctx, owner, route.ID)
	require.NoError(t, err)
	require.Len(t, detail.Days, 1)
	assert.Equal(t, 1, detail.DayCount)
	assert.Equal(t, []int64{e}, f.day(t, route.ID, 1))
}

func TestAddStopAtPosition(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	a := f.add(t, route.ID, f.dests[0], 1)
	b := f.add(t, route.ID, f.dests[1], 1)
	c := f.add(t, route.ID, f.dests[2], 1, 1)
	assert.Equal(t, []int64{c, a, b}, f.day(t, route.ID, 1))

	pos := 5
	_, err := f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[3], DayNumber: 1, OrderInDay: &pos})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Equal(t, []int64{c, a, b}, f.day(t, route.ID, 1), "a rejected insert changes nothing")

	// A stop on a later day extends the route.
	f.add(t, route.ID, f.dests[4], 3)
	detail, err := f.svc.GetRoute(ctx, owner, route.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Days, 3)
	assert.Empty(t, detail.Days[1].Stops)
	require.Len(t, detail.Days[2].Stops, 1)
	assert.Equal(t, f.dests[4], detail.Days[2].Stops[0].Destination.ID)
}

func TestAddStopValidation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	_, err := f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[0], DayNumber: 0})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	bad := "25:99"
	_, err = f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[0], DayNumber: 1, PlannedTime: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: 4242, DayNumber: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.svc.AddStop(ctx, stranger, route.ID, models.AddStopRequest{DestinationID: f.dests[0], DayNumber: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)

	stops, err := f.db.ListStops(ctx, route.ID)
	require.NoError(t, err)
	assert.Empty(t, stops)
}

func TestMoveAcrossDays(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	x1 := f.add(t, route.ID, f.dests[0], 1)
	x := f.add(t, route.ID, f.dests[1], 1)
	x3 := f.add(t, route.ID, f.dests[2], 1)
	y1 := f.add(t, route.ID, f.dests[3], 2)
	y2 := f.add(t, route.ID, f.dests[4], 2)

	day, pos := 2, 1
	moved, err := f.svc.UpdateStop(ctx, owner, x, models.UpdateStopRequest{DayNumber: &day, OrderInDay: &pos})
	require.NoError(t, err)
	assert.Equal(t, 2, moved.DayNumber)
	assert.Equal(t, 1, moved.OrderInDay)
	require.NotNil(t, moved.Destination)

	assert.Equal(t, []int64{x1, x3}, f.day(t, route.ID, 1))
	assert.Equal(t, []int64{x, y1, y2}, f.day(t, route.ID, 2))

	// Without a position the stop goes to the end of the new day.
	day = 1
	_, err = f.svc.UpdateStop(ctx, owner, y1, models.UpdateStopRequest{DayNumber: &day})
	require.NoError(t, err)
	assert.Equal(t, []int64{x1, x3, y1}, f.day(t, route.ID, 1))
	assert.Equal(t, []int64{x, y2}, f.day(t, route.ID, 2))
}

func TestUpdateStopWithinDayAndFields(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	a := f.add(t, route.ID, f.dests[0], 1)
	b := f.add(t, route.ID, f.dests[1], 1)
	c := f.add(t, route.ID, f.dests[2], 1)

	pos, notes, at, visited := 1, "book tickets", "10:30", true
	updated, err := f.svc.UpdateStop(ctx, owner, c, models.UpdateStopRequest{
		OrderInDay:  &pos,
		Notes:       &notes,
		PlannedTime: &at,
		Visited:     &visited,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.OrderInDay)
	assert.True(t, updated.Visited)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, []int64{c, a, b}, f.day(t, route.ID, 1))

	pos = 4
	_, err = f.svc.UpdateStop(ctx, owner, a, models.UpdateStopRequest{OrderInDay: &pos})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Equal(t, []int64{c, a, b}, f.day(t, route.ID, 1))

	empty := ""
	updated, err = f.svc.UpdateStop(ctx, owner, c, models.UpdateStopRequest{Notes: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.Notes)
}

func TestUpdateStopOwnership(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")
	a := f.add(t, route.ID, f.dests[0], 1)

	visited := true
	_, err := f.svc.UpdateStop(ctx, stranger, a, models.UpdateStopRequest{Visited: &visited})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "stop")

	_, err = f.svc.UpdateStop(ctx, owner, 9999, models.UpdateStopRequest{Visited: &visited})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoveStopNotFound(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")
	other := f.newRoute(t, "2026-11-01", "2026-11-01")
	a := f.add(t, route.ID, f.dests[0], 1)

	assert.ErrorIs(t, f.svc.RemoveStop(ctx, owner, other.ID, a), models.ErrNotFound)
	assert.ErrorIs(t, f.svc.RemoveStop(ctx, stranger, route.ID, a), models.ErrNotFound)
	assert.Equal(t, []int64{a}, f.day(t, route.ID, 1))
}

func TestReorderDayRejectsNonPermutations(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	a := f.add(t, route.ID, f.dests[0], 1)
	b := f.add(t, route.ID, f.dests[1], 1)
	c := f.add(t, route.ID, f.dests[2], 1)
	foreign := f.add(t, route.ID, f.dests[3], 2)
	before := f.day(t, route.ID, 1)

	for name, ids := range map[string][]int64{
		"missing":   {c, a},
		"foreign":   {c, a, foreign},
		"duplicate": {c, a, a},
	} {
		t.Run(name, func(t *testing.T) {
			err := f.svc.ReorderDay(ctx, owner, route.ID, 1, ids)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
			assert.Equal(t, before, f.day(t, route.ID, 1))
		})
	}

	assert.ErrorIs(t, f.svc.ReorderDay(ctx, owner, route.ID, 0, []int64{a, b, c}), models.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.ReorderDay(ctx, owner, route.ID, 9, nil), models.ErrNotFound)
}

func TestReorderEmptyDay(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	require.NoError(t, f.svc.ReorderDay(ctx, owner, route.ID, 2, nil))
	reloaded, err := f.db.FindRoute(ctx, route.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, route.Version, reloaded.Version, "a no-op reorder does not touch the route")
}

func TestOptimizeDay(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	// Stops given out of west-to-east order.
	s0 := f.add(t, route.ID, f.dests[0], 1)
	s3 := f.add(t, route.ID, f.dests[3], 1)
	s1 := f.add(t, route.ID, f.dests[1], 1)
	s2 := f.add(t, route.ID, f.dests[2], 1)

	day, err := f.svc.OptimizeDay(ctx, owner, route.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{s0, s1, s2, s3}, ids(day.Stops))
	assert.Equal(t, []int64{s0, s1, s2, s3}, f.day(t, route.ID, 1))
	assert.ElementsMatch(t, []int64{s0, s1, s2, s3}, ids(day.Stops))
}

func TestOptimizeDayDegenerate(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	day, err := f.svc.OptimizeDay(ctx, owner, route.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, day.Stops)

	only := f.add(t, route.ID, f.bare, 2)
	day, err = f.svc.OptimizeDay(ctx, owner, route.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{only}, ids(day.Stops))

	_, err = f.svc.OptimizeDay(ctx, owner, route.ID, 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOptimizeDayNeedsCoordinates(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	a := f.add(t, route.ID, f.dests[2], 1)
	b := f.add(t, route.ID, f.bare, 1)
	c := f.add(t, route.ID, f.dests[0], 1)

	_, err := f.svc.OptimizeDay(ctx, owner, route.ID, 1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Equal(t, []int64{a, b, c}, f.day(t, route.ID, 1))
}

func TestAddAndRemoveDays(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-03")

	a := f.add(t, route.ID, f.dests[0], 1)
	f.add(t, route.ID, f.dests[1], 2)
	f.add(t, route.ID, f.dests[2], 2)
	c1 := f.add(t, route.ID, f.dests[3], 3)
	c2 := f.add(t, route.ID, f.dests[4], 3)
	c3 := f.add(t, route.ID, f.dests[5], 3)

	added, err := f.svc.AddDay(ctx, owner, route.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, added.DayNumber)

	require.NoError(t, f.svc.RemoveDay(ctx, owner, route.ID, 2))

	detail, err := f.svc.GetRoute(ctx, owner, route.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.DayCount)
	assert.Equal(t, []int64{a}, f.day(t, route.ID, 1))
	assert.Equal(t, []int64{c1, c2, c3}, f.day(t, route.ID, 2))
	assert.Empty(t, f.day(t, route.ID, 3))

	assert.ErrorIs(t, f.svc.RemoveDay(ctx, owner, route.ID, 4), models.ErrNotFound)
	assert.ErrorIs(t, f.svc.RemoveDay(ctx, owner, route.ID, 0), models.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.RemoveDay(ctx, stranger, route.ID, 1), models.ErrNotFound)
}

func TestDeleteRouteCascades(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")
	a := f.add(t, route.ID, f.dests[0], 1)

	assert.ErrorIs(t, f.svc.DeleteRoute(ctx, stranger, route.ID), models.ErrNotFound)
	require.NoError(t, f.svc.DeleteRoute(ctx, owner, route.ID))

	_, err := f.svc.GetRoute(ctx, owner, route.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.db.FindStopRouteID(ctx, a)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteRoute(ctx, owner, route.ID), models.ErrNotFound)
}

func TestConcurrentAppendsStayDense(t *testing.T) {
	f := setupFixture(t)
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddStop(context.Background(), owner, route.ID, models.AddStopRequest{
				DestinationID: f.dests[i%len(f.dests)],
				DayNumber:     1,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.day(t, route.ID, 1), n)
	assert.Zero(t, f.svc.locks.size())
}

func TestDensityUnderRandomOperations(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-03")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 150; i++ {
		stops, err := f.db.ListStops(ctx, route.ID)
		require.NoError(t, err)
		days := groupByDay(stops)
		detail, err := f.svc.GetRoute(ctx, owner, route.ID)
		require.NoError(t, err)
		count := detail.DayCount

		switch op := rng.Intn(6); {
		case op == 0 || len(stops) == 0:
			day := rng.Intn(count) + 1
			req := models.AddStopRequest{DestinationID: f.dests[rng.Intn(len(f.dests))], DayNumber: day}
			if rng.Intn(2) == 0 {
				p := rng.Intn(len(days[day])+1) + 1
				req.OrderInDay = &p
			}
			_, err = f.svc.AddStop(ctx, owner, route.ID, req)
		case op == 1:
			st := stops[rng.Intn(len(stops))]
			err = f.svc.RemoveStop(ctx, owner, route.ID, st.ID)
		case op == 2:
			st := stops[rng.Intn(len(stops))]
			day := rng.Intn(count) + 1
			req := models.UpdateStopRequest{DayNumber: &day}
			limit := len(days[day]) + 1
			if day == st.DayNumber {
				limit = len(days[day])
			}
			p := rng.Intn(limit) + 1
			req.OrderInDay = &p
			_, err = f.svc.UpdateStop(ctx, owner, st.ID, req)
		case op == 3:
			day := stops[rng.Intn(len(stops))].DayNumber
			perm := ids(days[day])
			rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
			err = f.svc.ReorderDay(ctx, owner, route.ID, day, perm)
		case op == 4:
			_, err = f.svc.OptimizeDay(ctx, owner, route.ID, stops[rng.Intn(len(stops))].DayNumber)
		default:
			if count > 2 && rng.Intn(3) == 0 {
				err = f.svc.RemoveDay(ctx, owner, route.ID, rng.Intn(count)+1)
			} else {
				_, err = f.svc.AddDay(ctx, owner, route.ID)
			}
		}
		require.NoError(t, err, "operation %d", i)
		f.assertDense(t, route.ID)
	}
}

// conflictStore makes SaveRoute report a concurrent modification a number of times.
type conflictStore struct {
	store.Store
	remaining atomic.Int32
}

func (c *conflictStore) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return c.Store.WithinTx(ctx, func(tx store.Tx) error {
		return fn(&conflictTx{Tx: tx, parent: c})
	})
}

type conflictTx struct {
	store.Tx
	parent *conflictStore
}

func (t *conflictTx) SaveRoute(ctx context.Context, route *models.Route, expectedVersion int64) error {
	if t.parent.remaining.Add(-1) >= 0 {
		return models.ErrConflict
	}
	return t.Tx.SaveRoute(ctx, route, expectedVersion)
}

func TestConflictIsRetried(t *testing.T) {
	var cs *conflictStore
	f := setupFixtureWith(t, func(s store.Store) store.Store {
		cs = &conflictStore{Store: s}
		return cs
	})
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	cs.remaining.Store(2)
	a := f.add(t, route.ID, f.dests[0], 1)
	assert.Equal(t, []int64{a}, f.day(t, route.ID, 1))

	cs.remaining.Store(10)
	_, err := f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[1], DayNumber: 1})
	require.ErrorIs(t, err, models.ErrConflict)
	var kindErr *models.Error
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, "conflict", kindErr.KindName())

	assert.Equal(t, []int64{a}, f.day(t, route.ID, 1), "exhausted retries commit nothing")
}

type failingReader struct{}

func (failingReader) FindByIDs(context.Context, []int64) (map[int64]*models.Destination, error) {
	return nil, errors.New("catalog: connection refused")
}

func TestUnavailable(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-01")

	down := NewService(f.db, catalog.NewService(failingReader{}, time.Minute, nil), 3, nil)
	_, err := down.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[0], DayNumber: 1})
	assert.ErrorIs(t, err, models.ErrUnavailable)

	require.NoError(t, f.db.Close())
	_, err = f.svc.ListRoutes(ctx, owner)
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestCancelledContextCommitsNothing(t *testing.T) {
	f := setupFixture(t)
	route := f.newRoute(t, "2026-11-01", "2026-11-01")
	a := f.add(t, route.ID, f.dests[0], 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.AddStop(ctx, owner, route.ID, models.AddStopRequest{DestinationID: f.dests[0], DayNumber: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, f.svc.RemoveStop(ctx, owner, route.ID, a), context.Canceled)

	assert.Equal(t, []int64{a}, f.day(t, route.ID, 1))
}

func TestInclusiveDays(t *testing.T) {
	day := func(v string) time.Time {
		d, err := parseDate("date", v)
		require.NoError(t, err)
		return d
	}
	assert.Equal(t, 1, inclusiveDays(day("2026-11-01"), day("2026-11-01")))
	assert.Equal(t, 4, inclusiveDays(day("2026-11-01"), day("2026-11-04")))
	assert.Equal(t, 366, inclusiveDays(day("2028-01-01"), day("2028-12-31")))
	// Spans beyond what time.Duration can hold.
	assert.Equal(t, 3652059, inclusiveDays(day("0001-01-01"), day("9999-12-31")))
}

func TestVersionCheckedMutation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	route := f.newRoute(t, "2026-11-01", "2026-11-02")

	check := &VersionCheck{Expected: route.Version}
	_, err := f.svc.AddDay(WithVersionCheck(ctx, check), owner, route.ID)
	require.NoError(t, err)
	assert.Equal(t, route.Version+1, check.Committed)

	stale := &VersionCheck{Expected: route.Version}
	name := "late edit"
	_, err = f.svc.UpdateRoute(WithVersionCheck(ctx, stale), owner, route.ID, models.UpdateRouteRequest{Name: &name})
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Zero(t, stale.Committed)

	detail, err := f.svc.GetRoute(ctx, owner, route.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", detail.Name)
	assert.Equal(t, 3, detail.DayCount)
}
