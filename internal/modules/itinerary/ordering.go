package itinerary

import (
	"fmt"
	"sort"

	"trip-planner/internal/models"
)

// The functions in this file maintain the order-in-day values of one (route, day).
// They work on stops already loaded from the store, mutate OrderInDay in place and
// return the stops whose stored values must be written back. Each one either leaves
// the day dense ({1..N}, no gaps, no duplicates) or returns an error without
// touching anything.

// sortDay orders stops by OrderInDay, then by id.
func sortDay(day []*models.Stop) {
	sort.SliceStable(day, func(i, j int) bool {
		if day[i].OrderInDay != day[j].OrderInDay {
			return day[i].OrderInDay < day[j].OrderInDay
		}
		return day[i].ID < day[j].ID
	})
}

// appendPosition is the order-in-day given to a stop added without an explicit position.
func appendPosition(day []*models.Stop) int {
	highest := 0
	for _, st := range day {
		if st.OrderInDay > highest {
			highest = st.OrderInDay
		}
	}
	return highest + 1
}

// insertAt opens position p in day and assigns it to stop. stop must not be part of day.
func insertAt(day []*models.Stop, stop *models.Stop, p int) ([]*models.Stop, error) {
	if p < 1 || p > len(day)+1 {
		return nil, models.InvalidArgument("order_in_day %d is out of range [1, %d] for day %d", p, len(day)+1, stop.DayNumber)
	}
	var shifted []*models.Stop
	for _, st := range day {
		if st.ID != stop.ID && st.OrderInDay >= p {
			st.OrderInDay++
			shifted = append(shifted, st)
		}
	}
	stop.OrderInDay = p
	return shifted, nil
}

// removeFrom closes the gap left by stop. day may or may not contain stop itself.
func removeFrom(day []*models.Stop, stop *models.Stop) []*models.Stop {
	var shifted []*models.Stop
	for _, st := range day {
		if st.ID != stop.ID && st.OrderInDay > stop.OrderInDay {
			st.OrderInDay--
			shifted = append(shifted, st)
		}
	}
	return shifted
}

// moveWithin moves stop, which belongs to day, to position n of the same day.
func moveWithin(day []*models.Stop, stop *models.Stop, n int) ([]*models.Stop, error) {
	if n < 1 || n > len(day) {
		return nil, models.InvalidArgument("order_in_day %d is out of range [1, %d] for day %d", n, len(day), stop.DayNumber)
	}
	o := stop.OrderInDay
	var shifted []*models.Stop
	for _, st := range day {
		if st.ID == stop.ID {
			continue
		}
		switch {
		case n < o && st.OrderInDay >= n && st.OrderInDay < o:
			st.OrderInDay++
			shifted = append(shifted, st)
		case n > o && st.OrderInDay > o && st.OrderInDay <= n:
			st.OrderInDay--
			shifted = append(shifted, st)
		}
	}
	stop.OrderInDay = n
	return shifted, nil
}

// reorder assigns order-in-day by position in ids. ids must be exactly a permutation
// of the ids of day; otherwise nothing is changed.
func reorder(day []*models.Stop, ids []int64) ([]*models.Stop, error) {
	if len(ids) != len(day) {
		return nil, models.InvalidArgument("reorder lists %d stops but day has %d", len(ids), len(day))
	}
	byID := make(map[int64]*models.Stop, len(day))
	for _, st := range day {
		byID[st.ID] = st
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, models.InvalidArgument("stop %d is not part of this day", id)
		}
		if _, dup := seen[id]; dup {
			return nil, models.InvalidArgument("stop %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	var changed []*models.Stop
	for i, id := range ids {
		st := byID[id]
		if st.OrderInDay != i+1 {
			st.OrderInDay = i + 1
			changed = append(changed, st)
		}
	}
	return changed, nil
}

// densityError reports a day whose stored order-in-day values are not {1..N}.
type densityError struct {
	routeID   int64
	dayNumber int
	orders    []int
}

func (e *densityError) Error() string {
	return fmt.Sprintf("route %d day %d has non-dense order %v", e.routeID, e.dayNumber, e.orders)
}

// checkDense verifies that the order-in-day values of day are exactly {1..N}.
func checkDense(routeID int64, dayNumber int, day []*models.Stop) error {
	orders := make([]int, len(day))
	for i, st := range day {
		orders[i] = st.OrderInDay
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return &densityError{routeID: routeID, dayNumber: dayNumber, orders: orders}
		}
	}
	return nil
}
