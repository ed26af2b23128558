package itinerary

import "trip-planner/internal/models"

// highestDay returns the largest day number used by any stop, or 0.
func highestDay(stops []*models.Stop) int {
	highest := 0
	for _, st := range stops {
		if st.DayNumber > highest {
			highest = st.DayNumber
		}
	}
	return highest
}

// dayCount is the number of days a route currently spans: the stored count, or more
// if stops were placed on later days.
func dayCount(route *models.Route, stops []*models.Stop) int {
	return max(route.DayCount, highestDay(stops))
}

// removeDay splits the stops of a whole route into those on dayNumber, which are
// to be deleted, and those on later days, which are moved one day earlier.
// Order-in-day is untouched, so every surviving day stays dense.
func removeDay(stops []*models.Stop, dayNumber int) (deleted, shifted []*models.Stop) {
	for _, st := range stops {
		switch {
		case st.DayNumber == dayNumber:
			deleted = append(deleted, st)
		case st.DayNumber > dayNumber:
			st.DayNumber--
			shifted = append(shifted, st)
		}
	}
	return deleted, shifted
}

// groupByDay returns the stops of a route keyed by day number, each day sorted.
func groupByDay(stops []*models.Stop) map[int][]*models.Stop {
	days := make(map[int][]*models.Stop)
	for _, st := range stops {
		days[st.DayNumber] = append(days[st.DayNumber], st)
	}
	for _, day := range days {
		sortDay(day)
	}
	return days
}
