package itinerary

import (
	"math"

	"trip-planner/internal/models"
	"trip-planner/pkg/geo"
)

// nearestNeighborOrder resequences the stops of one day with a greedy
// nearest-neighbour tour and returns the stop ids in visiting order.
//
// The stop currently at position 1 stays first. From there the closest unvisited
// stop (great-circle distance, see geo.HaversineMeters) is appended until none
// remain. When two candidates are equally close, the one earlier in the current
// order wins, so the result is deterministic.
//
// This is a heuristic: it is not an optimal TSP solution and may be locally
// suboptimal. It also ignores road networks and travel times.
//
// Every stop must have a resolved destination with coordinates. day must be
// sorted by order-in-day.
func nearestNeighborOrder(day []*models.Stop) ([]int64, error) {
	ids := make([]int64, 0, len(day))
	if len(day) <= 1 {
		for _, st := range day {
			ids = append(ids, st.ID)
		}
		return ids, nil
	}

	points := make([]geo.Point, len(day))
	for i, st := range day {
		if !st.Destination.HasCoordinates() {
			return nil, models.InvalidArgument("stop %d has no coordinates; every stop needs coordinates to optimize the day", st.ID)
		}
		points[i] = geo.Point{Lat: *st.Destination.Latitude, Lng: *st.Destination.Longitude}
		if !points[i].IsValid() {
			return nil, models.InvalidArgument("stop %d has invalid coordinates", st.ID)
		}
	}

	visited := make([]bool, len(day))
	current := 0
	visited[0] = true
	ids = append(ids, day[0].ID)

	for len(ids) < len(day) {
		next := -1
		best := math.Inf(1)
		for j := range day {
			if visited[j] {
				continue
			}
			// Strict comparison keeps the earliest candidate on ties.
			if d := geo.HaversineMeters(points[current], points[j]); d < best {
				best = d
				next = j
			}
		}
		visited[next] = true
		ids = append(ids, day[next].ID)
		current = next
	}
	return ids, nil
}

// pathLengthMeters sums the great-circle legs between consecutive stops.
// Stops without coordinates are skipped.
func pathLengthMeters(day []*models.Stop) float64 {
	var total float64
	var prev *geo.Point
	for _, st := range day {
		if !st.Destination.HasCoordinates() {
			continue
		}
		p := geo.Point{Lat: *st.Destination.Latitude, Lng: *st.Destination.Longitude}
		if prev != nil {
			total += geo.HaversineMeters(*prev, p)
		}
		prev = &p
	}
	return total
}
