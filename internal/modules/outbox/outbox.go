// Package outbox queues itinerary edits made while offline and replays them
// against the itinerary service once it is reachable again.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trip-planner/internal/models"
	"trip-planner/internal/modules/itinerary"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// OpKind names the itinerary operation an Operation replays.
type OpKind string

const (
	OpUpdateRoute OpKind = "update_route"
	OpAddStop     OpKind = "add_stop"
	OpUpdateStop  OpKind = "update_stop"
	OpRemoveStop  OpKind = "remove_stop"
	OpReorderDay  OpKind = "reorder_day"
	OpOptimizeDay OpKind = "optimize_day"
	OpAddDay      OpKind = "add_day"
	OpRemoveDay   OpKind = "remove_day"
)

// Operation is one queued edit. Only the fields its Kind needs are set.
//
// BaseVersion is the route version the client last read from the server. When it is
// set, replay refuses the edit with a Conflict if the route moved on in the meantime.
type Operation struct {
	ID           uuid.UUID                  `json:"id"`
	LocalVersion int64                      `json:"local_version"`
	Kind         OpKind                     `json:"kind"`
	RouteID      int64                      `json:"route_id"`
	BaseVersion  int64                      `json:"base_version,omitempty"`
	StopID       int64                      `json:"stop_id,omitempty"`
	DayNumber    int                        `json:"day_number,omitempty"`
	StopIDs      []int64                    `json:"stop_ids,omitempty"`
	UpdateRoute  *models.UpdateRouteRequest `json:"update_route,omitempty"`
	AddStop      *models.AddStopRequest     `json:"add_stop,omitempty"`
	UpdateStop   *models.UpdateStopRequest  `json:"update_stop,omitempty"`
	QueuedAt     time.Time                  `json:"queued_at"`
}

// Target is the part of the itinerary service an outbox replays against.
// Mutations honour the itinerary.VersionCheck carried by their context.
type Target interface {
	UpdateRoute(ctx context.Context, userID string, routeID int64, req models.UpdateRouteRequest) (*models.Route, error)
	AddStop(ctx context.Context, userID string, routeID int64, req models.AddStopRequest) (*models.Stop, error)
	UpdateStop(ctx context.Context, userID string, stopID int64, req models.UpdateStopRequest) (*models.Stop, error)
	RemoveStop(ctx context.Context, userID string, routeID, stopID int64) error
	ReorderDay(ctx context.Context, userID string, routeID int64, dayNumber int, stopIDs []int64) error
	OptimizeDay(ctx context.Context, userID string, routeID int64, dayNumber int) (*models.RouteDay, error)
	AddDay(ctx context.Context, userID string, routeID int64) (*models.AddDayResponse, error)
	RemoveDay(ctx context.Context, userID string, routeID int64, dayNumber int) error
}

// Rejection is an operation the server refused for good; it was dropped from the queue.
type Rejection struct {
	Op  Operation
	Err error
}

// ReplayResult reports what one Replay did.
type ReplayResult struct {
	Applied  []Operation
	Rejected []Rejection
	// Conflict is the operation replay stopped at. It is still queued.
	Conflict    *Operation
	ConflictErr error
}

// Outbox is the local queue of one user's pending edits.
type Outbox struct {
	userID string

	mu      sync.Mutex
	version int64
	pending []Operation

	// replaying keeps two replays from applying the same operation twice.
	replaying sync.Mutex

	now    func() time.Time
	logger *log.Logger
}

// New creates an empty outbox for userID.
func New(userID string) *Outbox {
	return &Outbox{userID: userID, now: time.Now, logger: log.New("outbox")}
}

func validate(op Operation) error {
	if op.RouteID <= 0 && (op.Kind != OpUpdateStop || op.BaseVersion != 0) {
		return models.InvalidArgument("route_id must be positive")
	}
	if op.BaseVersion < 0 {
		return models.InvalidArgument("base_version must not be negative")
	}
	switch op.Kind {
	case OpUpdateRoute:
		if op.UpdateRoute == nil {
			return models.InvalidArgument("%s needs update_route", op.Kind)
		}
	case OpAddStop:
		if op.AddStop == nil {
			return models.InvalidArgument("%s needs add_stop", op.Kind)
		}
	case OpUpdateStop:
		if op.UpdateStop == nil || op.StopID <= 0 {
			return models.InvalidArgument("%s needs stop_id and update_stop", op.Kind)
		}
	case OpRemoveStop:
		if op.StopID <= 0 {
			return models.InvalidArgument("%s needs stop_id", op.Kind)
		}
	case OpReorderDay, OpOptimizeDay, OpRemoveDay:
		if op.DayNumber <= 0 {
			return models.InvalidArgument("%s needs a positive day_number", op.Kind)
		}
	case OpAddDay:
	default:
		return models.InvalidArgument("unknown operation kind %q", op.Kind)
	}
	return nil
}

// Enqueue adds op to the end of the queue, assigning its id and the next local version.
func (o *Outbox) Enqueue(op Operation) (Operation, error) {
	if err := validate(op); err != nil {
		return Operation{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.version++
	op.ID = uuid.New()
	op.LocalVersion = o.version
	op.QueuedAt = o.now().UTC()
	o.pending = append(o.pending, op)
	return op, nil
}

// Pending returns a copy of the queued operations in local version order.
func (o *Outbox) Pending() []Operation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Operation(nil), o.pending...)
}

// Len is the number of queued operations.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Version is the local version of the most recently queued operation.
func (o *Outbox) Version() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

// Discard drops a queued operation, typically one the user gave up on after a conflict.
func (o *Outbox) Discard(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, op := range o.pending {
		if op.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Replay applies the queued operations to target in local version order.
//
// Operations queued on the same base version of a route form a chain: once the first
// one is applied, the rest are checked against the version it produced, so edits made
// elsewhere in between still surface as a conflict. Applied operations leave the queue. Operations refused as not found or invalid are
// dropped and reported as rejected. Replay stops at the first conflict and leaves that
// operation and everything after it queued. Any other failure also stops the replay,
// is returned as the error, and keeps the failed operation queued.
func (o *Outbox) Replay(ctx context.Context, target Target) (*ReplayResult, error) {
	o.replaying.Lock()
	defer o.replaying.Unlock()

	result := &ReplayResult{}
	chains := make(map[int64]rebase)
	for _, op := range o.Pending() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		check := &itinerary.VersionCheck{Expected: op.BaseVersion}
		chain, chained := chains[op.RouteID]
		if chained && op.BaseVersion != 0 && op.BaseVersion == chain.from {
			check.Expected = chain.to
		}

		err := o.apply(itinerary.WithVersionCheck(ctx, check), target, op)
		switch {
		case err == nil:
			o.Discard(op.ID)
			result.Applied = append(result.Applied, op)
			if op.BaseVersion != 0 && check.Committed != 0 {
				chains[op.RouteID] = rebase{from: op.BaseVersion, to: check.Committed}
			}
		case errors.Is(err, models.ErrConflict):
			o.logger.Warnf("replay of %s v%d stopped on conflict: %v", op.Kind, op.LocalVersion, err)
			conflicted := op
			result.Conflict = &conflicted
			result.ConflictErr = err
			return result, nil
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidArgument):
			o.logger.Infof("dropping %s v%d rejected by server: %v", op.Kind, op.LocalVersion, err)
			o.Discard(op.ID)
			result.Rejected = append(result.Rejected, Rejection{Op: op, Err: err})
		default:
			return result, fmt.Errorf("outbox.Replay %s v%d: %w", op.Kind, op.LocalVersion, err)
		}
	}
	return result, nil
}

// rebase maps the base version the client queued against to the version the
// server reached after replaying the operations of that chain so far.
type rebase struct {
	from, to int64
}

func (o *Outbox) apply(ctx context.Context, target Target, op Operation) error {
	var err error
	switch op.Kind {
	case OpUpdateRoute:
		_, err = target.UpdateRoute(ctx, o.userID, op.RouteID, *op.UpdateRoute)
	case OpAddStop:
		_, err = target.AddStop(ctx, o.userID, op.RouteID, *op.AddStop)
	case OpUpdateStop:
		_, err = target.UpdateStop(ctx, o.userID, op.StopID, *op.UpdateStop)
	case OpRemoveStop:
		err = target.RemoveStop(ctx, o.userID, op.RouteID, op.StopID)
	case OpReorderDay:
		err = target.ReorderDay(ctx, o.userID, op.RouteID, op.DayNumber, op.StopIDs)
	case OpOptimizeDay:
		_, err = target.OptimizeDay(ctx, o.userID, op.RouteID, op.DayNumber)
	case OpAddDay:
		_, err = target.AddDay(ctx, o.userID, op.RouteID)
	case OpRemoveDay:
		err = target.RemoveDay(ctx, o.userID, op.RouteID, op.DayNumber)
	default:
		err = models.InvalidArgument("unknown operation kind %q", op.Kind)
	}
	return err
}
