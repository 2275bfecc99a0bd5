// Package builder holds the state of a route while an operator draws it:
// the ordered stops, their graph vertices, the routed segment between every
// adjacent pair and the concatenated route line.
package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"transit_admin/internal/geo"
	"transit_admin/internal/models"
	"transit_admin/internal/routing"
)

// Stop is a waypoint placed by the operator. Index is 1-based and always
// equals the stop's position in the sequence.
type Stop struct {
	ID       string       `json:"id"`
	Location geo.Location `json:"location"`
	Index    int          `json:"index"`
	Name     string       `json:"name,omitempty"`
}

// Segment is the routed path between two consecutive stops.
type Segment struct {
	Weight   float64        `json:"weight"`
	Geometry geo.LineString `json:"geometry"`
}

// entry keeps a stop and its vertex in one record so the two can't drift apart.
type entry struct {
	stop   Stop
	vertex models.Vertex
}

type slotState int

const (
	slotMissing slotState = iota
	slotPending
	slotRouted
)

// slot is the segment position between entries[i] and entries[i+1].
// from/to record the stop ids the slot was requested for.
type slot struct {
	state   slotState
	from    string
	to      string
	segment Segment
}

// pairJob is one routing request, tagged with the epoch it was issued in.
type pairJob struct {
	index int
	from  Stop
	to    Stop
	epoch uint64
}

// PairError reports a routing failure for one adjacent pair.
type PairError struct {
	From string
	To   string
	Err  error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("route %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }

// Outcome describes the routing work a mutation triggered.
type Outcome struct {
	Requested int
	Routed    int
	Failures  []*PairError
	// Stale is set when results were dropped because the stops changed meanwhile.
	Stale bool
}

// Err joins the per-pair failures, or returns nil.
func (o Outcome) Err() error {
	if len(o.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(o.Failures))
	for i, f := range o.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	SessionID       string          `json:"session_id"`
	Version         uint64          `json:"version"`
	Stops           []Stop          `json:"stops"`
	Vertices        []models.Vertex `json:"vertices"`
	Segments        []Segment       `json:"segments"`
	Route           *geo.LineString `json:"route"`
	RouteTypeID     *uint           `json:"route_type_id"`
	PendingSegments int             `json:"pending_segments"`
	MissingSegments int             `json:"missing_segments"`
	CanSubmit       bool            `json:"can_submit"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger; the session id is added as a field.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithIDGenerator replaces the uuid stop id generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Session) { s.newID = next }
}

// WithOnChange registers a callback run after every state change, outside the lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is the route-build state of one operator drawing one route.
// All methods are safe for concurrent use. Router calls are made outside the
// lock by the goroutine that triggered them; their results are applied only if
// the adjacency they were requested for still exists.
type Session struct {
	id       string
	router   routing.Router
	log      logrus.FieldLogger
	newID    func() string
	onChange func(Snapshot)

	mu          sync.Mutex
	entries     []entry
	slots       []slot
	routeTypeID *uint
	// epoch changes whenever existing adjacencies are invalidated (delete, clear).
	// Appends keep it, so in-flight requests for earlier pairs stay valid.
	epoch   uint64
	version uint64
}

// NewSession creates an empty session routed by router.
func NewSession(router routing.Router, opts ...Option) *Session {
	s := &Session{
		router: router,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("session_id", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// AddStop appends a stop at the vertex location and routes the new last pair.
// A routing failure leaves the stop in place without a segment; it is reported
// in the Outcome, never as a reason to undo the stop.
func (s *Session) AddStop(ctx context.Context, v models.Vertex) (Stop, Outcome) {
	s.mu.Lock()
	stop := Stop{
		ID:       s.newID(),
		Location: geo.Location{Longitude: v.Longitude, Latitude: v.Latitude},
		Index:    len(s.entries) + 1,
	}
	s.entries = append(s.entries, entry{stop: stop, vertex: v})

	var job *pairJob
	if n := len(s.entries); n >= 2 {
		prev := s.entries[n-2].stop
		s.slots = append(s.slots, slot{state: slotPending, from: prev.ID, to: stop.ID})
		job = &pairJob{index: n - 2, from: prev, to: stop, epoch: s.epoch}
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)

	s.log.WithFields(logrus.Fields{
		"stop_id": stop.ID,
		"index":   stop.Index,
		"vertex":  v.ID,
	}).Debug("Stop added")

	var out Outcome
	if job != nil {
		out.Requested = 1
		s.runPair(ctx, *job, &out)
	}
	return stop, out
}

// DeleteStop removes the stop and its vertex, re-indexes the rest and rebuilds
// every segment from scratch, one pair at a time. Pairs that fail are skipped.
// It returns false, and does nothing, if the id is unknown.
func (s *Session) DeleteStop(ctx context.Context, id string) (Outcome, bool) {
	s.mu.Lock()
	pos := s.positionLocked(id)
	if pos < 0 {
		s.mu.Unlock()
		s.log.WithField("stop_id", id).Warn("Stop not found for deletion")
		return Outcome{}, false
	}

	s.entries = slices.Delete(s.entries, pos, pos+1)
	for i := range s.entries {
		s.entries[i].stop.Index = i + 1
	}
	s.epoch++
	jobs := s.resetSlotsLocked()
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)

	s.log.WithFields(logrus.Fields{
		"stop_id":   id,
		"remaining": len(snap.Stops),
		"pairs":     len(jobs),
	}).Debug("Stop deleted, rebuilding segments")

	var out Outcome
	for _, job := range jobs {
		if !s.isCurrent(job) {
			out.Stale = true
			break
		}
		out.Requested++
		if !s.runPair(ctx, job, &out) {
			break
		}
	}
	return out, true
}

// RenameStop sets the stop's name. It returns false if the id is unknown.
func (s *Session) RenameStop(id, name string) bool {
	s.mu.Lock()
	pos := s.positionLocked(id)
	if pos < 0 {
		s.mu.Unlock()
		s.log.WithField("stop_id", id).Warn("Stop not found for rename")
		return false
	}
	if s.entries[pos].stop.Name == name {
		s.mu.Unlock()
		return true
	}
	s.entries[pos].stop.Name = name
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	return true
}

// ClearAll drops every stop, vertex, segment and the route type selection.
// Pending routing results from before the clear are discarded.
func (s *Session) ClearAll() {
	s.mu.Lock()
	s.entries = nil
	s.slots = nil
	s.routeTypeID = nil
	s.epoch++
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	s.log.Debug("Session cleared")
}

// ClearIfVersion clears the session only if nothing changed since version v.
// It reports whether the clear happened.
func (s *Session) ClearIfVersion(v uint64) bool {
	s.mu.Lock()
	if s.version != v {
		s.mu.Unlock()
		return false
	}
	s.entries = nil
	s.slots = nil
	s.routeTypeID = nil
	s.epoch++
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
	s.log.Debug("Session cleared after submission")
	return true
}

// SelectRouteType records the catalog id the route will be submitted under.
func (s *Session) SelectRouteType(id uint) {
	s.mu.Lock()
	s.routeTypeID = &id
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ClearRouteTypeSelection forgets the selected route type.
func (s *Session) ClearRouteTypeSelection() {
	s.mu.Lock()
	s.routeTypeID = nil
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// runPair routes one pair and applies the result if the pair is still current.
// It returns false when the result was discarded as stale.
func (s *Session) runPair(ctx context.Context, job pairJob, out *Outcome) bool {
	fields := logrus.Fields{"pair": job.index, "from": job.from.ID, "to": job.to.ID}

	// Detached from the caller: the epoch decides staleness, the router's timeout bounds the call.
	route, err := s.router.Route(context.WithoutCancel(ctx), []geo.Location{job.from.Location, job.to.Location})

	s.mu.Lock()
	if !s.isCurrentLocked(job) {
		s.mu.Unlock()
		out.Stale = true
		s.log.WithFields(fields).Debug("Discarding stale segment result")
		return false
	}

	sl := &s.slots[job.index]
	if err != nil {
		sl.state = slotMissing
		out.Failures = append(out.Failures, &PairError{From: job.from.ID, To: job.to.ID, Err: err})
	} else {
		sl.state = slotRouted
		sl.segment = Segment{
			Weight:   route.Weight,
			Geometry: geo.NewLineString(route.Geometry.Coordinates),
		}
		out.Routed++
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err != nil {
		s.log.WithError(err).WithFields(fields).Warn("Segment routing failed; leaving a gap")
	}
	return true
}

func (s *Session) isCurrent(job pairJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCurrentLocked(job)
}

func (s *Session) isCurrentLocked(job pairJob) bool {
	if job.epoch != s.epoch || job.index >= len(s.slots) {
		return false
	}
	sl := s.slots[job.index]
	return sl.from == job.from.ID && sl.to == job.to.ID
}

// resetSlotsLocked marks every adjacent pair pending and returns their jobs in order.
func (s *Session) resetSlotsLocked() []pairJob {
	n := len(s.entries)
	if n < 2 {
		s.slots = nil
		return nil
	}
	s.slots = make([]slot, n-1)
	jobs := make([]pairJob, n-1)
	for i := 0; i < n-1; i++ {
		from, to := s.entries[i].stop, s.entries[i+1].stop
		s.slots[i] = slot{state: slotPending, from: from.ID, to: to.ID}
		jobs[i] = pairJob{index: i, from: from, to: to, epoch: s.epoch}
	}
	return jobs
}

func (s *Session) positionLocked(id string) int {
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.stop.ID == id })
}

func (s *Session) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Version:   s.version,
		Stops:     make([]Stop, len(s.entries)),
		Vertices:  make([]models.Vertex, len(s.entries)),
		Segments:  make([]Segment, 0, len(s.slots)),
	}
	for i, e := range s.entries {
		snap.Stops[i] = e.stop
		snap.Vertices[i] = e.vertex
	}

	var lines []geo.LineString
	for _, sl := range s.slots {
		switch sl.state {
		case slotRouted:
			snap.Segments = append(snap.Segments, sl.segment)
			lines = append(lines, sl.segment.Geometry)
		case slotPending:
			snap.PendingSegments++
		default:
			snap.MissingSegments++
		}
	}
	if len(s.entries) >= 2 && len(lines) > 0 {
		route := geo.Concat(lines)
		snap.Route = &route
	}
	if s.routeTypeID != nil {
		id := *s.routeTypeID
		snap.RouteTypeID = &id
	}
	snap.CanSubmit = len(s.entries) > 0 && s.routeTypeID != nil
	return snap
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
