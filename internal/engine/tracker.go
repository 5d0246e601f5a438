package engine

import (
	"sync"
	"time"
)

// ZoneState is the last observed occupancy of one zone. It lives only for
// the lifetime of the process; after a restart the first poll re-seeds it.
type ZoneState struct {
	Occupied    bool
	PersonCount int
	ObservedAt  time.Time
}

type stateKey struct {
	cameraID int64
	zoneID   int64
}

// ZoneStateTracker holds per-(camera, zone) occupancy state. Each key is
// only ever written by the goroutine driving that camera's poll loop, so a
// single RWMutex over the map is enough.
type ZoneStateTracker struct {
	mu     sync.RWMutex
	states map[stateKey]ZoneState
}

// NewZoneStateTracker creates an empty tracker.
func NewZoneStateTracker() *ZoneStateTracker {
	return &ZoneStateTracker{
		states: make(map[stateKey]ZoneState),
	}
}

// Get returns the last recorded state for a zone, if any.
func (t *ZoneStateTracker) Get(cameraID, zoneID int64) (ZoneState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.states[stateKey{cameraID: cameraID, zoneID: zoneID}]
	return state, ok
}

// Set overwrites the state for a zone.
func (t *ZoneStateTracker) Set(cameraID, zoneID int64, state ZoneState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[stateKey{cameraID: cameraID, zoneID: zoneID}] = state
}
