package engine

import "greeting-metrics-backend/internal/model"

// DetectTransition derives the event kind for a zone occupancy change.
// prev is nil on the first observation of a zone, which never yields a
// transition; only the state itself gets recorded. The second return value
// reports whether a transition occurred.
func DetectTransition(kind model.ZoneKind, prev *bool, occupied bool) (model.EventKind, bool) {
	if prev == nil || *prev == occupied {
		return "", false
	}

	switch kind {
	case model.ZoneKindSeat:
		if occupied {
			return model.EventSeatOccupied, true
		}
		return model.EventSeatVacated, true
	case model.ZoneKindApproach:
		if occupied {
			return model.EventApproachStaffPresent, true
		}
		return model.EventApproachCleared, true
	}
	return "", false
}
