package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"greeting-metrics-backend/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestDetectTransition(t *testing.T) {
	testCases := []struct {
		name         string
		kind         model.ZoneKind
		prev         *bool
		occupied     bool
		expectedKind model.EventKind
		expected     bool
	}{
		{
			name:     "first observation of a seat zone records state only",
			kind:     model.ZoneKindSeat,
			prev:     nil,
			occupied: true,
			expected: false,
		},
		{
			name:     "first observation of an approach zone records state only",
			kind:     model.ZoneKindApproach,
			prev:     nil,
			occupied: false,
			expected: false,
		},
		{
			name:     "steady occupied seat produces no transition",
			kind:     model.ZoneKindSeat,
			prev:     boolPtr(true),
			occupied: true,
			expected: false,
		},
		{
			name:     "steady empty seat produces no transition",
			kind:     model.ZoneKindSeat,
			prev:     boolPtr(false),
			occupied: false,
			expected: false,
		},
		{
			name:         "seat empty to occupied",
			kind:         model.ZoneKindSeat,
			prev:         boolPtr(false),
			occupied:     true,
			expectedKind: model.EventSeatOccupied,
			expected:     true,
		},
		{
			name:         "seat occupied to empty",
			kind:         model.ZoneKindSeat,
			prev:         boolPtr(true),
			occupied:     false,
			expectedKind: model.EventSeatVacated,
			expected:     true,
		},
		{
			name:         "approach empty to occupied",
			kind:         model.ZoneKindApproach,
			prev:         boolPtr(false),
			occupied:     true,
			expectedKind: model.EventApproachStaffPresent,
			expected:     true,
		},
		{
			name:         "approach occupied to empty",
			kind:         model.ZoneKindApproach,
			prev:         boolPtr(true),
			occupied:     false,
			expectedKind: model.EventApproachCleared,
			expected:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kind, transitioned := DetectTransition(tc.kind, tc.prev, tc.occupied)
			assert.Equal(t, tc.expected, transitioned)
			if tc.expected {
				assert.Equal(t, tc.expectedKind, kind)
			}
		})
	}
}
