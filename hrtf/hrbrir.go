package hrtf

import (
	"math"

	"github.com/grupodiana/brt"
	"github.com/grupodiana/brt/geom"
)

// HRBRIRTable is the Hybrid-Room-BRIR nearest-neighbour table of spec.md
// §4.11's "Environment BRIR listener": a per-listener-position Service,
// looked up by nearest stored position rather than interpolated. This is a
// supplemented feature grounded on
// original_source/include/ListenerModels/ListenerEnvironmentBRIRModel.hpp,
// which queries a room-position-keyed HRBRIR set instead of a single
// far-field HRTF.
type HRBRIRTable struct {
	positions []geom.Vector3
	services  []*Service
}

// NewHRBRIRTable builds an empty table; entries are added with Add before
// first use (there is no Builder/Service split here since the table's
// payload is itself a set of already-built Services, not raw measurements).
func NewHRBRIRTable() *HRBRIRTable {
	return &HRBRIRTable{}
}

// Add registers the Service to use when the listener is nearest to
// position.
func (t *HRBRIRTable) Add(position geom.Vector3, svc *Service) {
	t.positions = append(t.positions, position)
	t.services = append(t.services, svc)
}

// Nearest returns the Service registered at the position closest to
// listenerPosition.
func (t *HRBRIRTable) Nearest(listenerPosition geom.Vector3) (*Service, error) {
	if len(t.services) == 0 {
		return nil, brt.NewCondition(brt.KindNotSet, "hrtf.HRBRIRTable.Nearest", nil)
	}
	best := 0
	bestDist := math.Inf(1)
	for i, p := range t.positions {
		d := p.Sub(listenerPosition).SqrDistance()
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return t.services[best], nil
}
