package placement

import (
	"math"

	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/scene"
)

// Snap is a resolved connector alignment.
type Snap struct {
	// Origin is the preview origin that makes the chosen connector pair
	// coincide in world space. Orientation is held at identity.
	Origin part.Vec3

	// Target is the placed part being connected to.
	Target *scene.PlacedPart

	// Distance is the gating distance from the target connector to the hit
	// point, for diagnostics.
	Distance float64
}

// ResolveSnap finds the best connector-pair snap for the current hit
// point, if any. Candidate connectors are gated by distance to the hit
// point; among compatible pairs that pass the gate, the smallest gating
// distance wins, with exact ties resolved in first-found order. The
// function is pure: same inputs, same result.
func ResolveSnap(hit part.Vec3, previewConnectors []part.Connector, candidates []*scene.PlacedPart, activation float64) (Snap, bool) {
	if len(previewConnectors) == 0 {
		return Snap{}, false
	}

	gateSq := activation * activation
	bestSq := math.Inf(1)
	var best Snap
	found := false

	for _, cand := range candidates {
		for _, cc := range cand.Template.Connectors {
			world := cc.WorldPosition(cand.At)
			dSq := world.Sub(hit).LengthSq()
			if dSq >= gateSq || dSq >= bestSq {
				continue
			}
			for _, pc := range previewConnectors {
				if !part.Compatible(pc.Axis, cc.Axis) {
					continue
				}
				best = Snap{
					Origin:   world.Sub(pc.Local),
					Target:   cand,
					Distance: math.Sqrt(dSq),
				}
				bestSq = dSq
				found = true
				break
			}
		}
	}

	return best, found
}
