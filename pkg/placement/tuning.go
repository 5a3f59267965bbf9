package placement

// Tuning holds the interaction distances of the placement pipeline. The
// surface offsets are empirical values that keep a freshly placed part
// from sitting coincident with the surface it was placed against; they are
// configuration, not invariants.
type Tuning struct {
	// ActivationDistance is the maximum distance from the ray hit point to
	// a connector for that connector to be eligible for snapping.
	ActivationDistance float64

	// ProximityRadius is the broader radius used to gather candidate parts
	// before the activation gate is applied. It must be at least the
	// activation distance or eligible connectors near the edge of the
	// sphere would be missed.
	ProximityRadius float64

	// SnapSurfaceOffset is applied along the hit normal to snapped
	// placements.
	SnapSurfaceOffset float64

	// FreeSurfaceOffset is applied along the hit normal to free (unsnapped)
	// placements.
	FreeSurfaceOffset float64

	// MaxRayDistance bounds the targeting ray.
	MaxRayDistance float64
}

// DefaultTuning returns the stock interaction distances.
func DefaultTuning() Tuning {
	return Tuning{
		ActivationDistance: 0.5,
		ProximityRadius:    1.5,
		SnapSurfaceOffset:  0.005,
		FreeSurfaceOffset:  0.01,
		MaxRayDistance:     100,
	}
}
