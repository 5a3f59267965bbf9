package part

// Connector is a named directional socket on a part template. Its axis tag
// decides snap compatibility; its local position decides the snap transform.
// A connector never outlives its owning template or placed part: ownership
// is expressed as an index held by the owner, not a back-pointer.
type Connector struct {
	Name  string  `json:"name,omitempty"`
	Axis  AxisTag `json:"axis"`
	Local Vec3    `json:"local"`
}

// WorldPosition resolves the connector's position under the owner's
// world transform.
func (c Connector) WorldPosition(t Transform) Vec3 {
	return t.Apply(c.Local)
}
