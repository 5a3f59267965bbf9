// Package placement implements the interactive placement pipeline: ray
// targeting, proximity gathering, connector snap resolution, overlap
// validation, and the session state machine that ties them together once
// per tick.
package placement
