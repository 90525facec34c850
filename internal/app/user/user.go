/*
Package user contains the wire records describing a connected participant.

The presence registry owns the mutable user state; these records are the immutable
snapshots it hands to the broadcast protocol and to the HTTP layer.
*/
package user

// DefaultState is the behavioral state of a freshly registered user.
const DefaultState = "idle"

// Vec3 is a float triple used for both position and orientation.
// For orientation X is roll, Y is yaw and Z is pitch.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Record is one entry of the user list broadcast to every client.
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar int    `json:"avatar"`

	// World is 0 until the user enters a world.
	World int `json:"world"`

	State   string  `json:"state"`
	Gesture *string `json:"gesture"`

	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// PosData is the payload of a pos event, in both directions.
type PosData struct {
	Pos     Vec3    `json:"pos"`
	Ori     Vec3    `json:"ori"`
	State   string  `json:"state"`
	Gesture *string `json:"gesture"`
}
