package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownLabel is returned when a projection label is not one of the six
// canonical axis pairs.
var ErrUnknownLabel = errors.New("geom: unknown projection label")

// Handedness is the sign convention linking increasing distance along the
// integration axis to the orientation of the image plane.
type Handedness int

const (
	LeftHanded  Handedness = -1
	RightHanded Handedness = +1
)

// Attitude describes the orientation of an image plane. It is either one of
// the canonical labels (in which case Hand is fixed) or a set of explicit
// yaw/pitch/roll angles whose handedness is taken from the integration
// bounds.
type Attitude struct {
	Yaw, Pitch, Roll float64
	Hand             Handedness
	Label            string
}

type labelAngles struct {
	yaw, pitch, roll float64
	hand             Handedness
}

// These encode a specific axis-permutation convention and must not be
// derived from anything.
var projectionLabels = map[string]labelAngles{
	"xy": {0, 0, 0, RightHanded},
	"yz": {math.Pi / 2, 0, math.Pi / 2, RightHanded},
	"zx": {3 * math.Pi / 2, 3 * math.Pi / 2, 0, RightHanded},

	"yx": {math.Pi / 2, 0, math.Pi, LeftHanded},
	"xz": {0, 0, math.Pi / 2, LeftHanded},
	"zy": {0, 3 * math.Pi / 2, 0, LeftHanded},
}

// Labels returns the six canonical projection labels, right-handed ones
// first.
func Labels() []string {
	return []string{"xy", "yz", "zx", "yx", "xz", "zy"}
}

// AttitudeFromLabel returns the attitude corresponding to a two-letter
// projection label, e.g. "xy" for an image in the x-y plane integrated along
// +z.
func AttitudeFromLabel(label string) (Attitude, error) {
	a, ok := projectionLabels[label]
	if !ok {
		return Attitude{}, fmt.Errorf("%w: '%s'", ErrUnknownLabel, label)
	}
	return Attitude{
		Yaw: a.yaw, Pitch: a.pitch, Roll: a.roll, Hand: a.hand, Label: label,
	}, nil
}

// AttitudeFromAngles returns an attitude from explicit Tait-Bryan angles
// given in radians. Its handedness is left unset and is inferred from the
// integration bounds when a grid is built.
func AttitudeFromAngles(yaw, pitch, roll float64) Attitude {
	return Attitude{Yaw: yaw, Pitch: pitch, Roll: roll}
}

// IsLabeled returns true if the attitude came from a canonical label.
func (att Attitude) IsLabeled() bool { return att.Label != "" }

// Matrix returns the rotation matrix of the attitude.
func (att Attitude) Matrix() *r3.Mat {
	return RotationMatrix(att.Yaw, att.Pitch, att.Roll)
}

// RotationMatrix creates the 3D rotation matrix R = Rz(yaw) Ry(pitch) Rx(roll).
// Angles are in radians and no orthogonality correction is applied.
func RotationMatrix(yaw, pitch, roll float64) *r3.Mat {
	ca, sa := math.Cos(yaw), math.Sin(yaw)
	cb, sb := math.Cos(pitch), math.Sin(pitch)
	cg, sg := math.Cos(roll), math.Sin(roll)

	return r3.NewMat([]float64{
		ca * cb, ca*sb*sg - sa*cg, ca*sb*cg + sa*sg,
		sa * cb, sa*sb*sg + ca*cg, sa*sb*cg - ca*sg,
		-sb, cb * sg, cb * cg,
	})
}

// Bounds are the start and end of the integration axis before rotation.
type Bounds struct {
	Start, End float64
}

// Sign returns the handedness implied by the direction of the bounds, or 0
// if they are degenerate.
func (b Bounds) Sign() Handedness {
	switch {
	case b.End > b.Start:
		return RightHanded
	case b.End < b.Start:
		return LeftHanded
	}
	return 0
}

// Orient returns the bounds reordered so that their direction matches hand.
// The data is changed to fit the frame, never the other way around.
func (b Bounds) Orient(hand Handedness) Bounds {
	if hand != b.Sign() {
		return Bounds{Start: b.End, End: b.Start}
	}
	return b
}
