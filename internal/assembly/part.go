// Package assembly builds every part of a transmission, places it, and
// drives the parts from the shift state machine and its timelines.
package assembly

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/pkg/math"
)

// Namespace seeds the name-based part handles.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gearbox:part"))

// PartKind classifies parts.
type PartKind int

const (
	KindShaft PartKind = iota
	KindStarCam
	KindFollower
	KindGear
	KindSleeve
	KindFork
)

func (k PartKind) String() string {
	switch k {
	case KindShaft:
		return "shaft"
	case KindStarCam:
		return "star-cam"
	case KindFollower:
		return "follower"
	case KindGear:
		return "gear"
	case KindSleeve:
		return "sleeve"
	case KindFork:
		return "fork"
	}
	return fmt.Sprintf("PartKind(%d)", int(k))
}

// Part is one rigid body. Meshes are in the part frame; local places that
// frame in the parent's frame (or the world for root parts).
type Part struct {
	ID     uuid.UUID
	Name   string
	Kind   PartKind
	Meshes []*geometry.Mesh

	parent *Part
	local  func() math.Mat4
}

// Parent returns the part this one is attached to, or nil.
func (p *Part) Parent() *Part { return p.parent }

// PartPose is the world placement of a part at one instant.
type PartPose struct {
	ID        uuid.UUID
	Name      string
	Transform math.Mat4
	Pose      math.Pose
}

// HandleFor returns the stable handle of the part called name.
func HandleFor(name string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(name))
}

// Part names.
var shaftNames = [...]string{"shaft.input", "shaft.output", "shaft.cam", "shaft.fork-a", "shaft.fork-b"}

const (
	starCamName  = "star-cam"
	followerName = "follower"
)

func gearName(s, g int) string { return fmt.Sprintf("gear.%d.%d", s, g) }

func sleeveName(s, driver, follower int) string {
	return fmt.Sprintf("sleeve.%d.%d-%d", s, driver, follower)
}

func forkName(i int) string { return fmt.Sprintf("fork.%d", i) }

func fixed(m math.Mat4) func() math.Mat4 {
	return func() math.Mat4 { return m }
}
