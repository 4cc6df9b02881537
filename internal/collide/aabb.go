package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// AABB is an axis-aligned bounding box. Boxes are derived from body
// transforms every tick and never persisted.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func AABBFromCenter(center, halfExtents mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Overlaps reports whether the boxes intersect. Touching boxes count
// as overlapping, matching the broad-phase tie-breaking rule.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max.X() >= b.Min.X() && a.Min.X() <= b.Max.X() &&
		a.Max.Y() >= b.Min.Y() && a.Min.Y() <= b.Max.Y() &&
		a.Max.Z() >= b.Min.Z() && a.Min.Z() <= b.Max.Z()
}

func (a AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// ClosestPoint clamps p to the box, per axis.
func (a AABB) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		clamp(p.X(), a.Min.X(), a.Max.X()),
		clamp(p.Y(), a.Min.Y(), a.Max.Y()),
		clamp(p.Z(), a.Min.Z(), a.Max.Z()),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Contact describes a single resolved collision: the normal points from
// the first shape toward the second, Depth is the penetration along it.
type Contact struct {
	Normal mgl64.Vec3
	Depth  float64
	Point  mgl64.Vec3
}

// SphereVsAABB tests a sphere against an axis-aligned box. The returned
// normal points from the box surface toward the sphere center. When the
// center lies inside the box the nearest face normal is used instead,
// since the clamped closest point would coincide with the center.
func SphereVsAABB(center mgl64.Vec3, radius float64, box AABB) (Contact, bool) {
	closest := box.ClosestPoint(center)
	delta := center.Sub(closest)
	distSq := delta.Dot(delta)

	if distSq > epsilon {
		if distSq >= radius*radius {
			return Contact{}, false
		}
		dist := math.Sqrt(distSq)
		return Contact{
			Normal: delta.Mul(1.0 / dist),
			Depth:  radius - dist,
			Point:  closest,
		}, true
	}

	// Center inside the box: pick the face with the minimum exit distance.
	faceDist := [6]float64{
		center.X() - box.Min.X(), // -x
		box.Max.X() - center.X(), // +x
		center.Y() - box.Min.Y(), // -y
		box.Max.Y() - center.Y(), // +y
		center.Z() - box.Min.Z(), // -z
		box.Max.Z() - center.Z(), // +z
	}
	faceNormal := [6]mgl64.Vec3{
		{-1, 0, 0}, {1, 0, 0},
		{0, -1, 0}, {0, 1, 0},
		{0, 0, -1}, {0, 0, 1},
	}
	best := 0
	for i := 1; i < 6; i++ {
		if faceDist[i] < faceDist[best] {
			best = i
		}
	}
	return Contact{
		Normal: faceNormal[best],
		Depth:  radius + faceDist[best],
		Point:  center,
	}, true
}
