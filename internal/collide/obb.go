package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEps skips edge-cross axes whose cross product is near zero,
// which happens when two box edges are almost parallel.
const parallelEps = 1e-8

// OBB is an oriented bounding box: a center, half extents along the
// box's local axes, and an orthonormal rotation whose columns are
// those axes in world space.
type OBB struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Rotation    mgl64.Mat3
}

// Axis returns the i-th local axis in world space.
func (o OBB) Axis(i int) mgl64.Vec3 {
	return o.Rotation.Col(i)
}

// Corners returns the 8 world-space vertices of the box.
func (o OBB) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	ax := o.Axis(0).Mul(o.HalfExtents.X())
	ay := o.Axis(1).Mul(o.HalfExtents.Y())
	az := o.Axis(2).Mul(o.HalfExtents.Z())
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				out[i] = o.Center.Add(ax.Mul(sx)).Add(ay.Mul(sy)).Add(az.Mul(sz))
				i++
			}
		}
	}
	return out
}

// ContainsPoint tests a world-space point against the box, with a small
// tolerance on each face.
func (o OBB) ContainsPoint(p mgl64.Vec3) bool {
	local := o.Rotation.Transpose().Mul3x1(p.Sub(o.Center))
	const tol = 1e-9
	return math.Abs(local.X()) <= o.HalfExtents.X()+tol &&
		math.Abs(local.Y()) <= o.HalfExtents.Y()+tol &&
		math.Abs(local.Z()) <= o.HalfExtents.Z()+tol
}

// project returns the interval [min,max] of the box's corners along axis.
func (o OBB) project(axis mgl64.Vec3) (float64, float64) {
	corners := o.Corners()
	lo := corners[0].Dot(axis)
	hi := lo
	for _, c := range corners[1:] {
		d := c.Dot(axis)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}

// OBBVsOBB runs the separating axis test over the 15 candidate axes:
// 3 face normals per box plus the 9 edge cross products. A negative
// overlap on any axis proves separation and exits early; otherwise the
// minimum-overlap axis becomes the contact normal, oriented from a
// toward b. Contact points are corners of one box inside the other,
// with the center midpoint as the edge-edge fallback. The test is pure
// and stateless.
func OBBVsOBB(a, b OBB) (Contact, bool) {
	axes := make([]mgl64.Vec3, 0, 15)
	for i := 0; i < 3; i++ {
		axes = append(axes, a.Axis(i))
	}
	for i := 0; i < 3; i++ {
		axes = append(axes, b.Axis(i))
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cross := a.Axis(i).Cross(b.Axis(j))
			if cross.Dot(cross) < parallelEps {
				continue
			}
			axes = append(axes, cross.Normalize())
		}
	}

	minOverlap := math.Inf(1)
	var minAxis mgl64.Vec3
	for _, axis := range axes {
		aLo, aHi := a.project(axis)
		bLo, bHi := b.project(axis)
		overlap := math.Min(aHi, bHi) - math.Max(aLo, bLo)
		if overlap < 0 {
			return Contact{}, false
		}
		if overlap < minOverlap {
			minOverlap = overlap
			minAxis = axis
		}
	}

	// Orient the normal from a toward b.
	if b.Center.Sub(a.Center).Dot(minAxis) < 0 {
		minAxis = minAxis.Mul(-1)
	}

	point, n := mgl64.Vec3{}, 0
	for _, c := range b.Corners() {
		if a.ContainsPoint(c) {
			point = point.Add(c)
			n++
		}
	}
	for _, c := range a.Corners() {
		if b.ContainsPoint(c) {
			point = point.Add(c)
			n++
		}
	}
	if n > 0 {
		point = point.Mul(1.0 / float64(n))
	} else {
		// Pure edge-edge contact: no corner of either box is inside
		// the other.
		point = a.Center.Add(b.Center).Mul(0.5)
	}

	return Contact{Normal: minAxis, Depth: minOverlap, Point: point}, true
}
