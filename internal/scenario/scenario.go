// Package scenario builds named, reproducible demo scenes. Every
// scene takes its randomness from the world's seeded source, so the
// same seed always produces the same run.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
	"github.com/san-kum/shatter/internal/world"
)

var ErrUnknown = errors.New("scenario: unknown scenario")

// Builder constructs a ready-to-run world.
type Builder func(cfg world.Config, seed int64) *world.World

var registry = map[string]Builder{
	"tower": buildTower,
	"wall":  buildWall,
	"drop":  buildDrop,
}

// Get returns the builder for a named scenario.
func Get(name string) (Builder, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknown, name, Names())
	}
	return b, nil
}

// Names lists the registered scenarios.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ground() *world.StaticObstacles {
	src := world.NewStaticObstacles()
	src.AddBox(mgl64.Vec3{-50, -1, -50}, mgl64.Vec3{50, 0, 50}, true)
	return src
}

// buildTower stacks a bonded 2×6×2 lattice on the ground. With the
// default bond parameters the lower bonds rupture under load and the
// tower collapses.
func buildTower(cfg world.Config, seed int64) *world.World {
	w := world.New(cfg, ground(), seed)
	w.SpawnLattice(mgl64.Vec3{-0.5, 0.55, -0.5}, 2, 6, 2, 1.0, 1.0, mgl64.Vec3{0.45, 0.45, 0.45})
	return w
}

// buildWall raises a bonded one-brick-thick wall and fires a heavy
// projectile at its center.
func buildWall(cfg world.Config, seed int64) *world.World {
	w := world.New(cfg, ground(), seed)
	w.SpawnLattice(mgl64.Vec3{-2.0, 0.55, 0}, 5, 4, 1, 1.0, 0.8, mgl64.Vec3{0.45, 0.45, 0.45})

	projectile := w.Spawn(body.New(mgl64.Vec3{0, 2.0, -8}, 8.0, mgl64.Vec3{0.5, 0.5, 0.5}))
	w.Body(projectile).SetVelocity(mgl64.Vec3{0, 1.5, 14})
	return w
}

// buildDrop fractures a block in mid-air into a 3×3×3 fragment cloud
// that falls onto a pair of obstacles.
func buildDrop(cfg world.Config, seed int64) *world.World {
	src := ground()
	src.AddBox(mgl64.Vec3{-3, 0, -3}, mgl64.Vec3{-1, 1.5, 3}, false)
	src.AddBox(mgl64.Vec3{1, 0, -3}, mgl64.Vec3{3, 1.5, 3}, false)

	w := world.New(cfg, src, seed)
	parent := w.Spawn(body.New(mgl64.Vec3{0, 8, 0}, 27.0, mgl64.Vec3{1.5, 1.5, 1.5}))

	frags := make([]world.FragmentSpec, 0, 27)
	for z := -1; z <= 1; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				frags = append(frags, world.FragmentSpec{
					Offset:      mgl64.Vec3{float64(x), float64(y), float64(z)},
					Mass:        1.0,
					HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5},
				})
			}
		}
	}
	w.Fracture(parent, frags)
	return w
}
