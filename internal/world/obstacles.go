package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/collide"
)

// ObstacleSource supplies static world geometry as AABBs. It is
// queried once per refresh cycle and cached; during a tick the cache
// is read-only, so the source may be rebuilt between ticks without
// locking.
type ObstacleSource interface {
	IDs() []int
	WorldAABB(id int) (min, max mgl64.Vec3)
	IsGround(id int) bool
}

// Obstacle is one cached static box.
type Obstacle struct {
	ID     int
	Box    collide.AABB
	Ground bool
}

func (w *World) refreshObstacles() {
	w.obstacles = w.obstacles[:0]
	if w.source == nil {
		return
	}
	for _, id := range w.source.IDs() {
		min, max := w.source.WorldAABB(id)
		w.obstacles = append(w.obstacles, Obstacle{
			ID:     id,
			Box:    collide.AABB{Min: min, Max: max},
			Ground: w.source.IsGround(id),
		})
	}
}

func (w *World) obstacleByID(id int) *Obstacle {
	if id < 0 {
		return nil
	}
	for k := range w.obstacles {
		if w.obstacles[k].ID == id {
			return &w.obstacles[k]
		}
	}
	return nil
}

// Obstacles returns the current cached registry.
func (w *World) Obstacles() []Obstacle { return w.obstacles }

// StaticObstacles is a trivial in-memory ObstacleSource for scenarios
// and tests.
type StaticObstacles struct {
	boxes  map[int]collide.AABB
	ground map[int]bool
	order  []int
	nextID int
}

func NewStaticObstacles() *StaticObstacles {
	return &StaticObstacles{
		boxes:  make(map[int]collide.AABB),
		ground: make(map[int]bool),
	}
}

// AddBox registers a static box and returns its ID.
func (s *StaticObstacles) AddBox(min, max mgl64.Vec3, isGround bool) int {
	id := s.nextID
	s.nextID++
	s.boxes[id] = collide.AABB{Min: min, Max: max}
	s.ground[id] = isGround
	s.order = append(s.order, id)
	return id
}

// Remove deletes a box. The change becomes visible to the world at its
// next refresh cycle.
func (s *StaticObstacles) Remove(id int) {
	delete(s.boxes, id)
	delete(s.ground, id)
	for k, v := range s.order {
		if v == id {
			s.order = append(s.order[:k], s.order[k+1:]...)
			break
		}
	}
}

// Move replaces a box's bounds, e.g. a moving platform.
func (s *StaticObstacles) Move(id int, min, max mgl64.Vec3) {
	if _, ok := s.boxes[id]; ok {
		s.boxes[id] = collide.AABB{Min: min, Max: max}
	}
}

func (s *StaticObstacles) IDs() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

func (s *StaticObstacles) WorldAABB(id int) (mgl64.Vec3, mgl64.Vec3) {
	box := s.boxes[id]
	return box.Min, box.Max
}

func (s *StaticObstacles) IsGround(id int) bool { return s.ground[id] }
