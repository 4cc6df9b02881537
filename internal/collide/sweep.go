package collide

import "sort"

// Pair is a candidate colliding pair of box indices, with A < B.
type Pair struct {
	A, B int
}

type endpoint struct {
	value float64
	index int
	begin bool
}

// SweepAndPrune returns the set of overlapping AABB pairs in
// O(n log n): each axis is swept independently and a pair is a true
// overlap only when it shows up on all three axes. Endpoints sort with
// begin before end at equal coordinates, so boxes that merely touch
// still register as overlapping. The result is sorted (A, then B) and
// must match BruteForcePairs exactly.
func SweepAndPrune(boxes []AABB) []Pair {
	if len(boxes) < 2 {
		return nil
	}

	counts := make(map[Pair]int)
	events := make([]endpoint, 0, len(boxes)*2)
	active := make([]int, 0, len(boxes))

	for axis := 0; axis < 3; axis++ {
		events = events[:0]
		for i, box := range boxes {
			events = append(events,
				endpoint{value: box.Min[axis], index: i, begin: true},
				endpoint{value: box.Max[axis], index: i, begin: false},
			)
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].value != events[j].value {
				return events[i].value < events[j].value
			}
			return events[i].begin && !events[j].begin
		})

		active = active[:0]
		for _, ev := range events {
			if ev.begin {
				for _, other := range active {
					counts[makePair(ev.index, other)]++
				}
				active = append(active, ev.index)
			} else {
				for k, other := range active {
					if other == ev.index {
						active = append(active[:k], active[k+1:]...)
						break
					}
				}
			}
		}
	}

	pairs := make([]Pair, 0, len(counts))
	for p, c := range counts {
		if c == 3 {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// BruteForcePairs is the O(n²) reference: every overlapping pair by
// direct AABB test. The sweep must reproduce it exactly; it is also a
// reasonable choice for very small scenes.
func BruteForcePairs(boxes []AABB) []Pair {
	var pairs []Pair
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].Overlaps(boxes[j]) {
				pairs = append(pairs, Pair{A: i, B: j})
			}
		}
	}
	return pairs
}

func makePair(a, b int) Pair {
	if a < b {
		return Pair{A: a, B: b}
	}
	return Pair{A: b, B: a}
}
