// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: damage/point.go
// Summary: Grid coordinates with row-major ordering.

package damage

import "cmp"

// Point is a cell coordinate, 0-based.
type Point struct {
	Y, X int
}

// Compare orders points row-major: row first, then column. Flush relies on
// this ordering to detect runs of horizontally adjacent cells.
func (p Point) Compare(q Point) int {
	if c := cmp.Compare(p.Y, q.Y); c != 0 {
		return c
	}
	return cmp.Compare(p.X, q.X)
}

// Less reports whether p sorts before q.
func (p Point) Less(q Point) bool {
	return p.Compare(q) < 0
}

// follows reports whether p is the cell right after prev on the same row.
func (p Point) follows(prev Point) bool {
	return p.Y == prev.Y && p.X == prev.X+1
}
