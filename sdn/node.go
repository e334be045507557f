package sdn

// numWalls is the fixed wall count, always axis-aligned box faces
// ordered [X0, X1, Y0, Y1, Z0, Z1], per spec.md §4.10.
const numWalls = 6

// wallAxis identifies a wall by its position in the fixed ordering.
type wallAxis int

const (
	wallX0 wallAxis = iota
	wallX1
	wallY0
	wallY1
	wallZ0
	wallZ1
)

var wallAxisOf = [numWalls]wallAxis{wallX0, wallX1, wallY0, wallY1, wallZ0, wallZ1}
