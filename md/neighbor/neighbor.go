// Package neighbor defines the block-structured neighbor list consumed by
// the blocked nonbonded kernels.
//
// Atoms are grouped into fixed blocks of four. Each block carries a list of
// neighbor atoms and, per neighbor, a 4-bit exclusion mask: bit l set means
// lane l of the block must not interact with that neighbor. The mask encodes
// three things at once: topological exclusions, lane padding in the final
// block, and the ordering rule that makes every unordered pair appear in
// exactly one (block, neighbor, lane) slot.
//
// List construction policy (when to rebuild, how much buffer to add) belongs
// to the caller; Build is a straightforward reference builder that scans all
// candidate atoms per block.
package neighbor

import (
	"github.com/cwbudde/algo-md/md/box"
)

// List is a block-of-4 neighbor list.
type List struct {
	numBlocks  int
	blockAtoms []int32   // 4 per block; final block padded by repetition
	neighbors  [][]int32 // per block
	masks      [][]uint8 // per block, parallel to neighbors
}

// NumBlocks returns the number of 4-atom blocks.
func (l *List) NumBlocks() int {
	return l.numBlocks
}

// BlockAtoms returns the four atom indices of a block. Padded lanes repeat
// the last atom and are masked out of every neighbor entry.
func (l *List) BlockAtoms(block int) []int32 {
	return l.blockAtoms[4*block : 4*block+4]
}

// Neighbors returns the neighbor atom indices of a block.
func (l *List) Neighbors(block int) []int32 {
	return l.neighbors[block]
}

// ExclusionMasks returns the per-neighbor 4-bit exclusion masks of a block,
// parallel to Neighbors.
func (l *List) ExclusionMasks(block int) []uint8 {
	return l.masks[block]
}

// Build creates a neighbor list covering every pair closer than maxDistance
// (cutoff plus whatever buffer the caller budgets for position drift).
// posq holds x, y, z, charge per atom; bx enables minimum-image distances
// when non-nil; exclusions lists excluded partner indices per atom and is
// expected to be symmetric.
func Build(posq []float32, numAtoms int, maxDistance float32, bx *box.Box, exclusions [][]int32) *List {
	numBlocks := (numAtoms + 3) / 4
	l := &List{
		numBlocks:  numBlocks,
		blockAtoms: make([]int32, 4*numBlocks),
		neighbors:  make([][]int32, numBlocks),
		masks:      make([][]uint8, numBlocks),
	}
	maxDist2 := maxDistance * maxDistance

	for b := 0; b < numBlocks; b++ {
		atoms := l.blockAtoms[4*b : 4*b+4]
		for i := range atoms {
			idx := 4*b + i
			if idx >= numAtoms {
				idx = numAtoms - 1 // padding
			}
			atoms[i] = int32(idx)
		}

		maxAtom := int(atoms[3])
		for j := 0; j <= maxAtom; j++ {
			if !withinRange(posq, atoms, j, maxDist2, bx) {
				continue
			}
			var mask uint8
			for lane := 0; lane < 4; lane++ {
				padded := 4*b+lane >= numAtoms
				if padded || int32(j) >= atoms[lane] || isExcluded(exclusions, int(atoms[lane]), j) {
					mask |= 1 << lane
				}
			}
			if mask == 0xf {
				continue
			}
			l.neighbors[b] = append(l.neighbors[b], int32(j))
			l.masks[b] = append(l.masks[b], mask)
		}
	}
	return l
}

func withinRange(posq []float32, atoms []int32, j int, maxDist2 float32, bx *box.Box) bool {
	jx, jy, jz := posq[4*j], posq[4*j+1], posq[4*j+2]
	for _, a := range atoms {
		dx := posq[4*a] - jx
		dy := posq[4*a+1] - jy
		dz := posq[4*a+2] - jz
		if bx != nil {
			dx, dy, dz = bx.MinimumImage(dx, dy, dz)
		}
		if dx*dx+dy*dy+dz*dz < maxDist2 {
			return true
		}
	}
	return false
}

func isExcluded(exclusions [][]int32, atom, partner int) bool {
	if exclusions == nil {
		return false
	}
	for _, e := range exclusions[atom] {
		if int(e) == partner {
			return true
		}
	}
	return false
}
