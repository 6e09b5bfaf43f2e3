package permutation

import (
	"sort"

	"github.com/cutlistopt/engine/pkg/model"
)

// maxFullPermutationUnits bounds the full-permutation prefix at 7 units
// (7! = 5,040), guaranteeing the largest panels lead.
const maxFullPermutationUnits = 7

type groupKey struct {
	dims  [2]int
	group int
}

// Generate builds the bounded permutation set for one material's grouped
// demand: the distinct (dimension, group) units are sorted by area
// descending, the first 7 are fully permuted, the rest are appended in
// that sorted order to every permutation, and each group permutation is
// expanded back into a full panel-id sequence before dedup by
// (width,height) sequence hash.
func Generate(grouped []model.GroupedTileDimensions) [][]model.TileDimensions {
	units, unitMembers := distinctUnits(grouped)
	if len(units) == 0 {
		return nil
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].dims[0]*units[i].dims[1] > units[j].dims[0]*units[j].dims[1]
	})

	leadCount := len(units)
	if leadCount > maxFullPermutationUnits {
		leadCount = maxFullPermutationUnits
	}
	lead := units[:leadCount]
	rest := units[leadCount:]

	var out [][]model.TileDimensions
	seen := make(map[string]struct{})

	permuteUnits(lead, func(perm []groupKey) {
		sequence := make([]groupKey, 0, len(perm)+len(rest))
		sequence = append(sequence, perm...)
		sequence = append(sequence, rest...)

		expanded := expand(sequence, unitMembers)
		h := sequenceHash(expanded)
		if _, dup := seen[h]; dup {
			return
		}
		seen[h] = struct{}{}
		out = append(out, expanded)
	})

	return out
}

// distinctUnits groups grouped's entries by (dimension, group), returning
// the distinct units in first-occurrence order plus each unit's member
// panels in original demand order.
func distinctUnits(grouped []model.GroupedTileDimensions) ([]groupKey, map[groupKey][]model.TileDimensions) {
	members := make(map[groupKey][]model.TileDimensions)
	var units []groupKey
	for _, g := range grouped {
		k := groupKey{dims: g.DimensionKey(), group: g.Group}
		if _, ok := members[k]; !ok {
			units = append(units, k)
		}
		members[k] = append(members[k], g.TileDimensions)
	}
	return units, members
}

// expand flattens a unit sequence back into a full panel list, preserving
// each unit's original demand order.
func expand(sequence []groupKey, members map[groupKey][]model.TileDimensions) []model.TileDimensions {
	var out []model.TileDimensions
	for _, k := range sequence {
		out = append(out, members[k]...)
	}
	return out
}

// permuteUnits calls visit once per permutation of units (Heap's algorithm).
func permuteUnits(units []groupKey, visit func([]groupKey)) {
	n := len(units)
	perm := append([]groupKey(nil), units...)
	visit(append([]groupKey(nil), perm...))
	c := make([]int, n)
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[c[i]], perm[i] = perm[i], perm[c[i]]
			}
			visit(append([]groupKey(nil), perm...))
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
}

// sequenceHash returns a deterministic key for a full expanded permutation,
// built from its (width,height) sequence only, used to deduplicate
// permutations.
func sequenceHash(seq []model.TileDimensions) string {
	buf := make([]byte, 0, len(seq)*8)
	for _, t := range seq {
		buf = appendDim(buf, t.Width)
		buf = append(buf, ',')
		buf = appendDim(buf, t.Height)
		buf = append(buf, ';')
	}
	return string(buf)
}

func appendDim(out []byte, v int) []byte {
	if v == 0 {
		return append(out, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(out, tmp[i:]...)
}
