package mosaic

import (
	"sort"

	"github.com/cutlistopt/engine/pkg/model"
)

// StockBundle is one candidate multiset of stock sheets drawn from the
// stock pool, offered to a candidate worker as the containers for a whole
// solution.
type StockBundle struct {
	Tiles     []model.TileDimensions
	TotalArea int64
}

// NewStockBundle builds a bundle from tiles, computing TotalArea.
func NewStockBundle(tiles []model.TileDimensions) *StockBundle {
	b := &StockBundle{Tiles: append([]model.TileDimensions(nil), tiles...)}
	for _, t := range b.Tiles {
		b.TotalArea += t.Area()
	}
	return b
}

// MaxDimension returns the largest single side across every tile in b.
func (b *StockBundle) MaxDimension() int {
	best := 0
	for _, t := range b.Tiles {
		if t.Width > best {
			best = t.Width
		}
		if t.Height > best {
			best = t.Height
		}
	}
	return best
}

// IsUniform reports whether every tile in b shares the same (width,height).
func (b *StockBundle) IsUniform() bool {
	if len(b.Tiles) == 0 {
		return true
	}
	first := b.Tiles[0].DimensionKey()
	for _, t := range b.Tiles[1:] {
		if t.DimensionKey() != first {
			return false
		}
	}
	return true
}

// Descending returns a copy of b with Tiles sorted descending by area, used
// by the sorter to try the opposite placement order for non-uniform bundles.
func (b *StockBundle) Descending() *StockBundle {
	tiles := append([]model.TileDimensions(nil), b.Tiles...)
	sort.SliceStable(tiles, func(i, j int) bool {
		return tiles[i].Area() > tiles[j].Area()
	})
	return &StockBundle{Tiles: tiles, TotalArea: b.TotalArea}
}

// dimensionMultiset returns a count of each (width,height) pair in b,
// ignoring order, the bundle-equality key: multiset of (width,height)
// pairs equal, regardless of order.
func (b *StockBundle) dimensionMultiset() map[[2]int]int {
	m := make(map[[2]int]int, len(b.Tiles))
	for _, t := range b.Tiles {
		m[t.DimensionKey()]++
	}
	return m
}

// Equal implements bundle equality as the multiset of (width,height) pairs,
// regardless of order.
func (b *StockBundle) Equal(o *StockBundle) bool {
	if b == nil || o == nil {
		return b == o
	}
	ma, mb := b.dimensionMultiset(), o.dimensionMultiset()
	if len(ma) != len(mb) {
		return false
	}
	for k, v := range ma {
		if mb[k] != v {
			return false
		}
	}
	return true
}

// Key returns a deterministic string encoding of the bundle's dimension
// multiset, suitable as a map key for the generator's exclusion set.
func (b *StockBundle) Key() string {
	keys := make([][2]int, 0, len(b.Tiles))
	for _, t := range b.Tiles {
		keys = append(keys, t.DimensionKey())
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	buf := make([]byte, 0, len(keys)*10)
	for _, k := range keys {
		buf = appendDim(buf, k[0])
		buf = append(buf, 'x')
		buf = appendDim(buf, k[1])
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
