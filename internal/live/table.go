package live

import (
	"slices"
	"time"

	"CoinDash/internal/model"
)

// Align builds the aligned table over buffers. Rows are the sorted union of
// all sample times; columns follow assets. A cell is present only when that
// asset has a sample at exactly that instant. Nothing is interpolated.
func Align(assets []string, buffers map[string][]model.PricePoint) model.AlignedLiveTable {
	index := make(map[int64]time.Time)
	for _, a := range assets {
		for _, p := range buffers[a] {
			index[p.Time.UnixNano()] = p.Time
		}
	}

	keys := make([]int64, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	row := make(map[int64]int, len(keys))
	table := model.AlignedLiveTable{
		Times:  make([]time.Time, len(keys)),
		Assets: slices.Clone(assets),
		Cells:  make([][]model.Float, len(keys)),
	}
	for i, k := range keys {
		row[k] = i
		table.Times[i] = index[k]
		table.Cells[i] = make([]model.Float, len(assets))
	}
	for col, a := range assets {
		for _, p := range buffers[a] {
			table.Cells[row[p.Time.UnixNano()]][col] = model.Some(p.Price)
		}
	}
	return table
}
