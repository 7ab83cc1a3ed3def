package datareader

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/kailas-cloud/searchd/internal/varint"
)

// DecodeDocList reads n delta-coded row ids from r into a bitmap. The first
// value is absolute; each next one is added to its predecessor.
func DecodeDocList(r Reader, n int) (*roaring.Bitmap, error) {
	bm := roaring.New()
	var row uint32
	for i := range n {
		delta := r.UnzipInt()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("decode doclist entry %d of %d: %w", i, n, err)
		}
		row += delta
		bm.Add(row)
	}
	return bm, nil
}

// AppendDocList encodes ascending row ids in the layout DecodeDocList reads.
func AppendDocList(dst []byte, rows []varint.RowID) []byte {
	var prev varint.RowID
	for i, row := range rows {
		if i > 0 && row <= prev {
			panic(fmt.Sprintf("datareader: row ids not ascending at %d (%d after %d)", i, row, prev))
		}
		dst = varint.Append(dst, uint64(row-prev))
		prev = row
	}
	return dst
}
