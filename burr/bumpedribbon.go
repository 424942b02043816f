// Package burr implements Bumped Ribbon Retrieval (BuRR): a layered
// stack of banded GF(2) row solvers where rows that a layer's bucket
// can't place cascade ("bump") into the next layer, down to a fixed
// fallback ribbon that always answers.
package burr

import (
	"math"
	"sort"

	"github.com/bitpacked/succinct/bitops"
	"github.com/bitpacked/succinct/ribbon"
	"github.com/bitpacked/succinct/serialize"
)

const (
	maxLayers        = 4
	minResidualRows  = 2048
	fallbackAttempts = 50

	// DefaultEpsilon is the table-universe overhead factor applied to
	// each layer's row count (m = ceil(n*(1+epsilon))).
	DefaultEpsilon = 0.05
)

// BumpedRibbon is the full layered structure: up to 4 BumpedLayers
// plus a fallback RibbonTable that always resolves any row that
// cascaded past the last layer.
type BumpedRibbon struct {
	w, seed uint64
	hasher  Hasher
	layers  []*BumpedLayer
	fallback *ribbon.RibbonTable
}

// keyRow carries a key's fingerprint and payload value through layer
// construction; (i, c) are re-derived per layer since each layer's row
// solver has a different column count m.
type keyRow struct {
	h1, h2, value uint64
}

// Get evaluates the BumpedRibbon at key, trying each layer in turn
// and falling back to the fixed fallback ribbon if every layer bumps it.
func (br *BumpedRibbon) Get(key []byte) uint64 {
	h1, h2 := br.hasher.Hash(br.seed, key)
	for _, layer := range br.layers {
		i, c := ribbon.RowFor(h1, h2, layer.N(), uint(br.w))
		if !layer.isBumped(i) {
			return layer.table.Lookup(i, c)
		}
	}
	i, c := ribbon.RowFor(h1, h2, br.fallback.N(), uint(br.w))
	return br.fallback.Lookup(i, c)
}

// BuildUsingSeed constructs a BumpedRibbon over keys/values (parallel
// slices) deterministically from (keys, w, r, seed, epsilon). w is the
// band width, r the value width in bits. epsilon <= 0 selects
// DefaultEpsilon.
func BuildUsingSeed(keys [][]byte, values []uint64, w, r uint, seed uint64, epsilon float64, hasher Hasher) (*BumpedRibbon, error) {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	rows := make([]keyRow, len(keys))
	for idx, k := range keys {
		h1, h2 := hasher.Hash(seed, k)
		rows[idx] = keyRow{h1, h2, values[idx]}
	}

	// Always solve at least one layer over the full row set; after that,
	// keep layering the bumped residue only while it's still large
	// enough to be worth another layer and the layer cap allows it.
	var layers []*BumpedLayer
	current := rows
	for {
		layer, bumped, err := buildLayer(current, w, r, epsilon)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
		current = bumped
		if len(current) == 0 || len(layers) >= maxLayers || len(current) < minResidualRows {
			break
		}
	}

	fallback, err := buildFallback(current, w, r)
	if err != nil {
		return nil, err
	}

	return &BumpedRibbon{w: uint64(w), seed: seed, hasher: hasher, layers: layers, fallback: fallback}, nil
}

type posRow struct {
	i     uint
	c     uint64
	value uint64
	orig  keyRow
}

// buildLayer solves one BuRR layer over rows, returning the layer and
// the rows bumped to the next layer. Rows the solver rejects are bumped
// rather than reported, so the returned error is always nil.
func buildLayer(rows []keyRow, w, r uint, epsilon float64) (*BumpedLayer, []keyRow, error) {
	n := uint(len(rows))
	m := uint(math.Ceil(float64(n) * (1 + epsilon)))
	if m < n {
		m = n
	}
	if m < w+1 {
		m = w + 1
	}

	bucketSize := (w * w) / (4 * bitops.Log2Ceil(uint64(w)))
	if bucketSize == 0 {
		bucketSize = 1
	}
	lower := bucketSize / 7
	upper := bucketSize / 4
	if upper <= lower {
		upper = lower + 1
	}
	if bucketSize <= upper {
		bucketSize = upper + 1
	}

	derived := make([]posRow, n)
	for idx, rr := range rows {
		i, c := ribbon.RowFor(rr.h1, rr.h2, m, w)
		derived[idx] = posRow{i: i, c: c, value: rr.value, orig: rr}
	}
	sort.Slice(derived, func(a, b int) bool { return derived[a].i < derived[b].i })

	sys := ribbon.NewSystem(m, r, w)
	numBuckets := (m + bucketSize - 1) / bucketSize
	thresholdVals := make([]uint64, numBuckets)
	var bumped []keyRow

	ptr := 0
	for bucketIdx := uint(0); bucketIdx < numBuckets; bucketIdx++ {
		bucketStart := bucketIdx * bucketSize
		bucketEnd := bucketStart + bucketSize

		start := ptr
		for ptr < len(derived) && derived[ptr].i < bucketEnd {
			ptr++
		}
		bucketRows := derived[start:ptr]

		attempted := make([]bool, len(bucketRows))
		outcomes := make([]ribbon.InsertKind, len(bucketRows))
		placedAt := make([]uint, len(bucketRows))
		var bumpOffset uint

		for idx := len(bucketRows) - 1; idx >= 0; idx-- {
			rr := bucketRows[idx]
			res := sys.Insert(rr.i, rr.c, rr.value)
			attempted[idx] = true
			outcomes[idx] = res.Kind
			placedAt[idx] = res.At
			if res.Kind == ribbon.InsertFailure {
				bumpOffset = rr.i - bucketStart + 1
				break
			}
		}

		codeThresholds := [4]uint{0, lower, upper, bucketSize}
		code := 3
		for c := 0; c < 4; c++ {
			if codeThresholds[c] >= bumpOffset {
				code = c
				break
			}
		}
		T := codeThresholds[code]
		thresholdVals[bucketIdx] = uint64(code)

		for idx, rr := range bucketRows {
			offset := rr.i - bucketStart
			if offset < T {
				if attempted[idx] && outcomes[idx] == ribbon.InsertSuccess {
					sys.ClearRow(placedAt[idx])
				}
				bumped = append(bumped, rr.orig)
			}
		}
	}

	table := sys.BackSubstitute()
	layer := &BumpedLayer{
		bucketSize:     bucketSize,
		lowerThreshold: lower,
		upperThreshold: upper,
		thresholds:     encodeThresholds(thresholdVals),
		table:          table,
	}
	return layer, bumped, nil
}

// buildFallback solves the residual rows with an expanding-universe
// retry loop: start m = max(n, w+1), grow by max(n/10, 1) on each
// failed attempt, up to fallbackAttempts iterations.
func buildFallback(rows []keyRow, w, r uint) (*ribbon.RibbonTable, error) {
	n := uint(len(rows))
	m := n
	if m < w+1 {
		m = w + 1
	}
	growth := n / 10
	if growth < 1 {
		growth = 1
	}

	for attempt := 0; attempt < fallbackAttempts; attempt++ {
		sys := ribbon.NewSystem(m, r, w)
		ok := true
		for _, rr := range rows {
			i, c := ribbon.RowFor(rr.h1, rr.h2, m, w)
			if sys.Insert(i, c, rr.value).Kind == ribbon.InsertFailure {
				ok = false
				break
			}
		}
		if ok {
			return sys.BackSubstitute(), nil
		}
		m += growth
	}
	return nil, ErrHashCollision
}

// WriteTo appends the serialized form: u64 w, seed, layer count, each
// layer in order, then the fallback RibbonTable.
func (br *BumpedRibbon) WriteTo(w *serialize.Writer) {
	w.WriteUint64(br.w)
	w.WriteUint64(br.seed)
	w.WriteUint64(uint64(len(br.layers)))
	for _, layer := range br.layers {
		layer.WriteTo(w)
	}
	br.fallback.WriteTo(w)
}

// ReadFrom reconstructs a BumpedRibbon by copying into freshly
// allocated backing storage. hasher must match the one used to build it.
func ReadFrom(r *serialize.Reader, hasher Hasher) (*BumpedRibbon, error) {
	w, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	seed, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	numLayers, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	layers := make([]*BumpedLayer, numLayers)
	for i := range layers {
		layers[i], err = readLayer(r)
		if err != nil {
			return nil, err
		}
	}
	fallback, err := ribbon.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return &BumpedRibbon{w: w, seed: seed, hasher: hasher, layers: layers, fallback: fallback}, nil
}

// ReadFromBorrowed is the zero-copy counterpart of ReadFrom.
func ReadFromBorrowed(r *serialize.Reader, hasher Hasher) (*BumpedRibbon, error) {
	w, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	seed, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	numLayers, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	layers := make([]*BumpedLayer, numLayers)
	for i := range layers {
		layers[i], err = readLayerBorrowed(r)
		if err != nil {
			return nil, err
		}
	}
	fallback, err := ribbon.ReadFromBorrowed(r)
	if err != nil {
		return nil, err
	}
	return &BumpedRibbon{w: w, seed: seed, hasher: hasher, layers: layers, fallback: fallback}, nil
}
