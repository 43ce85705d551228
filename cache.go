package pyentropy

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mr-tron/base58"

	"github.com/robince/pyentropy-svn/pkg/nsb"
)

type cachedEstimate struct {
	entropy  float64
	variance float64
	warnings int
	errors   int
}

// resultCache memoizes finished estimates keyed by a digest of the
// histogram and options. A nil cache is valid and never hits.
type resultCache struct {
	lru *lru.Cache[string, cachedEstimate]
}

func newResultCache(size int) (*resultCache, error) {
	if size <= 0 {
		return nil, nil
	}

	l, err := lru.New[string, cachedEstimate](size)
	if err != nil {
		return nil, err
	}

	return &resultCache{lru: l}, nil
}

func (rc *resultCache) lookup(h *nsb.Histogram, opts *nsb.Options, wantVariance bool) (cachedEstimate, bool) {
	if rc == nil {
		return cachedEstimate{}, false
	}

	return rc.lru.Get(estimateDigest(h, opts, wantVariance))
}

func (rc *resultCache) store(h *nsb.Histogram, opts *nsb.Options, wantVariance bool, ce cachedEstimate) {
	if rc == nil {
		return
	}

	rc.lru.Add(estimateDigest(h, opts, wantVariance), ce)
}

// estimateDigest hashes everything the estimate depends on: counts,
// trial count, prior and precision, plus whether variance was asked
// for.
func estimateDigest(h *nsb.Histogram, opts *nsb.Options, wantVariance bool) string {
	var buf [8]byte

	hs := sha256.New()

	binary.LittleEndian.PutUint64(buf[:], uint64(h.Trials))
	hs.Write(buf[:])

	for _, c := range h.Counts {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c))
		hs.Write(buf[:])
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(int64(opts.PossibleWords)))
	hs.Write(buf[:])

	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(opts.Precision))
	hs.Write(buf[:])

	if wantVariance {
		hs.Write([]byte{1})
	} else {
		hs.Write([]byte{0})
	}

	return base58.Encode(hs.Sum(nil))
}
