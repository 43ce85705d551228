package pyentropy

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryStore(t *testing.T) {
	t.Run("records round trip", func(t *testing.T) {
		r := require.New(t)

		path := filepath.Join(t.TempDir(), "history.db")

		hs, err := OpenHistory(testLog(), path)
		r.NoError(err)

		when := time.Now().Truncate(time.Second)

		r.NoError(hs.Record(&HistoryRecord{
			Id:            "01AAAAAAAAAAAAAAAAAAAAAAAA",
			When:          when,
			Dim:           4,
			Trials:        100,
			PossibleWords: -1,
			Precision:     1e-6,
			Entropy:       1.38,
			Variance:      0.002,
			HasVariance:   true,
			Warnings:      1,
		}))

		r.NoError(hs.Record(&HistoryRecord{
			Id:      "01BBBBBBBBBBBBBBBBBBBBBBBB",
			When:    when,
			Dim:     2,
			Trials:  50,
			Entropy: 0.69,
		}))

		r.NoError(hs.Close())

		hs, err = OpenHistory(testLog(), path)
		r.NoError(err)
		defer hs.Close()

		recs, err := hs.List()
		r.NoError(err)
		r.Len(recs, 2)

		// bucket iterates in key order
		r.Equal("01AAAAAAAAAAAAAAAAAAAAAAAA", recs[0].Id)
		r.Equal(4, recs[0].Dim)
		r.Equal(100, recs[0].Trials)
		r.True(recs[0].HasVariance)
		r.Equal(1, recs[0].Warnings)
		r.InDelta(1.38, recs[0].Entropy, 1e-12)

		r.Equal("01BBBBBBBBBBBBBBBBBBBBBBBB", recs[1].Id)
		r.False(recs[1].HasVariance)
	})

	t.Run("calculator records every estimate", func(t *testing.T) {
		r := require.New(t)

		path := filepath.Join(t.TempDir(), "history.db")

		calc, err := NewCalculator(testLog(), WithHistory(path), WithCacheSize(0))
		r.NoError(err)

		h, v, err := calc.EntropyVariance([]float64{0.5, 0.5}, 20, 2)
		r.NoError(err)

		_, err = calc.Entropy([]float64{0.25, 0.25, 0.25, 0.25}, 40, 4)
		r.NoError(err)

		r.NoError(calc.Close())

		hs, err := OpenHistory(testLog(), path)
		r.NoError(err)
		defer hs.Close()

		recs, err := hs.List()
		r.NoError(err)
		r.Len(recs, 2)

		var withVariance *HistoryRecord

		for i := range recs {
			if recs[i].HasVariance {
				withVariance = &recs[i]
			}
		}

		r.NotNil(withVariance)
		r.Equal(2, withVariance.Dim)
		r.Equal(20, withVariance.Trials)
		r.InDelta(h, withVariance.Entropy, 1e-12)
		r.InDelta(v, withVariance.Variance, 1e-12)
	})
}
