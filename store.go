package pyentropy

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-hclog"
	"go.etcd.io/bbolt"
)

var estimatesBucket = []byte("estimates")

// HistoryRecord is one finished estimation, persisted for later
// inspection. ULID keys keep the bucket in time order.
type HistoryRecord struct {
	Id            string
	When          time.Time
	Dim           int
	Trials        int
	PossibleWords int
	Precision     float64
	Entropy       float64
	Variance      float64
	HasVariance   bool
	Warnings      int
	Errors        int
}

// HistoryStore records finished estimates in a bolt database.
type HistoryStore struct {
	log hclog.Logger
	db  *bbolt.DB
}

func OpenHistory(log hclog.Logger, path string) (*HistoryStore, error) {
	opts := bbolt.DefaultOptions

	db, err := bbolt.Open(path, 0644, opts)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(estimatesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStore{
		log: log,
		db:  db,
	}, nil
}

func (h *HistoryStore) Close() error {
	return h.db.Close()
}

func (h *HistoryStore) Record(rec *HistoryRecord) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return err
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		buk := tx.Bucket(estimatesBucket)

		return buk.Put([]byte(rec.Id), data)
	})
}

// List returns all recorded estimates in key (time) order.
func (h *HistoryStore) List() ([]HistoryRecord, error) {
	var out []HistoryRecord

	err := h.db.View(func(tx *bbolt.Tx) error {
		buk := tx.Bucket(estimatesBucket)

		return buk.ForEach(func(k, v []byte) error {
			var rec HistoryRecord

			if err := cbor.Unmarshal(v, &rec); err != nil {
				return err
			}

			out = append(out, rec)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
