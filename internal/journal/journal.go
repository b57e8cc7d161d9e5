// Package journal keeps a local on-disk trail of reservation intents. The
// stock write and the order writes hit the remote store as separate calls;
// a crash between them leaves stock deducted with no order to show for it.
// The journal brackets that window so operators can find and reconcile
// such cases (reconciliation itself is a manual step).
package journal

import (
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var bucketReservations = []byte("reservations")

const (
	StateBegun     = "begun"
	StateCommitted = "committed"
)

// Entry is one journaled checkout batch.
type Entry struct {
	ID        string        `json:"id"`
	Stocks    map[int64]int `json:"stocks"`
	OrderIDs  []string      `json:"orderIds"`
	State     string        `json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
}

type Journal struct {
	db *bolt.DB
}

// Open creates or opens the journal file under workdir.
func Open(workdir string) (*Journal, error) {
	db, err := bolt.Open(filepath.Join(workdir, "reservations.db"), 0600, &bolt.Options{
		Timeout: 3 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "journal: open")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReservations)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "journal: init bucket")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records a reservation intent before the stock write.
func (j *Journal) Begin(id string, stocks map[int64]int, orderIDs []string) error {
	entry := Entry{
		ID:        id,
		Stocks:    stocks,
		OrderIDs:  orderIDs,
		State:     StateBegun,
		CreatedAt: time.Now(),
	}
	return j.put(&entry)
}

// MarkCommitted flags an intent as fully landed (orders persisted).
func (j *Journal) MarkCommitted(id string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReservations)
		raw := b.Get([]byte(id))
		if raw == nil {
			return errors.Errorf("journal: unknown entry %s", id)
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return errors.Wrap(err, "journal: decode entry")
		}
		entry.State = StateCommitted
		out, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
}

// Uncommitted lists intents that never reached committed state; after a
// crash these are the candidates for manual stock reconciliation.
func (j *Journal) Uncommitted() ([]Entry, error) {
	var out []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReservations).ForEach(func(_, raw []byte) error {
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return errors.Wrap(err, "journal: decode entry")
			}
			if entry.State != StateCommitted {
				out = append(out, entry)
			}
			return nil
		})
	})
	return out, err
}

// PruneCommitted drops committed entries older than the retention window.
func (j *Journal) PruneCommitted(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReservations)
		c := b.Cursor()
		for k, raw := c.First(); k != nil; k, raw = c.Next() {
			var entry Entry
			if err := json.Unmarshal(raw, &entry); err != nil {
				continue
			}
			if entry.State == StateCommitted && entry.CreatedAt.Before(cutoff) {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (j *Journal) put(entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "journal: encode entry")
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReservations).Put([]byte(entry.ID), raw)
	})
}
