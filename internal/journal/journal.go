// Package journal remembers the original value of every key a scenario is
// about to mutate, so a run that dies before restoring can be repaired later.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kalambet/mkdgcheck/internal/value"
)

const (
	fileName      = "journal.db"
	pendingBucket = "pending"
)

// Entry is one snapshot awaiting restoration.
type Entry struct {
	Backend    string     `json:"backend"`
	SchemaPath string     `json:"schema_path"`
	Key        string     `json:"key"`
	Kind       value.Kind `json:"kind"`
	Text       string     `json:"text"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Value decodes the snapshot back into a typed value.
func (e Entry) Value() (value.Value, error) {
	return value.FromText(e.Kind, e.Text)
}

func (e Entry) id() []byte {
	return []byte(e.SchemaPath + e.Key)
}

// Journal is a bbolt file with a single bucket of pending entries.
type Journal struct {
	db *bbolt.DB
}

// Open opens (or creates) the journal in dataDir.
func Open(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dataDir, fileName), 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(pendingBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal bucket: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores the original value of schemaPath/key. An existing entry for
// the same key is kept: it holds the value from before the earlier, unfinished
// scenario, which is the one that must be restored.
func (j *Journal) Record(backend, schemaPath, key string, v value.Value) error {
	e := Entry{
		Backend:    backend,
		SchemaPath: schemaPath,
		Key:        key,
		Kind:       v.Kind(),
		Text:       v.Text(),
		RecordedAt: time.Now().UTC(),
	}
	buf, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(pendingBucket))
		if b.Get(e.id()) != nil {
			return nil
		}
		return b.Put(e.id(), buf)
	})
}

// Clear drops the entry for schemaPath/key once it has been restored.
func (j *Journal) Clear(schemaPath, key string) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).Delete([]byte(schemaPath + key))
	})
}

// Pending lists entries that were recorded and never cleared.
func (j *Journal) Pending() ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(pendingBucket)).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding journal entry %s: %w", k, err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}
