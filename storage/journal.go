package storage

import (
	"bytes"
	"encoding/gob"
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"go.etcd.io/bbolt"
	"time"
)

var FoundBucket = []byte("found")

type FoundBlockRecord struct {
	Time            time.Time
	MiningRequestId uint32
	Randomness      uint64
	Header          []byte
}

// Journal keeps every found block keyed by the time it was recorded.
type Journal struct {
	db *bbolt.DB
}

func NewJournal(db *bbolt.DB) (*Journal, error) {
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(FoundBucket)
		return err
	}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Append(record *FoundBlockRecord) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record); err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(FoundBucket)
		key := utils.TimeToBytes(record.Time)
		// two records in the same nanosecond keep distinct keys
		for bucket.Get(key) != nil {
			key = utils.TimeToBytes(utils.BytesToTime(key).Add(time.Nanosecond))
		}
		return bucket.Put(key, buf.Bytes())
	})
}

// List returns up to limit records, newest first. A limit of zero or less
// returns everything.
func (j *Journal) List(limit int) (records []*FoundBlockRecord, err error) {
	err = j.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(FoundBucket).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			record := &FoundBlockRecord{}
			if decodeErr := gob.NewDecoder(bytes.NewReader(v)).Decode(record); decodeErr != nil {
				return decodeErr
			}
			records = append(records, record)
		}
		return nil
	})
	return
}

func (j *Journal) Count() (count int, err error) {
	err = j.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(FoundBucket).Cursor()
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			count++
		}
		return nil
	})
	return
}

func (j *Journal) Close() error {
	return j.db.Close()
}
