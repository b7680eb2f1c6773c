// Package storage keeps a best-effort append-only journal of venue change
// events in Pebble. The journal is an observability aid, not a durability
// guarantee: a failed append is logged and dropped.
package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// keys: e:<8-byte-seq>
func kEvent(seq uint64) []byte {
	key := make([]byte, 2+8)
	copy(key, "e:")
	binary.BigEndian.PutUint64(key[2:], seq)
	return key
}

type record struct {
	Instrument string    `json:"instrument"`
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

type Journal struct {
	db  *pebble.DB
	log *zap.SugaredLogger

	mu  sync.Mutex
	seq uint64
}

// OpenJournal opens (or creates) the journal at path and resumes the event
// sequence from the last record.
func OpenJournal(path string, log *zap.SugaredLogger) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db, log: log}
	j.seq = j.lastSeq()
	return j, nil
}

func (j *Journal) lastSeq() uint64 {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("e:"),
		UpperBound: []byte("e;"),
	})
	if err != nil {
		return 0
	}
	defer iter.Close()

	if !iter.Last() {
		return 0
	}
	key := iter.Key()
	if len(key) != 2+8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[2:])
}

// Announce appends one event record. Satisfies the venue event sink
// contract: failures never propagate.
func (j *Journal) Announce(_ context.Context, symbol, eventType string, payload any) {
	body, err := json.Marshal(record{
		Instrument: symbol,
		Type:       eventType,
		Data:       payload,
		Timestamp:  time.Now(),
	})
	if err != nil {
		j.log.Warnw("journal_marshal_failed", "symbol", symbol, "type", eventType, "err", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.db.Set(kEvent(j.seq+1), body, pebble.NoSync); err != nil {
		j.log.Warnw("journal_append_failed", "symbol", symbol, "type", eventType, "err", err)
		return
	}
	j.seq++
}

// Len reports the number of events successfully journaled. Failed appends
// do not advance the sequence, so keys stay contiguous.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

func (j *Journal) Close() error {
	return j.db.Close()
}
