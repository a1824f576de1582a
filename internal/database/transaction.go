package database

import (
	"time"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/pkg/errors"
)

// Transaction is a single writer's view of the store between Begin and
// Commit or Rollback. The writer range-lock taken in Begin allows only one
// process at a time to hold a Transaction on a store file; POSIX record
// locks are held per process, so it does not exclude a second Transaction
// begun from the same process.
type Transaction struct {
	db     *Database
	unlock func() error

	indexRecords [NumIndexes]addr.Address
	done         bool
}

// Begin takes the store's writer lock and starts a transaction. It blocks
// until a writer in another process releases the lock; it does not block on
// a transaction already open in this process.
func (db *Database) Begin() (*Transaction, error) {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil, errors.ErrStoreClosed
	}
	records := db.footer.IndexRecords
	db.mu.Unlock()

	unlock, err := lockWriter(db.lockFile)
	if err != nil {
		return nil, errors.NewDatabaseError(err, errors.ErrorCodeIO, "failed to acquire writer lock").
			WithPath(db.path)
	}
	db.log.Infow("transaction began", "path", db.path)
	return &Transaction{db: db, unlock: unlock, indexRecords: records}, nil
}

// Allocate reserves n bytes of append space, aligned to align, for the
// duration of this transaction. The bytes are not visible to any reader
// until Commit succeeds.
func (tx *Transaction) Allocate(n, align uint64) (addr.Address, error) {
	if tx.done {
		return 0, errors.ErrStoreClosed
	}
	return tx.db.storage.Allocate(n, align)
}

// SetIndexRoot records the updated root address of the i'th named index,
// to be written into the new trailer at Commit.
func (tx *Transaction) SetIndexRoot(i int, a addr.Address) {
	tx.indexRecords[i] = a
}

// IndexRoot returns the index root this transaction currently has recorded
// for index i, seeded from the revision the transaction began against.
func (tx *Transaction) IndexRoot(i int) addr.Address {
	return tx.indexRecords[i]
}

// Commit writes a new trailer linking back to the current revision, then
// performs the atomic footer-pointer store that is the transaction's single
// commit point: before it, a crash leaves the store at its pre-transaction
// state; after it, the transaction is durable.
func (tx *Transaction) Commit() error {
	if tx.done {
		return errors.ErrStoreClosed
	}
	tx.done = true
	defer tx.unlock()

	db := tx.db
	db.mu.Lock()
	prevPos := db.footerPos
	prevGen := db.footer.Generation
	db.mu.Unlock()

	newPos, err := tx.Allocate(TrailerSize, 8)
	if err != nil {
		return err
	}

	trailer := Trailer{
		PrevGeneration: prevPos,
		Generation:     prevGen + 1,
		Time:           uint64(time.Now().UnixMilli()),
		IndexRecords:   tx.indexRecords,
	}
	buf := make([]byte, TrailerSize)
	encodeTrailer(buf, &trailer)

	span, err := db.Get(newPos, TrailerSize, true)
	if err != nil {
		return err
	}
	copy(span.Bytes(), buf)
	if err := span.Release(); err != nil {
		return err
	}

	headerBuf, err := db.storage.RawBytes(addr.Null, HeaderSize)
	if err != nil {
		return err
	}
	// This is the commit point: the atomic store makes the new trailer
	// visible to every process with the file mapped.
	storeFooterPos(headerBuf, newPos)

	db.mu.Lock()
	db.footer = trailer
	db.footerPos = newPos
	db.firstWritable = newPos + TrailerSize
	db.storage.SetFooterPos(db.firstWritable)
	db.mu.Unlock()

	db.log.Infow("transaction committed", "path", db.path, "generation", trailer.Generation)
	return nil
}

// Rollback discards every allocation made during the transaction, releasing
// the writer lock without making any of it visible.
func (tx *Transaction) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	defer tx.unlock()

	db := tx.db
	db.mu.Lock()
	floor := uint64(db.firstWritable)
	db.mu.Unlock()

	if err := db.storage.Truncate(floor); err != nil {
		return err
	}
	db.log.Infow("transaction rolled back", "path", db.path)
	return nil
}
