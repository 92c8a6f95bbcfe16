// Package records keeps a local journal of issued attestations, keyed by
// their derived commitment address. It mirrors the chain's collision-based
// duplicate prevention locally and is a cache only: filter queries over all
// attestations belong to the external indexer.
package records

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"Attestia/internal/layout"
	"Attestia/internal/protocol"
	"Attestia/internal/types"
)

// recordKeyPrefix is the Pebble key prefix for attestation records.
var recordKeyPrefix = []byte("a:")

// ErrDuplicate reports an insert at an address that already holds a record.
// Identical logical attestations derive identical addresses, so this is the
// local mirror of the chain's duplicate rejection.
var ErrDuplicate = errors.New("record already exists at this address")

// Record is one stored attestation: the serialized record bytes plus the
// signature bundle that covers them.
type Record struct {
	Address types.Address         // Address is the derived commitment address
	Schema  types.Address         // Schema is the schema the record was issued under
	Payload []byte                // Payload is the serialized record
	Bundle  types.SignatureBundle // Bundle holds the collected signatures
}

// Store is a Pebble-backed record store.
type Store struct {
	db *pebble.DB // db is the underlying Pebble database
}

// Open opens (or creates) a record store at the given path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(8 << 20), // 8 MB cache
		MemTableSize: 4 << 20,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open record store:\n%w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a record. Attestations are rare and valuable, so writes sync.
// An existing record at the same address is rejected, as is a record whose
// subject and counterparty coincide.
func (s *Store) Put(rec *Record) error {
	if len(rec.Payload) < layout.MinRecordSize {
		return fmt.Errorf("payload %d bytes, minimum %d: %w",
			len(rec.Payload), layout.MinRecordSize, layout.ErrRecordTooShort)
	}

	subject, _ := layout.SubjectAt(rec.Payload)
	counterparty, _ := layout.CounterpartyAt(rec.Payload)
	if subject == counterparty {
		return protocol.ErrSelfAttestation
	}

	key := makeKey(rec.Address)

	if existing, err := s.get(key); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("address %s: %w", rec.Address.Hex(), ErrDuplicate)
	}

	if err := s.db.Set(key, encodeRecord(rec), pebble.Sync); err != nil {
		return fmt.Errorf("write record:\n%w", err)
	}

	return nil
}

// Get retrieves the record at an address. Returns nil if none exists:
// an absent record is a normal outcome, not an error.
func (s *Store) Get(address types.Address) (*Record, error) {
	value, err := s.get(makeKey(address))
	if err != nil || value == nil {
		return nil, err
	}

	rec, err := decodeRecord(value)
	if err != nil {
		return nil, fmt.Errorf("decode record at %s:\n%w", address.Hex(), err)
	}
	rec.Address = address

	return rec, nil
}

// Delete removes the record at an address, if any. Used after a close
// operation lands on chain.
func (s *Store) Delete(address types.Address) error {
	return s.db.Delete(makeKey(address), pebble.Sync)
}

// get reads a key, returning nil for a missing key and copying the value.
func (s *Store) get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record:\n%w", err)
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// each calls fn for every stored record in address order.
func (s *Store) each(fn func(address types.Address, value []byte) error) error {
	upper := append(append([]byte{}, recordKeyPrefix...), 0xFF)

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: recordKeyPrefix,
		UpperBound: upper,
	})
	if err != nil {
		return fmt.Errorf("open iterator:\n%w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != len(recordKeyPrefix)+32 {
			continue
		}

		address, _ := types.AddressFromBytes(key[len(recordKeyPrefix):])

		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}

		if err := fn(address, value); err != nil {
			return err
		}
	}

	return iter.Error()
}

// makeKey builds the Pebble key for an address: "a:" + address bytes.
func makeKey(address types.Address) []byte {
	key := make([]byte, len(recordKeyPrefix)+32)
	copy(key, recordKeyPrefix)
	copy(key[len(recordKeyPrefix):], address[:])

	return key
}

// encodeRecord serializes a record value.
// Format: schema(32) + u8 entry count + entries (32+64 each) + record bytes.
// The record length is implied by the total value length.
func encodeRecord(rec *Record) []byte {
	size := 32 + 1 + len(rec.Bundle.Entries)*96 + len(rec.Payload)
	buf := make([]byte, 0, size)

	buf = append(buf, rec.Schema[:]...)
	buf = append(buf, byte(len(rec.Bundle.Entries)))

	for _, e := range rec.Bundle.Entries {
		buf = append(buf, e.Pubkey[:]...)
		buf = append(buf, e.Signature[:]...)
	}

	return append(buf, rec.Payload...)
}

// decodeRecord parses a record value.
func decodeRecord(data []byte) (*Record, error) {
	if len(data) < 33 {
		return nil, fmt.Errorf("value too short: %d bytes", len(data))
	}

	rec := &Record{}
	copy(rec.Schema[:], data[:32])

	count := int(data[32])
	offset := 33

	if len(data) < offset+count*96 {
		return nil, fmt.Errorf("truncated signature entries")
	}

	rec.Bundle.Entries = make([]types.SignatureEntry, count)
	for i := 0; i < count; i++ {
		copy(rec.Bundle.Entries[i].Pubkey[:], data[offset:offset+32])
		copy(rec.Bundle.Entries[i].Signature[:], data[offset+32:offset+96])
		offset += 96
	}

	rec.Payload = make([]byte, len(data)-offset)
	copy(rec.Payload, data[offset:])

	return rec, nil
}
