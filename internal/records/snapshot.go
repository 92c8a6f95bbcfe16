package records

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"Attestia/internal/layout"
	"Attestia/internal/types"
)

// snapshotVersion is the current snapshot format version.
const snapshotVersion = 1

// Export serializes every stored record into a zstd-compressed snapshot
// with a blake3 checksum. Records iterate in address order, so the snapshot
// bytes are deterministic for a given store state.
//
// Format before compression: u32 version + u32 count, then per record
// address(32) + u32 length + value, then a 32-byte blake3 checksum over
// everything preceding it.
func (s *Store) Export() ([]byte, error) {
	var body []byte
	count := uint32(0)

	body = appendUint32(body, snapshotVersion)
	body = appendUint32(body, 0) // count patched below

	err := s.each(func(address types.Address, value []byte) error {
		body = append(body, address[:]...)
		body = appendUint32(body, uint32(len(value)))
		body = append(body, value...)
		count++

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect records:\n%w", err)
	}

	binary.LittleEndian.PutUint32(body[4:8], count)

	checksum := blake3.Sum256(body)
	body = append(body, checksum[:]...)

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(body, nil), nil
}

// Import loads a snapshot produced by Export, verifying the checksum first.
// All records are written in one atomic batch.
func (s *Store) Import(data []byte) error {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	body, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress snapshot:\n%w", err)
	}

	if len(body) < 8+32 {
		return fmt.Errorf("snapshot too short: %d bytes", len(body))
	}

	payload, stored := body[:len(body)-32], body[len(body)-32:]

	computed := blake3.Sum256(payload)
	if !bytes.Equal(computed[:], stored) {
		return fmt.Errorf("snapshot checksum mismatch")
	}

	version := binary.LittleEndian.Uint32(payload[0:4])
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d", version)
	}

	count := binary.LittleEndian.Uint32(payload[4:8])
	offset := 8

	batch := s.db.NewBatch()
	defer batch.Close()

	for i := uint32(0); i < count; i++ {
		if len(payload) < offset+36 {
			return fmt.Errorf("truncated record %d", i)
		}

		address := payload[offset : offset+32]
		length := int(binary.LittleEndian.Uint32(payload[offset+32 : offset+36]))
		offset += 36

		// Compare against the remaining bytes; summing offset and a
		// crafted length field could overflow a fixed-width type.
		if length > len(payload)-offset {
			return fmt.Errorf("truncated record %d value", i)
		}

		value := payload[offset : offset+length]
		if err := validateValue(value); err != nil {
			return fmt.Errorf("record %d:\n%w", i, err)
		}

		key := append(append([]byte{}, recordKeyPrefix...), address...)
		if err := batch.Set(key, value, nil); err != nil {
			return fmt.Errorf("stage record %d:\n%w", i, err)
		}

		offset += length
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit snapshot:\n%w", err)
	}

	return nil
}

// validateValue checks a snapshot record value decodes into a well-formed
// record before it is staged. A snapshot is external input; a value Get would
// later fail to decode must fail the import instead.
func validateValue(value []byte) error {
	rec, err := decodeRecord(value)
	if err != nil {
		return fmt.Errorf("decode value:\n%w", err)
	}

	if len(rec.Payload) < layout.MinRecordSize {
		return fmt.Errorf("payload %d bytes, minimum %d: %w",
			len(rec.Payload), layout.MinRecordSize, layout.ErrRecordTooShort)
	}

	return nil
}

// appendUint32 appends a little-endian u32.
func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return append(buf, b[:]...)
}
