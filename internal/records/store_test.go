package records

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"Attestia/internal/layout"
	"Attestia/internal/protocol"
	"Attestia/internal/types"
)

// newTestStore opens a store in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// testRecord builds a stored record with a serialized payload.
func testRecord(t *testing.T, addrByte byte) *Record {
	t.Helper()

	p := &types.Payload{
		Kind:        types.KindFeedback,
		Outcome:     types.OutcomePositive,
		ContentType: types.ContentUTF8,
		Content:     []byte("stored"),
	}
	p.Task[0] = 1
	p.Subject[0] = 2
	p.Counterparty[0] = 3

	data, err := layout.Serialize(p)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	rec := &Record{Payload: data}
	rec.Address[0] = addrByte
	rec.Schema[0] = 0xAA
	rec.Bundle.Entries = []types.SignatureEntry{
		{Pubkey: [32]byte{2}, Signature: [64]byte{20}},
		{Pubkey: [32]byte{3}, Signature: [64]byte{30}},
	}

	return rec
}

// TestPutGet verifies a stored record round-trips intact.
func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord(t, 1)

	if err := s.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(rec.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("stored record not found")
	}

	if got.Schema != rec.Schema {
		t.Error("schema mismatch")
	}
	if !bytes.Equal(got.Payload, rec.Payload) {
		t.Error("payload mismatch")
	}
	if len(got.Bundle.Entries) != 2 || got.Bundle.Entries[1].Signature != rec.Bundle.Entries[1].Signature {
		t.Error("bundle mismatch")
	}
}

// TestGet_Absent verifies a missing address yields nil, not an error.
func TestGet_Absent(t *testing.T) {
	s := newTestStore(t)

	var absent types.Address
	absent[0] = 0xFF

	got, err := s.Get(absent)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("absent address returned a record")
	}
}

// TestPut_Duplicate verifies a second insert at the same address is rejected.
func TestPut_Duplicate(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord(t, 1)

	if err := s.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(rec); !errors.Is(err, ErrDuplicate) {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

// TestPut_SelfAttestation verifies a record with identical subject and
// counterparty is rejected at insert.
func TestPut_SelfAttestation(t *testing.T) {
	s := newTestStore(t)

	p := &types.Payload{Kind: types.KindFeedback, Outcome: types.OutcomeNeutral}
	p.Subject[0] = 7
	p.Counterparty[0] = 7

	data, err := layout.Serialize(p)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	rec := &Record{Payload: data}
	rec.Address[0] = 9

	if err := s.Put(rec); !errors.Is(err, protocol.ErrSelfAttestation) {
		t.Errorf("got %v, want ErrSelfAttestation", err)
	}
}

// TestDelete verifies deletion makes the address available again.
func TestDelete(t *testing.T) {
	s := newTestStore(t)
	rec := testRecord(t, 1)

	if err := s.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(rec.Address); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := s.Get(rec.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("deleted record still present")
	}

	if err := s.Put(rec); err != nil {
		t.Errorf("re-insert after delete: %v", err)
	}
}

// TestSnapshotRoundTrip verifies export/import through zstd restores every
// record on a fresh store.
func TestSnapshotRoundTrip(t *testing.T) {
	src := newTestStore(t)

	for b := byte(1); b <= 5; b++ {
		if err := src.Put(testRecord(t, b)); err != nil {
			t.Fatalf("put %d: %v", b, err)
		}
	}

	snapshot, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newTestStore(t)
	if err := dst.Import(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}

	for b := byte(1); b <= 5; b++ {
		var address types.Address
		address[0] = b

		got, err := dst.Get(address)
		if err != nil {
			t.Fatalf("get %d: %v", b, err)
		}
		if got == nil {
			t.Fatalf("record %d missing after import", b)
		}
	}
}

// rawEntry is one hand-built snapshot record with an explicit length field.
type rawEntry struct {
	address byte
	length  uint32
	value   []byte
}

// rawSnapshot builds a snapshot from raw entries, with a valid checksum and
// zstd compression. Snapshots come from outside, so tests exercise bodies
// Export would never produce.
func rawSnapshot(t *testing.T, entries []rawEntry) []byte {
	t.Helper()

	body := appendUint32(nil, snapshotVersion)
	body = appendUint32(body, uint32(len(entries)))

	for _, e := range entries {
		var address [32]byte
		address[0] = e.address

		body = append(body, address[:]...)
		body = appendUint32(body, e.length)
		body = append(body, e.value...)
	}

	checksum := blake3.Sum256(body)
	body = append(body, checksum[:]...)

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("create encoder: %v", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(body, nil)
}

// TestImport_OversizedLength verifies a record length field near the u32
// maximum is rejected as truncated instead of wrapping the bounds check.
func TestImport_OversizedLength(t *testing.T) {
	snapshot := rawSnapshot(t, []rawEntry{
		{address: 1, length: 0xFFFFFFFF, value: []byte{1, 2, 3}},
	})

	s := newTestStore(t)

	err := s.Import(snapshot)
	if err == nil || !strings.Contains(err.Error(), "truncated") {
		t.Errorf("got %v, want truncated record error", err)
	}
}

// TestImport_MalformedValue verifies a value that cannot decode into a
// well-formed record fails the import instead of being staged.
func TestImport_MalformedValue(t *testing.T) {
	// Correct framing, but a payload shorter than the base record layout.
	value := make([]byte, 33+5)
	value[32] = 0 // no signature entries

	snapshot := rawSnapshot(t, []rawEntry{
		{address: 1, length: uint32(len(value)), value: value},
	})

	s := newTestStore(t)

	if err := s.Import(snapshot); !errors.Is(err, layout.ErrRecordTooShort) {
		t.Errorf("got %v, want ErrRecordTooShort", err)
	}
}

// TestImport_CorruptChecksum verifies a tampered snapshot body is rejected.
// The body is flipped after decompression and re-compressed, so the failure
// comes from the checksum, not from zstd.
func TestImport_CorruptChecksum(t *testing.T) {
	src := newTestStore(t)
	if err := src.Put(testRecord(t, 1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	snapshot, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("create decoder: %v", err)
	}
	defer decoder.Close()

	body, err := decoder.DecodeAll(snapshot, nil)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	body[8] ^= 0xFF // first record's address byte

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("create encoder: %v", err)
	}
	defer encoder.Close()

	dst := newTestStore(t)

	err = dst.Import(encoder.EncodeAll(body, nil))
	if err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("got %v, want checksum mismatch", err)
	}
}
