package hashing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// fill returns a 32-byte slice filled with b.
func fill(b byte) []byte {
	s := make([]byte, 32)
	for i := range s {
		s[i] = b
	}
	return s
}

// TestInteractionDigest_Deterministic verifies identical inputs yield
// byte-identical digests across repeated calls.
func TestInteractionDigest_Deterministic(t *testing.T) {
	schema, task, data := fill(1), fill(2), fill(3)

	first, err := InteractionDigest(schema, task, data)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	second, err := InteractionDigest(schema, task, data)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	if first != second {
		t.Error("identical inputs produced different digests")
	}
}

// TestInteractionDigest_InvalidLength verifies wrong-width inputs fail
// before hashing.
func TestInteractionDigest_InvalidLength(t *testing.T) {
	short := make([]byte, 31)

	if _, err := InteractionDigest(short, fill(0), fill(0)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("short schema: got %v, want ErrInvalidLength", err)
	}
	if _, err := InteractionDigest(fill(0), short, fill(0)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("short task: got %v, want ErrInvalidLength", err)
	}
	if _, err := InteractionDigest(fill(0), fill(0), make([]byte, 33)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("long dataHash: got %v, want ErrInvalidLength", err)
	}
}

// TestAttestationNonce_SeedSensitivity verifies changing any single seed
// component changes the nonce, and holding all fixed reproduces it.
func TestAttestationNonce_SeedSensitivity(t *testing.T) {
	task, schema, subject, counterparty := fill(1), fill(2), fill(3), fill(4)

	base, err := AttestationNonce(task, schema, subject, counterparty)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}

	again, _ := AttestationNonce(task, schema, subject, counterparty)
	if base != again {
		t.Fatal("fixed seeds did not reproduce the nonce")
	}

	variants := [][4][]byte{
		{fill(9), schema, subject, counterparty},
		{task, fill(9), subject, counterparty},
		{task, schema, fill(9), counterparty},
		{task, schema, subject, fill(9)},
	}

	for i, v := range variants {
		n, err := AttestationNonce(v[0], v[1], v[2], v[3])
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if n == base {
			t.Errorf("variant %d: changed seed component did not change nonce", i)
		}
	}
}

// TestReputationNonce_SlotReuse verifies the one-slot-per-pair property:
// the same provider/subject pair reuses the slot, a different provider
// gets a different one.
func TestReputationNonce_SlotReuse(t *testing.T) {
	providerA, providerB, subject := fill(0xA), fill(0xB), fill(1)

	first, err := ReputationNonce(providerA, subject)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}

	second, _ := ReputationNonce(providerA, subject)
	if first != second {
		t.Error("same provider/subject pair produced different nonces")
	}

	other, _ := ReputationNonce(providerB, subject)
	if other == first {
		t.Error("different provider reused the same slot")
	}
}

// TestDomainSeparation verifies digests for distinct purposes never collide
// even over overlapping field bytes.
func TestDomainSeparation(t *testing.T) {
	subject := fill(1)

	link, err := CrossChainLinkDigest(subject, common.Address{}, "")
	if err != nil {
		t.Fatalf("link digest: %v", err)
	}

	rep, err := ReputationNonce(subject, fill(0))
	if err != nil {
		t.Fatalf("reputation nonce: %v", err)
	}

	if link == rep {
		t.Error("digests for different purposes collided")
	}
}

// TestCrossChainLinkDigest_ChainBound verifies the digest binds the chain ID
// and external address.
func TestCrossChainLinkDigest_ChainBound(t *testing.T) {
	subject := fill(1)
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	mainnet, err := CrossChainLinkDigest(subject, addr, "eip155:1")
	if err != nil {
		t.Fatalf("link digest: %v", err)
	}

	testnet, _ := CrossChainLinkDigest(subject, addr, "eip155:11155111")
	if mainnet == testnet {
		t.Error("different chain IDs produced the same digest")
	}

	otherAddr, _ := CrossChainLinkDigest(subject, common.Address{}, "eip155:1")
	if mainnet == otherAddr {
		t.Error("different external addresses produced the same digest")
	}
}

// TestRecordDigest verifies determinism and input sensitivity.
func TestRecordDigest(t *testing.T) {
	record := bytes.Repeat([]byte{7}, 131)

	if RecordDigest(record) != RecordDigest(record) {
		t.Error("record digest not deterministic")
	}

	tampered := bytes.Clone(record)
	tampered[0] ^= 1

	if RecordDigest(record) == RecordDigest(tampered) {
		t.Error("tampered record produced the same digest")
	}
}
