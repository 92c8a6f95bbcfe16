package types

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
)

// PayloadKind tags the attestation record variant.
type PayloadKind uint8

const (
	// KindFeedback is a counterparty's judgement on a completed task.
	KindFeedback PayloadKind = 0

	// KindValidation is an independent validator's check of a task result.
	KindValidation PayloadKind = 1

	// KindReputationScore is a provider-issued aggregate score.
	KindReputationScore PayloadKind = 2
)

// Valid returns true if the kind is one of the defined variants.
func (k PayloadKind) Valid() bool {
	return k <= KindReputationScore
}

// Payload is an attestation record before serialization.
// All variants share the same base fields; Kind selects the variant and is
// carried by the schema, not by the serialized record.
type Payload struct {
	Kind         PayloadKind // Kind is the record variant
	Task         Digest      // Task is the 32-byte task reference
	Subject      Address     // Subject is the attested party
	Counterparty Address     // Counterparty is the attesting party
	Outcome      Outcome     // Outcome is the three-valued result
	DataHash     Digest      // DataHash commits to off-record interaction data
	ContentType  ContentType // ContentType tags the inline content
	Content      []byte      // Content is up to 512 bytes of inline data
}

// Equal reports whether two payloads are identical field for field.
func (p *Payload) Equal(other *Payload) bool {
	if p == nil || other == nil {
		return p == other
	}

	return p.Kind == other.Kind &&
		p.Task == other.Task &&
		p.Subject == other.Subject &&
		p.Counterparty == other.Counterparty &&
		p.Outcome == other.Outcome &&
		p.DataHash == other.DataHash &&
		p.ContentType == other.ContentType &&
		bytes.Equal(p.Content, other.Content)
}

// SignatureEntry is one (pubkey, signature) pair of a bundle.
type SignatureEntry struct {
	Pubkey    [32]byte // Pubkey is the signer's Ed25519 public key
	Signature [64]byte // Signature is the 64-byte Ed25519 signature
}

// SignatureBundle holds the signatures collected for one record.
// Entry order is fixed: the subject's signature first, then the
// counterparty's. Single-signer modes carry exactly one entry.
type SignatureBundle struct {
	Entries []SignatureEntry // Entries in role order
}

// Validate checks the bundle shape against the signature mode.
// Dual mode additionally requires two distinct pubkeys.
func (b *SignatureBundle) Validate(mode SignatureMode) error {
	want := mode.RequiredSignatures()
	if len(b.Entries) != want {
		return fmt.Errorf("signature count mismatch: got %d, want %d", len(b.Entries), want)
	}

	if mode == DualSignature && b.Entries[0].Pubkey == b.Entries[1].Pubkey {
		return fmt.Errorf("dual signature bundle with identical pubkeys")
	}

	for i, e := range b.Entries {
		if e.Pubkey == ([32]byte{}) {
			return fmt.Errorf("entry %d has zero pubkey", i)
		}
	}

	return nil
}

// EntryFromKeys builds a signature entry from raw key and signature bytes.
// Returns an error if either has the wrong length.
func EntryFromKeys(pubkey, signature []byte) (SignatureEntry, error) {
	var e SignatureEntry

	if len(pubkey) != ed25519.PublicKeySize {
		return e, fmt.Errorf("invalid pubkey size: %d", len(pubkey))
	}
	if len(signature) != ed25519.SignatureSize {
		return e, fmt.Errorf("invalid signature size: %d", len(signature))
	}

	copy(e.Pubkey[:], pubkey)
	copy(e.Signature[:], signature)

	return e, nil
}
