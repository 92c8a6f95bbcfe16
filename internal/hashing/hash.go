package hashing

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"

	"Attestia/internal/types"
)

// Domain separation tags. One fixed ASCII tag per hash purpose, versioned.
// Changing a tag or its field order is a breaking protocol change.
const (
	tagInteraction      = "attestia:interaction:v1"
	tagAttestationNonce = "attestia:attestation-nonce:v1"
	tagReputationNonce  = "attestia:reputation-nonce:v1"
	tagCrossChainLink   = "attestia:crosschain-link:v1"
)

// ErrInvalidLength reports a fixed-width input with the wrong byte length.
var ErrInvalidLength = errors.New("invalid input length")

// InteractionDigest is the value the subject blind-signs before the outcome
// exists. Fields: tag || schema(32) || task(32) || dataHash(32).
// Outcome and the subject's own identity are deliberately excluded so the
// same signature stays valid across all outcome-independent fields.
func InteractionDigest(schema, task, dataHash []byte) (types.Digest, error) {
	if err := want32("schema", schema); err != nil {
		return types.Digest{}, err
	}
	if err := want32("task", task); err != nil {
		return types.Digest{}, err
	}
	if err := want32("dataHash", dataHash); err != nil {
		return types.Digest{}, err
	}

	return sum(tagInteraction, schema, task, dataHash), nil
}

// AttestationNonce derives the commitment nonce for one logical attestation.
// Fields: tag || task(32) || schema(32) || subject(32) || counterparty(32).
// Including the counterparty keeps two counterparties on the same task and
// subject from colliding on one slot.
func AttestationNonce(task, schema, subject, counterparty []byte) (types.Digest, error) {
	if err := want32("task", task); err != nil {
		return types.Digest{}, err
	}
	if err := want32("schema", schema); err != nil {
		return types.Digest{}, err
	}
	if err := want32("subject", subject); err != nil {
		return types.Digest{}, err
	}
	if err := want32("counterparty", counterparty); err != nil {
		return types.Digest{}, err
	}

	return sum(tagAttestationNonce, task, schema, subject, counterparty), nil
}

// ReputationNonce derives the commitment nonce for a provider's score of a
// subject. Fields: tag || provider(32) || subject(32). Recomputing for the
// same pair reuses the same slot, enforcing one current score per pair.
func ReputationNonce(provider, subject []byte) (types.Digest, error) {
	if err := want32("provider", provider); err != nil {
		return types.Digest{}, err
	}
	if err := want32("subject", subject); err != nil {
		return types.Digest{}, err
	}

	return sum(tagReputationNonce, provider, subject), nil
}

// CrossChainLinkDigest commits a subject identity to an address on another
// chain. Fields: tag || subject(32) || external(20) || chainID.
// The chain ID is the only variable-width field and must stay last so the
// unprefixed concatenation remains unambiguous.
func CrossChainLinkDigest(subject []byte, external common.Address, chainID string) (types.Digest, error) {
	if err := want32("subject", subject); err != nil {
		return types.Digest{}, err
	}

	return sum(tagCrossChainLink, subject, external[:], []byte(chainID)), nil
}

// RecordDigest hashes a serialized attestation record.
// This is the legacy counterparty signing message; the structured message in
// the protocol package is the current scheme.
func RecordDigest(record []byte) types.Digest {
	return blake3.Sum256(record)
}

// sum computes blake3(tag || field || field ...).
func sum(tag string, fields ...[]byte) types.Digest {
	h := blake3.New()
	h.Write([]byte(tag))

	for _, f := range fields {
		h.Write(f)
	}

	var d types.Digest
	h.Sum(d[:0])

	return d
}

// want32 checks a fixed-width field is exactly 32 bytes.
func want32(name string, b []byte) error {
	if len(b) != 32 {
		return fmt.Errorf("%s: got %d bytes, want 32: %w", name, len(b), ErrInvalidLength)
	}
	return nil
}
