// Package addressing derives deterministic commitment addresses from seed
// material. The derivation scheme itself belongs to the external compressed
// state store; this package owns the seed construction — tag strings, field
// order, and nonce computation. Getting either wrong makes every derived
// address silently diverge from the on-chain program's, so the seed order
// here is frozen.
package addressing

import (
	"fmt"

	"github.com/zeebo/blake3"

	"Attestia/internal/hashing"
	"Attestia/internal/types"
)

// derivationTag versions the address derivation itself, independent of the
// nonce tags in the hashing package.
const derivationTag = "attestia:commitment:v1"

// Seed tags, first element of every seed list.
const (
	seedAttestation = "attestation"
	seedReputation  = "reputation"
)

// Commitment is a derived address together with the seed material that
// produced it. It is ephemeral: produced and consumed within one create or
// close operation.
type Commitment struct {
	Address types.Address // Address is the derived 32-byte address
	Tree    types.Address // Tree is the address tree the commitment lives in
	Seeds   [][]byte      // Seeds in derivation order
}

// Derive computes the address for an ordered seed list within a tree.
// Identical (tree, seeds) always yield the identical address; any change to
// any component changes it.
func Derive(tree types.Address, seeds ...[]byte) types.Address {
	h := blake3.New()
	h.Write([]byte(derivationTag))
	h.Write(tree[:])

	for _, s := range seeds {
		h.Write(s)
	}

	var addr types.Address
	h.Sum(addr[:0])

	return addr
}

// ForAttestation derives the commitment for one logical attestation.
// Seed order: tag, schema, subject, nonce — where the nonce already binds
// task, schema, subject, and counterparty, so two counterparties on the same
// task and subject land on distinct slots.
func ForAttestation(tree types.Address, cfg types.SchemaConfig, task types.Digest, subject, counterparty types.Address) (Commitment, error) {
	nonce, err := hashing.AttestationNonce(task[:], cfg.Schema[:], subject[:], counterparty[:])
	if err != nil {
		return Commitment{}, fmt.Errorf("attestation nonce:\n%w", err)
	}

	seeds := [][]byte{
		[]byte(seedAttestation),
		cfg.Schema[:],
		subject[:],
		nonce[:],
	}

	return Commitment{
		Address: Derive(tree, seeds...),
		Tree:    tree,
		Seeds:   seeds,
	}, nil
}

// ForReputation derives the commitment for a provider's score of a subject.
// The nonce depends only on (provider, subject), so resubmitting a score for
// the same pair reuses the same slot.
func ForReputation(tree types.Address, provider, subject types.Address) (Commitment, error) {
	nonce, err := hashing.ReputationNonce(provider[:], subject[:])
	if err != nil {
		return Commitment{}, fmt.Errorf("reputation nonce:\n%w", err)
	}

	seeds := [][]byte{
		[]byte(seedReputation),
		provider[:],
		subject[:],
		nonce[:],
	}

	return Commitment{
		Address: Derive(tree, seeds...),
		Tree:    tree,
		Seeds:   seeds,
	}, nil
}
