// Package proofs assembles the cryptographic material needed to create or
// close a compressed commitment: it fetches membership/validity proofs from
// the external prover, converts them into the instruction-layer shape, and
// packs the referenced accounts by index. Building the instruction itself is
// the transaction layer's job.
package proofs

import (
	"context"
	"errors"

	"Attestia/internal/types"
)

// ErrStaleProof reports a proof generated against a root that is no longer
// current. Not a local bug: the tree advanced between fetch and use. This is
// the only condition callers should retry automatically, by re-running the
// whole assembly; a fetched proof is never reusable.
var ErrStaleProof = errors.New("proof root is no longer current")

// CompressedProof is the prover's proof in the instruction-layer shape:
// three opaque group elements. Field order must not change; the on-chain
// program reads them positionally.
type CompressedProof struct {
	A [32]byte // A is the first group element
	B [64]byte // B is the second group element
	C [32]byte // C is the third group element
}

// ProofItem locates one proven address or leaf inside its tree.
type ProofItem struct {
	RootIndex uint16       // RootIndex selects the root in the on-chain root buffer
	LeafIndex uint32       // LeafIndex is the leaf position in the tree
	Root      types.Digest // Root is the tree root the proof was built against
}

// ProofResult is one prover response: the proof plus per-item indices and
// the root sequence number the proof is valid against.
type ProofResult struct {
	Proof   CompressedProof // Proof is the converted proof
	RootSeq uint64          // RootSeq is the tree's root sequence at proof time
	Items   []ProofItem     // Items, one per requested address or leaf
}

// Account is a compressed account as reported by the prover.
type Account struct {
	Address   types.Address // Address is the derived commitment address
	Hash      types.Digest  // Hash is the account's current leaf hash
	LeafIndex uint32        // LeafIndex is the leaf position in the tree
	Tree      types.Address // Tree is the state tree holding the leaf
	Queue     types.Address // Queue is the tree's associated output queue
	Data      []byte        // Data is the serialized record
}

// Prover is the narrow interface to the external state-compression service.
// Implemented by the client package; a fake stands in for it in tests.
type Prover interface {
	// ValidityProof fetches a non-membership proof for fresh addresses.
	ValidityProof(ctx context.Context, tree types.Address, addresses []types.Address) (*ProofResult, error)

	// LeafProof fetches a membership proof for existing leaves by hash.
	LeafProof(ctx context.Context, tree types.Address, leaves []types.Digest) (*ProofResult, error)

	// CurrentRootSeq reports the tree's current root sequence number.
	CurrentRootSeq(ctx context.Context, tree types.Address) (uint64, error)

	// CompressedAccount looks up a compressed account by address.
	// Returns (nil, nil) when no account exists there.
	CompressedAccount(ctx context.Context, address types.Address) (*Account, error)
}

// PackedTreeInfo references the tree/queue pair touched by an instruction,
// as indices into the packed account list.
type PackedTreeInfo struct {
	TreeIndex    uint8  // TreeIndex is the packed index of the state tree
	QueueIndex   uint8  // QueueIndex is the packed index of the output queue
	RootIndex    uint16 // RootIndex selects the proven root on chain
	LeafIndex    uint32 // LeafIndex is the target leaf (close path)
	ProveByIndex bool   // ProveByIndex marks a proof against an existing leaf
}
