package proofs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"Attestia/internal/addressing"
	"Attestia/internal/logger"
	"Attestia/internal/types"
)

// State is the assembly progress marker.
type State uint8

const (
	// StateStart is the initial state of a new assembly.
	StateStart State = iota

	// StateAddressDerived means the target address is known.
	StateAddressDerived

	// StateProofFetched means the prover returned a current proof.
	StateProofFetched

	// StateAccountsPacked means all referenced accounts are indexed.
	StateAccountsPacked

	// StateReady is the terminal success state.
	StateReady

	// StateFailed is the terminal failure state; see Assembly.FailReason.
	StateFailed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAddressDerived:
		return "address_derived"
	case StateProofFetched:
		return "proof_fetched"
	case StateAccountsPacked:
		return "accounts_packed"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InfraAccounts are the fixed accounts every create/close instruction
// references, packed first and in this order.
type InfraAccounts struct {
	Authority          types.Address // Authority signs the compression CPI
	RegisteredProgram  types.Address // RegisteredProgram is the program's registration PDA
	CompressionProgram types.Address // CompressionProgram executes the state update
	NoopProgram        types.Address // NoopProgram receives the event log
}

// Assembler runs create/close proof assemblies against a prover.
// It holds no per-operation state: assemblies are independent and may run
// concurrently for different commitments.
type Assembler struct {
	prover Prover
}

// NewAssembler creates an assembler over the given prover.
func NewAssembler(prover Prover) *Assembler {
	return &Assembler{prover: prover}
}

// Assembly is the result of one create or close operation: everything the
// transaction layer needs to build the instruction. A fetched proof is valid
// only against the root current at fetch time, so an assembly must be used
// immediately; on any delay or retry, re-run the assembly.
type Assembly struct {
	OpID       string          // OpID correlates log lines for this operation
	State      State           // State is the progress marker
	FailReason string          // FailReason is set in StateFailed
	Address    types.Address   // Address is the target commitment address
	Proof      CompressedProof // Proof in instruction-layer shape
	Tree       PackedTreeInfo  // Tree locates the touched tree/queue pair
	Accounts   []AccountMeta   // Accounts is the flat packed account list
}

// fail marks the assembly failed and wraps the cause.
func (asm *Assembly) fail(reason string, err error) error {
	asm.State = StateFailed
	asm.FailReason = reason

	logger.Component("proofs").Warn("assembly failed",
		"op", asm.OpID,
		"reason", reason,
		"err", err,
	)

	return fmt.Errorf("%s:\n%w", reason, err)
}

// AssembleCreate prepares the material for creating a fresh commitment:
// non-membership proof for the derived address plus the packed account list.
func (a *Assembler) AssembleCreate(ctx context.Context, infra InfraAccounts, c addressing.Commitment, queue types.Address) (*Assembly, error) {
	asm := &Assembly{OpID: uuid.NewString(), State: StateStart}

	asm.Address = c.Address
	asm.State = StateAddressDerived

	res, err := a.prover.ValidityProof(ctx, c.Tree, []types.Address{c.Address})
	if err != nil {
		return asm, asm.fail("fetch validity proof", err)
	}
	if len(res.Items) != 1 {
		return asm, asm.fail("fetch validity proof",
			fmt.Errorf("got %d proof items, want 1", len(res.Items)))
	}
	asm.State = StateProofFetched

	if err := a.checkFresh(ctx, c.Tree, res.RootSeq); err != nil {
		return asm, asm.fail("proof freshness", err)
	}

	packed := packInfra(infra)
	treeIndex := packed.Add(c.Tree, types.RoleWritable)
	queueIndex := packed.Add(queue, types.RoleWritable)

	asm.Proof = res.Proof
	asm.Tree = PackedTreeInfo{
		TreeIndex:  treeIndex,
		QueueIndex: queueIndex,
		RootIndex:  res.Items[0].RootIndex,
	}
	asm.Accounts = packed.Metas()
	asm.State = StateAccountsPacked

	asm.State = StateReady

	logger.Component("proofs").Debug("create assembly ready",
		"op", asm.OpID,
		"address", c.Address.Hex(),
		"accounts", len(asm.Accounts),
	)

	return asm, nil
}

// AssembleClose prepares the material for closing an existing commitment.
// The proof targets the account's current leaf by hash, and the packed tree
// info carries the leaf index with ProveByIndex set.
//
// Returns (nil, nil) when no account exists at the address: an absent record
// is a normal outcome, not an error.
func (a *Assembler) AssembleClose(ctx context.Context, infra InfraAccounts, address types.Address) (*Assembly, error) {
	account, err := a.prover.CompressedAccount(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("look up account:\n%w", err)
	}
	if account == nil {
		return nil, nil
	}

	asm := &Assembly{OpID: uuid.NewString(), State: StateStart}

	asm.Address = address
	asm.State = StateAddressDerived

	res, err := a.prover.LeafProof(ctx, account.Tree, []types.Digest{account.Hash})
	if err != nil {
		return asm, asm.fail("fetch leaf proof", err)
	}
	if len(res.Items) != 1 {
		return asm, asm.fail("fetch leaf proof",
			fmt.Errorf("got %d proof items, want 1", len(res.Items)))
	}
	asm.State = StateProofFetched

	if err := a.checkFresh(ctx, account.Tree, res.RootSeq); err != nil {
		return asm, asm.fail("proof freshness", err)
	}

	packed := packInfra(infra)
	treeIndex := packed.Add(account.Tree, types.RoleWritable)
	queueIndex := packed.Add(account.Queue, types.RoleWritable)

	asm.Proof = res.Proof
	asm.Tree = PackedTreeInfo{
		TreeIndex:    treeIndex,
		QueueIndex:   queueIndex,
		RootIndex:    res.Items[0].RootIndex,
		LeafIndex:    account.LeafIndex,
		ProveByIndex: true,
	}
	asm.Accounts = packed.Metas()
	asm.State = StateAccountsPacked

	asm.State = StateReady

	logger.Component("proofs").Debug("close assembly ready",
		"op", asm.OpID,
		"address", address.Hex(),
		"leaf", account.LeafIndex,
	)

	return asm, nil
}

// checkFresh re-reads the tree's root sequence after the proof fetch.
// A mismatch means the tree advanced in between and the proof is stale.
func (a *Assembler) checkFresh(ctx context.Context, tree types.Address, proofSeq uint64) error {
	current, err := a.prover.CurrentRootSeq(ctx, tree)
	if err != nil {
		return fmt.Errorf("read current root:\n%w", err)
	}

	if current != proofSeq {
		return fmt.Errorf("proof at seq %d, tree at seq %d: %w", proofSeq, current, ErrStaleProof)
	}

	return nil
}

// packInfra packs the fixed infrastructure accounts in their canonical
// order. Only the authority signs; nothing here is written.
func packInfra(infra InfraAccounts) *PackedAccounts {
	packed := NewPackedAccounts()
	packed.Add(infra.Authority, types.RoleReadOnlySigner)
	packed.Add(infra.RegisteredProgram, types.RoleReadOnly)
	packed.Add(infra.CompressionProgram, types.RoleReadOnly)
	packed.Add(infra.NoopProgram, types.RoleReadOnly)

	return packed
}
