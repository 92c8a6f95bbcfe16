// Package protocol implements the two-party signing workflows over
// attestation records and the verification of the resulting bundles.
//
// In the blind dual-signature workflow the subject signs the interaction
// digest before the outcome exists, so it cannot condition its signature on
// an outcome it does not yet know. The counterparty then signs a structured
// message embedding the serialized record, which does bind the outcome.
package protocol

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"Attestia/internal/hashing"
	"Attestia/internal/layout"
	"Attestia/internal/types"
)

// ErrSelfAttestation reports a record whose subject and counterparty are the
// same identity. This is a policy check on the two identities, not a property
// of the hashes, and is always fatal.
var ErrSelfAttestation = errors.New("subject and counterparty are the same identity")

// Verification is the per-role result of bundle verification.
// For modes that do not require a given role's signature, that role's field
// is true so Valid stays the conjunction of both.
type Verification struct {
	Valid             bool // Valid is the overall result
	SubjectValid      bool // SubjectValid is the subject-role signature check
	CounterpartyValid bool // CounterpartyValid is the counterparty-role check
}

// SignInteraction produces the blind signature over the interaction digest.
// Used by the subject in dual mode and by the privileged signer in the
// SingleSigner and AgentOwnerSigned modes.
func SignInteraction(priv ed25519.PrivateKey, cfg types.SchemaConfig, task, dataHash types.Digest) ([]byte, error) {
	digest, err := hashing.InteractionDigest(cfg.Schema[:], task[:], dataHash[:])
	if err != nil {
		return nil, fmt.Errorf("interaction digest:\n%w", err)
	}

	return ed25519.Sign(priv, digest[:]), nil
}

// SignRecord produces the counterparty's signature over the structured
// message for the record. Returns the signature and the exact message bytes
// that must accompany verification.
func SignRecord(priv ed25519.PrivateKey, cfg types.SchemaConfig, p *types.Payload) (sig, message []byte, err error) {
	if p.Subject == p.Counterparty {
		return nil, nil, ErrSelfAttestation
	}
	if err := layout.ValidateSize(p, cfg.Mode); err != nil {
		return nil, nil, err
	}

	record, err := layout.Serialize(p)
	if err != nil {
		return nil, nil, fmt.Errorf("serialize record:\n%w", err)
	}

	message = CounterpartyMessage(cfg.Schema, record)

	return ed25519.Sign(priv, message), message, nil
}

// SignRecordDigest produces the legacy counterparty signature over the raw
// record digest. Kept so bundles produced by older signers still verify; new
// integrations should use SignRecord.
func SignRecordDigest(priv ed25519.PrivateKey, cfg types.SchemaConfig, p *types.Payload) ([]byte, error) {
	if p.Subject == p.Counterparty {
		return nil, ErrSelfAttestation
	}
	if err := layout.ValidateSize(p, cfg.Mode); err != nil {
		return nil, err
	}

	record, err := layout.Serialize(p)
	if err != nil {
		return nil, fmt.Errorf("serialize record:\n%w", err)
	}

	digest := hashing.RecordDigest(record)

	return ed25519.Sign(priv, digest[:]), nil
}

// BuildDualBundle assembles a two-entry bundle in role order: subject first,
// counterparty second.
func BuildDualBundle(subjectPub, subjectSig, counterpartyPub, counterpartySig []byte) (types.SignatureBundle, error) {
	subject, err := types.EntryFromKeys(subjectPub, subjectSig)
	if err != nil {
		return types.SignatureBundle{}, fmt.Errorf("subject entry:\n%w", err)
	}

	counterparty, err := types.EntryFromKeys(counterpartyPub, counterpartySig)
	if err != nil {
		return types.SignatureBundle{}, fmt.Errorf("counterparty entry:\n%w", err)
	}

	bundle := types.SignatureBundle{Entries: []types.SignatureEntry{subject, counterparty}}
	if err := bundle.Validate(types.DualSignature); err != nil {
		return types.SignatureBundle{}, err
	}

	return bundle, nil
}

// BuildSingleBundle assembles a one-entry bundle for single-signer modes.
func BuildSingleBundle(mode types.SignatureMode, pub, sig []byte) (types.SignatureBundle, error) {
	entry, err := types.EntryFromKeys(pub, sig)
	if err != nil {
		return types.SignatureBundle{}, err
	}

	bundle := types.SignatureBundle{Entries: []types.SignatureEntry{entry}}
	if err := bundle.Validate(mode); err != nil {
		return types.SignatureBundle{}, err
	}

	return bundle, nil
}

// VerifyBundle independently recomputes the expected message for each signer
// role from the schema config and payload, and checks the corresponding
// signature. Signature mismatches come back as Valid=false with per-role
// detail; only malformed inputs (bad bundle shape, invalid payload,
// self-attestation) produce an error.
//
// A swapped dual bundle fails both role checks: the subject's signature and
// the counterparty's signature authenticate different messages.
func VerifyBundle(cfg types.SchemaConfig, p *types.Payload, bundle types.SignatureBundle) (Verification, error) {
	if p.Subject == p.Counterparty {
		return Verification{}, ErrSelfAttestation
	}
	if err := bundle.Validate(cfg.Mode); err != nil {
		return Verification{}, fmt.Errorf("bundle shape:\n%w", err)
	}
	if err := layout.ValidateSize(p, cfg.Mode); err != nil {
		return Verification{}, err
	}

	record, err := layout.Serialize(p)
	if err != nil {
		return Verification{}, fmt.Errorf("serialize record:\n%w", err)
	}

	interaction, err := hashing.InteractionDigest(cfg.Schema[:], p.Task[:], p.DataHash[:])
	if err != nil {
		return Verification{}, fmt.Errorf("interaction digest:\n%w", err)
	}

	var v Verification

	switch cfg.Mode {
	case types.DualSignature:
		v.SubjectValid = verifyEntry(bundle.Entries[0], interaction[:])
		v.CounterpartyValid = verifyRecordEntry(bundle.Entries[1], cfg.Schema, record)

	case types.CounterpartySigned:
		v.SubjectValid = true // no subject signature required in this mode
		v.CounterpartyValid = verifyRecordEntry(bundle.Entries[0], cfg.Schema, record)

	case types.SingleSigner, types.AgentOwnerSigned:
		v.SubjectValid = verifyEntry(bundle.Entries[0], interaction[:])
		v.CounterpartyValid = true // no counterparty signature required

	default:
		return Verification{}, fmt.Errorf("unknown signature mode: %d", cfg.Mode)
	}

	v.Valid = v.SubjectValid && v.CounterpartyValid

	return v, nil
}

// verifyEntry checks one entry's signature against a message.
func verifyEntry(e types.SignatureEntry, message []byte) bool {
	return ed25519.Verify(e.Pubkey[:], message, e.Signature[:])
}

// verifyRecordEntry checks a counterparty entry against the structured
// message, falling back to the legacy raw record digest.
func verifyRecordEntry(e types.SignatureEntry, schema types.Address, record []byte) bool {
	if verifyEntry(e, CounterpartyMessage(schema, record)) {
		return true
	}

	digest := hashing.RecordDigest(record)

	return verifyEntry(e, digest[:])
}
