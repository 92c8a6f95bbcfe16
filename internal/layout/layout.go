// Package layout implements the versioned fixed-offset encoding of
// attestation records. The offsets are a public contract: the external
// indexer filters on them and the on-chain verifier decodes them, so they
// must stay stable across record variants.
package layout

import (
	"errors"
	"fmt"

	"Attestia/internal/types"
)

const (
	// Version1 is the only supported layout version.
	Version1 = 1

	// Field offsets of layout v1.
	offVersion      = 0
	offTask         = 1
	offSubject      = 33
	offCounterparty = 65
	offOutcome      = 97
	offDataHash     = 98
	offContentType  = 130
	offContent      = 131

	// MinRecordSize is the fixed base layout size: all fields, no content.
	MinRecordSize = offContent

	// MaxContentDual caps inline content when two signatures ride in the
	// same transaction. The transport byte budget shrinks with every
	// inline signature, so dual mode leaves far less room.
	MaxContentDual = 70

	// MaxContentSingle caps inline content for single-signer modes.
	MaxContentSingle = 240

	// maxContentAbsolute is the hard content bound independent of mode.
	maxContentAbsolute = 512
)

// Validation errors, one per violated invariant.
var (
	ErrRecordTooShort         = errors.New("record shorter than base layout")
	ErrUnsupportedVersion     = errors.New("unsupported layout version")
	ErrInvalidOutcome         = errors.New("outcome out of range")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrContentTooLarge        = errors.New("content exceeds signature mode cap")
)

// MaxContent returns the inline content cap for a signature mode.
// Pure function: callers can pre-validate before any network submission.
func MaxContent(mode types.SignatureMode) int {
	if mode == types.DualSignature {
		return MaxContentDual
	}
	return MaxContentSingle
}

// ValidateSize checks a payload's content against the mode cap without
// serializing it.
func ValidateSize(p *types.Payload, mode types.SignatureMode) error {
	if cap := MaxContent(mode); len(p.Content) > cap {
		return fmt.Errorf("content %d bytes, cap %d for mode %d: %w",
			len(p.Content), cap, mode, ErrContentTooLarge)
	}
	return nil
}

// Serialize encodes a payload into the v1 base layout.
// Content length is implied by total record length; there is no length
// prefix on the wire.
func Serialize(p *types.Payload) ([]byte, error) {
	if !p.Outcome.Valid() {
		return nil, fmt.Errorf("outcome %d: %w", p.Outcome, ErrInvalidOutcome)
	}
	if !p.ContentType.Valid() {
		return nil, fmt.Errorf("content type %d: %w", p.ContentType, ErrUnsupportedContentType)
	}
	if len(p.Content) > maxContentAbsolute {
		return nil, fmt.Errorf("content %d bytes, absolute cap %d: %w",
			len(p.Content), maxContentAbsolute, ErrContentTooLarge)
	}

	buf := make([]byte, MinRecordSize+len(p.Content))
	buf[offVersion] = Version1
	copy(buf[offTask:], p.Task[:])
	copy(buf[offSubject:], p.Subject[:])
	copy(buf[offCounterparty:], p.Counterparty[:])
	buf[offOutcome] = byte(p.Outcome)
	copy(buf[offDataHash:], p.DataHash[:])
	buf[offContentType] = byte(p.ContentType)
	copy(buf[offContent:], p.Content)

	return buf, nil
}

// Deserialize decodes a v1 record. Validation order: minimum size, layout
// version, outcome range, content type, total size against the mode cap.
// The kind is carried by the schema, not by the record, so the caller
// supplies it.
func Deserialize(kind types.PayloadKind, mode types.SignatureMode, data []byte) (*types.Payload, error) {
	if len(data) < MinRecordSize {
		return nil, fmt.Errorf("record %d bytes, minimum %d: %w",
			len(data), MinRecordSize, ErrRecordTooShort)
	}
	if data[offVersion] != Version1 {
		return nil, fmt.Errorf("layout version %d: %w", data[offVersion], ErrUnsupportedVersion)
	}

	outcome := types.Outcome(data[offOutcome])
	if !outcome.Valid() {
		return nil, fmt.Errorf("outcome %d: %w", outcome, ErrInvalidOutcome)
	}

	contentType := types.ContentType(data[offContentType])
	if !contentType.Valid() {
		return nil, fmt.Errorf("content type %d: %w", contentType, ErrUnsupportedContentType)
	}

	contentLen := len(data) - MinRecordSize
	if cap := MaxContent(mode); contentLen > cap {
		return nil, fmt.Errorf("content %d bytes, cap %d for mode %d: %w",
			contentLen, cap, mode, ErrContentTooLarge)
	}

	p := &types.Payload{
		Kind:        kind,
		Outcome:     outcome,
		ContentType: contentType,
	}
	copy(p.Task[:], data[offTask:offSubject])
	copy(p.Subject[:], data[offSubject:offCounterparty])
	copy(p.Counterparty[:], data[offCounterparty:offOutcome])
	copy(p.DataHash[:], data[offDataHash:offContentType])

	if contentLen > 0 {
		p.Content = make([]byte, contentLen)
		copy(p.Content, data[offContent:])
	}

	return p, nil
}

// SubjectAt extracts the subject address from a serialized record without
// decoding it. Used by callers that key records by identity fields.
func SubjectAt(data []byte) (types.Address, bool) {
	if len(data) < MinRecordSize {
		return types.Address{}, false
	}
	return types.AddressFromBytes(data[offSubject:offCounterparty])
}

// CounterpartyAt extracts the counterparty address from a serialized record.
func CounterpartyAt(data []byte) (types.Address, bool) {
	if len(data) < MinRecordSize {
		return types.Address{}, false
	}
	return types.AddressFromBytes(data[offCounterparty:offOutcome])
}
