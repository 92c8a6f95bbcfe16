package types

import "encoding/hex"

// Address is a 32-byte account or identity address.
type Address [32]byte

// Digest is a 32-byte hash value.
type Digest [32]byte

// Hex returns the lowercase hex encoding of the address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// AddressFromBytes converts a 32-byte slice to an Address.
// Returns false if the slice has the wrong length.
func AddressFromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != 32 {
		return a, false
	}
	copy(a[:], b)

	return a, true
}

// DigestFromBytes converts a 32-byte slice to a Digest.
// Returns false if the slice has the wrong length.
func DigestFromBytes(b []byte) (Digest, bool) {
	var d Digest
	if len(b) != 32 {
		return d, false
	}
	copy(d[:], b)

	return d, true
}

// Outcome is the three-valued result of an attested interaction.
type Outcome uint8

const (
	// OutcomeNegative marks a failed or disputed interaction.
	OutcomeNegative Outcome = 0

	// OutcomeNeutral marks an interaction with no judgement either way.
	OutcomeNeutral Outcome = 1

	// OutcomePositive marks a successful interaction.
	OutcomePositive Outcome = 2
)

// Valid returns true if the outcome is one of the three defined values.
func (o Outcome) Valid() bool {
	return o <= OutcomePositive
}

// ContentType tags the interpretation of the variable-length content block.
type ContentType uint8

const (
	// ContentNone means the record carries no inline content.
	ContentNone ContentType = 0

	// ContentUTF8 means the content is UTF-8 text.
	ContentUTF8 ContentType = 1

	// ContentHash means the content is a hash of off-record data.
	ContentHash ContentType = 2

	// ContentURI means the content is a URI pointing at off-record data.
	ContentURI ContentType = 3
)

// Valid returns true if the content type is in the supported set.
func (c ContentType) Valid() bool {
	return c <= ContentURI
}

// SignatureMode declares how many parties must sign a record and in what role.
type SignatureMode uint8

const (
	// DualSignature requires both the subject and the counterparty to sign.
	DualSignature SignatureMode = 0

	// CounterpartySigned requires only the counterparty's signature.
	CounterpartySigned SignatureMode = 1

	// SingleSigner requires one privileged signer (e.g. a reputation provider).
	SingleSigner SignatureMode = 2

	// AgentOwnerSigned requires only the agent owner's signature.
	AgentOwnerSigned SignatureMode = 3
)

// RequiredSignatures returns the signature count the mode demands.
func (m SignatureMode) RequiredSignatures() int {
	if m == DualSignature {
		return 2
	}
	return 1
}

// StorageClass selects where a record's commitment lives.
type StorageClass uint8

const (
	// StorageCompressed stores the record as a compressed commitment.
	StorageCompressed StorageClass = 0

	// StorageRegular stores the record in a regular account.
	StorageRegular StorageClass = 1
)

// SchemaConfig declares the signing and storage policy for one record kind.
// It is supplied by the external schema registry and treated as read-only.
type SchemaConfig struct {
	Schema    Address       // Schema is the registry address of the schema
	Mode      SignatureMode // Mode selects the signing workflow
	Storage   StorageClass  // Storage selects the commitment storage class
	Closeable bool          // Closeable allows the record to be closed later
}
