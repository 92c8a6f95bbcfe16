package types

import "fmt"

// AccountRole is the access role of a referenced account.
// The wire encoding is a 2-bit value shared with the on-chain instruction
// decoder: bit 0 = writable, bit 1 = signer.
type AccountRole uint8

const (
	// RoleReadOnly is a non-signer, non-writable account.
	RoleReadOnly AccountRole = 0

	// RoleWritable is a non-signer, writable account.
	RoleWritable AccountRole = 1

	// RoleReadOnlySigner is a signer that is not written.
	RoleReadOnlySigner AccountRole = 2

	// RoleWritableSigner is a signer that is also written.
	RoleWritableSigner AccountRole = 3
)

// RoleFromFlags builds a role from the (isSigner, isWritable) pair.
func RoleFromFlags(isSigner, isWritable bool) AccountRole {
	var r AccountRole
	if isWritable {
		r |= 1
	}
	if isSigner {
		r |= 2
	}

	return r
}

// IsSigner returns true if the role requires a signature.
func (r AccountRole) IsSigner() bool {
	return r&2 != 0
}

// IsWritable returns true if the role allows writes.
func (r AccountRole) IsWritable() bool {
	return r&1 != 0
}

// Encode returns the 2-bit wire value.
func (r AccountRole) Encode() uint8 {
	return uint8(r & 3)
}

// DecodeRole parses a 2-bit wire value into a role.
// Values above 3 are rejected.
func DecodeRole(v uint8) (AccountRole, error) {
	if v > 3 {
		return 0, fmt.Errorf("invalid account role value: %d", v)
	}

	return AccountRole(v), nil
}

// Merge combines two roles, keeping the stronger flags of each.
// Packing the same account twice must never downgrade its access.
func (r AccountRole) Merge(other AccountRole) AccountRole {
	return r | other
}
