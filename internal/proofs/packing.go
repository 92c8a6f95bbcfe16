package proofs

import "Attestia/internal/types"

// AccountMeta is one packed account reference with its access role.
type AccountMeta struct {
	Address types.Address     // Address is the referenced account
	Role    types.AccountRole // Role is the 2-bit access role
}

// PackedAccounts builds the flat remaining-accounts list. Each distinct
// address is packed once; re-adding merges roles so access is never
// downgraded.
type PackedAccounts struct {
	metas []AccountMeta
	index map[types.Address]uint8
}

// NewPackedAccounts creates an empty account packer.
func NewPackedAccounts() *PackedAccounts {
	return &PackedAccounts{index: make(map[types.Address]uint8)}
}

// Add packs an account and returns its index in the flat list.
func (p *PackedAccounts) Add(address types.Address, role types.AccountRole) uint8 {
	if i, ok := p.index[address]; ok {
		p.metas[i].Role = p.metas[i].Role.Merge(role)
		return i
	}

	i := uint8(len(p.metas))
	p.metas = append(p.metas, AccountMeta{Address: address, Role: role})
	p.index[address] = i

	return i
}

// Len returns the number of packed accounts.
func (p *PackedAccounts) Len() int {
	return len(p.metas)
}

// Metas returns the packed accounts in index order.
func (p *PackedAccounts) Metas() []AccountMeta {
	out := make([]AccountMeta, len(p.metas))
	copy(out, p.metas)

	return out
}

// WireRoles returns the 2-bit wire encoding of every packed role, in index
// order, as the on-chain decoder expects them.
func (p *PackedAccounts) WireRoles() []uint8 {
	out := make([]uint8, len(p.metas))
	for i, m := range p.metas {
		out[i] = m.Role.Encode()
	}

	return out
}
