package protocol

import (
	"encoding/hex"
	"fmt"

	"Attestia/internal/types"
)

// messageHeader is the first line of the structured counterparty message.
// Versioned: a format change is a new header.
const messageHeader = "attestia attestation v1"

// CounterpartyMessage builds the structured signing message for a serialized
// record. The message is human-readable ASCII so a signing wallet can render
// it instead of asking the user to blind-sign opaque bytes, and it embeds
// the full record, which binds the outcome.
func CounterpartyMessage(schema types.Address, record []byte) []byte {
	msg := fmt.Sprintf("%s\nschema: %s\nrecord: %s\n",
		messageHeader,
		schema.Hex(),
		hex.EncodeToString(record),
	)

	return []byte(msg)
}
