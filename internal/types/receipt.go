package types

import "time"

// QuoteReceipt is the audit record persisted for every derived quote served
// by the engine. It stores inputs and outputs as JSON so the schema survives
// engine additions without migrations.
type QuoteReceipt struct {
	ReceiptID  int64     `json:"receipt_id,omitempty"` // Auto-incremented by DB
	Engine     string    `json:"engine"`               // e.g. "staking", "amm"
	Request    string    `json:"request"`              // JSON-encoded request snapshot
	Result     string    `json:"result,omitempty"`     // JSON-encoded derived value
	AsOf       uint64    `json:"as_of"`                // The caller-supplied now
	Rejected   bool      `json:"rejected"`
	RejectCode string    `json:"reject_code,omitempty"` // Stable reason, e.g. "bid_too_low"
	CreatedAt  time.Time `json:"created_at"`
}
