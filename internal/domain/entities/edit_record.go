// Package entities contains core domain data structures.
package entities

import "time"

// EditRecord is one immutable entry in a message's edit history.
// Records for the same entity form a hash chain: each record's PrevHash
// equals the ChainHash of the record with the previous sequence number.
type EditRecord struct {
	EntityID    string    `json:"entity_id"`
	Sequence    int       `json:"sequence"`
	ContentHash string    `json:"content_hash"`
	PrevHash    string    `json:"prev_hash,omitempty"`
	ChainHash   string    `json:"chain_hash"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// VerifyResult is the outcome of walking an entity's edit chain.
// BrokenAt is the first sequence number where the chain is inconsistent,
// or nil when the whole chain checks out.
type VerifyResult struct {
	Valid    bool `json:"valid"`
	BrokenAt *int `json:"broken_at"`
}
