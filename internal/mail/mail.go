package mail

import "context"

// Ref identifies one mailbox message.
type Ref struct {
	ID string
}

// Digest is the decoded, consumable form of a fetched message. It is
// ephemeral: produced per fetch, handed to the extraction pipeline, then
// discarded.
type Digest struct {
	ID         string
	Subject    string
	From       string
	DateHeader string
	Snippet    string
	Body       string
}

// Service lists and fetches mailbox messages. The concrete implementation
// talks to the Gmail API; tests substitute fakes.
type Service interface {
	// ListRecent returns refs for the most recent messages, up to the
	// configured page size.
	ListRecent(ctx context.Context) ([]Ref, error)

	// Get fetches and decodes a single message.
	Get(ctx context.Context, id string) (*Digest, error)
}
