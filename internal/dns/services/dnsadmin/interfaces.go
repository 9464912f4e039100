package dnsadmin

import (
	"context"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// Directory is the persistent entry store the engine reads and writes. It is the only source of
// truth; the engine keeps no state across calls.
//
// Implementations return the domain sentinel errors (ErrNoSuchEntry, ErrEntryExists,
// ErrNoSuchValue, ErrValueExists, ErrNotLeaf), optionally wrapped.
type Directory interface {
	// Add creates e. Parents are not checked; the engine creates containers top down.
	Add(ctx context.Context, e domain.Entry) error
	// Get returns the entry at dn.
	Get(ctx context.Context, dn domain.DN) (domain.Entry, error)
	// Modify applies mods atomically: all of them or none.
	Modify(ctx context.Context, dn domain.DN, mods []domain.Modification) error
	// Delete removes a leaf entry.
	Delete(ctx context.Context, dn domain.DN) error
	// Search returns matching entries ordered by key.
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error)
}

// GlueResolver answers whether a nameserver name has an address outside the directory.
type GlueResolver interface {
	HasAddress(ctx context.Context, name string) (bool, error)
}

// CommandHandler executes one named command of the admin surface.
type CommandHandler interface {
	Execute(ctx context.Context, name string, args []string, options map[string]any) (any, error)
}

// ServerTransport defines the interface for admin command transports.
// The transport handles all protocol concerns; the handler only sees command names and options.
type ServerTransport interface {
	// Start begins accepting requests and dispatching them to handler.
	Start(ctx context.Context, handler CommandHandler) error

	// Stop gracefully shuts down the transport.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
