package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/singleflight"

	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

// Error message constants for consistent error handling
const (
	errNoServersProvided = "no upstream DNS servers provided"
	errServerFailed      = "server %s: %w"
	errAllServersFailed  = "all %d upstream servers failed"
	errQueryTimeout      = "query timeout after %v"
	errExchangeFailed    = "exchange failed: %w"
	errBadRcode          = "server answered %s"
)

// ExchangeFunc sends one DNS message to server and returns the reply.
type ExchangeFunc func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error)

// Resolver answers nameserver glue questions by asking upstream DNS servers for A and AAAA
// records. It is used when a nameserver lives outside every managed zone.
type Resolver struct {
	servers  []string      // List of upstream DNS servers (e.g., "1.1.1.1:53")
	timeout  time.Duration // Default timeout for a lookup
	parallel bool          // Whether to query servers in parallel
	exchange ExchangeFunc  // Sends a message to one server
	sf       singleflight.Group
}

// Options defines configuration parameters for the upstream resolver.
type Options struct {
	// required parameters
	Servers  []string
	Timeout  time.Duration
	Parallel bool
	// options to inject for testing purposes
	Exchange ExchangeFunc
}

// NewResolver creates a new upstream resolver with the specified options.
// Returns an error if the server list is empty. Sets default timeout to 5 seconds and a UDP
// client if no exchange function is provided.
func NewResolver(opts Options) (*Resolver, error) {
	if len(opts.Servers) == 0 {
		return nil, fmt.Errorf(errNoServersProvided)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Exchange == nil {
		client := &dns.Client{Net: "udp", Timeout: opts.Timeout}
		opts.Exchange = func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error) {
			resp, _, err := client.ExchangeContext(ctx, m, server)
			return resp, err
		}
	}
	return &Resolver{
		servers:  opts.Servers,
		timeout:  opts.Timeout,
		parallel: opts.Parallel,
		exchange: opts.Exchange,
	}, nil
}

// ensureContextDeadline ensures the context has a deadline, adding the resolver's default timeout if needed.
// Returns the context (potentially with added timeout) and a cancel function if one was created.
func (r *Resolver) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, r.timeout)
	}
	return ctx, nil
}

// HasAddress reports whether name has at least one A or AAAA record upstream.
// NXDOMAIN and empty answers are a plain false. Concurrent calls for the same name share one lookup.
func (r *Resolver) HasAddress(ctx context.Context, name string) (bool, error) {
	fqdn := utils.CanonicalDNSName(name)
	res, err, _ := r.sf.Do(fqdn, func() (interface{}, error) {
		return r.hasAddress(ctx, fqdn)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (r *Resolver) hasAddress(ctx context.Context, fqdn string) (bool, error) {
	ctx, cancel := r.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := r.lookup(ctx, fqdn, qtype)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// lookup asks the servers for one record type, serially or in parallel.
func (r *Resolver) lookup(ctx context.Context, fqdn string, qtype uint16) (bool, error) {
	if r.parallel {
		return r.lookupParallel(ctx, fqdn, qtype)
	}
	var lastErr error
	for _, server := range r.servers {
		found, err := r.queryServer(ctx, server, fqdn, qtype)
		if err == nil {
			return found, nil
		}
		lastErr = fmt.Errorf(errServerFailed, server, err)
	}
	return false, fmt.Errorf(errAllServersFailed+": %w", len(r.servers), lastErr)
}

func (r *Resolver) lookupParallel(ctx context.Context, fqdn string, qtype uint16) (bool, error) {
	type result struct {
		found bool
		err   error
	}
	results := make(chan result, len(r.servers))
	for _, server := range r.servers {
		go func(srv string) {
			found, err := r.queryServer(ctx, srv, fqdn, qtype)
			if err != nil {
				err = fmt.Errorf(errServerFailed, srv, err)
			}
			results <- result{found: found, err: err}
		}(server)
	}

	// Wait for first answer or all failures
	var errs []error
	for i := 0; i < len(r.servers); i++ {
		select {
		case res := <-results:
			if res.err == nil {
				return res.found, nil
			}
			errs = append(errs, res.err)
		case <-ctx.Done():
			return false, fmt.Errorf(errQueryTimeout, r.timeout)
		}
	}
	return false, fmt.Errorf(errAllServersFailed+": %v", len(r.servers), errs)
}

// queryServer sends one recursive question to server.
func (r *Resolver) queryServer(ctx context.Context, server, fqdn string, qtype uint16) (bool, error) {
	m := new(dns.Msg)
	m.SetQuestion(fqdn, qtype)
	m.RecursionDesired = true

	resp, err := r.exchange(ctx, m, server)
	if err != nil {
		return false, fmt.Errorf(errExchangeFailed, err)
	}
	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return false, nil
	default:
		return false, fmt.Errorf(errBadRcode, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype == qtype {
			return true, nil
		}
	}
	return false, nil
}

var _ dnsadmin.GlueResolver = (*Resolver)(nil)
