// Package nameservice implements the resolver.System backend on top of
// plain DNS queries. Forward lookups run A and AAAA queries concurrently
// and fold the CNAME chain into canonical name and aliases; reverse
// lookups use PTR. Failures are reported as resolver.SystemError carrying
// a classic resolver code so the resolution core can translate them.
package nameservice

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/hostd/internal/hostentry"
	"github.com/lc/hostd/internal/resolver"
)

var (
	// ErrEmptyHostname is returned when an empty hostname is queried.
	ErrEmptyHostname = errors.New("empty hostname")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = errors.New("empty message")
	// ErrNoRecords is returned when a successful response carries no
	// address records.
	ErrNoRecords = errors.New("no records found")
	// ErrNoPointer is returned when a reverse query yields no PTR record.
	ErrNoPointer = errors.New("no pointer record")
)

var _defaultNameserver = "1.1.1.1:53"

var _ resolver.System = (*Client)(nil)

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client implements resolver.System over DNS.
type Client struct {
	Client      Exchanger
	Timeout     time.Duration
	Nameservers []string
	Retries     uint

	mu sync.Mutex
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New creates a Client with the given per-lookup timeout and optional
// configurations. The returned Client is ready to use as a resolver
// backend.
func New(timeout time.Duration, opts ...Opt) *Client {
	c := &Client{
		Client: &dns.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// WithNameservers returns an option to set custom nameservers.
// If not provided, the default nameserver (1.1.1.1:53) is used.
func WithNameservers(servers []string) Opt {
	return func(c *Client) {
		c.Nameservers = servers
	}
}

// WithTimeout returns an option to set a custom timeout for DNS queries.
// This overrides the timeout provided to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(c *Client) {
		c.Timeout = timeout
	}
}

// WithRetries returns an option to set the number of additional attempts
// per query before giving up.
func WithRetries(n uint) Opt {
	return func(c *Client) {
		c.Retries = n
	}
}

// queryResult is what one A or AAAA query contributes to a forward lookup.
type queryResult struct {
	addrs  []net.IP
	cnames map[string]string // owner -> target, trailing dots kept
	code   int
	err    error
}

// LookupHost performs a forward lookup of name, querying A and AAAA
// concurrently. The CNAME chain in the answers determines the canonical
// name; the queried name and any intermediate chain owners become
// aliases. If neither query yields an address the most specific failure
// code wins (host-not-found over no-data over the transient codes).
func (c *Client) LookupHost(ctx context.Context, name string) (hostentry.Record, error) {
	if strings.TrimSpace(name) == "" {
		return hostentry.Record{}, &resolver.SystemError{
			Code: resolver.CodeHostNotFound,
			Err:  ErrEmptyHostname,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)

	var results []queryResult

	for _, qt := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		qt := qt

		grp.Go(func() error {
			res := c.query(ctx, name, qt)
			c.mu.Lock()
			defer c.mu.Unlock()
			results = append(results, res)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		results = append(results, queryResult{code: resolver.CodeTryAgain, err: err})
	}

	return foldResults(name, results)
}

// foldResults merges per-query results into one record, or picks the
// failure code when no query produced an address.
func foldResults(name string, results []queryResult) (hostentry.Record, error) {
	var (
		addrs  []net.IP
		cnames = make(map[string]string)
		errs   error
	)

	for _, res := range results {
		addrs = append(addrs, res.addrs...)
		for owner, target := range res.cnames {
			cnames[owner] = target
		}
		if res.err != nil {
			errs = multierr.Append(errs, res.err)
		}
	}

	if len(addrs) == 0 {
		return hostentry.Record{}, &resolver.SystemError{
			Code: worstCode(results),
			Err:  errs,
		}
	}

	canonical, aliases := canonicalize(name, cnames)
	return hostentry.Record{
		Name:    canonical,
		Aliases: aliases,
		Addrs:   addrs,
	}, nil
}

// worstCode picks the failure code for an addressless lookup. An
// authoritative negative answer dominates, then an empty answer, then the
// permanent and transient server failures.
func worstCode(results []queryResult) int {
	priority := [...]int{
		resolver.CodeHostNotFound,
		resolver.CodeNoData,
		resolver.CodeNoRecovery,
		resolver.CodeTryAgain,
	}
	for _, want := range priority {
		for _, res := range results {
			if res.code == want {
				return want
			}
		}
	}
	return resolver.CodeTryAgain
}

// canonicalize walks the CNAME chain starting at the queried name. The
// final target is the canonical name; the queried name and intermediate
// owners are aliases. Without a chain the queried name is canonical.
func canonicalize(name string, cnames map[string]string) (canonical string, aliases []string) {
	cur := dns.Fqdn(name)
	seen := map[string]bool{}
	for {
		target, ok := cnames[cur]
		if !ok || seen[cur] {
			break
		}
		seen[cur] = true
		aliases = append(aliases, strings.TrimSuffix(cur, "."))
		cur = target
	}
	return strings.TrimSuffix(cur, "."), aliases
}

// query resolves qtype (A or AAAA) for name. It retries c.Retries
// additional times before giving up and classifies the outcome with a
// resolver code.
func (c *Client) query(ctx context.Context, name string, qtype uint16) queryResult {
	var lastErr error
	for attempt := uint(0); attempt <= c.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return queryResult{code: resolver.CodeTryAgain, err: err}
		}

		// Fresh request each attempt: ExchangeContext mutates *dns.Msg.
		req := &dns.Msg{}
		req.SetQuestion(dns.Fqdn(name), qtype)

		resp, _, err := c.Client.ExchangeContext(ctx, req, c.getNameserver())
		if err != nil {
			lastErr = err
			continue // retry
		}
		if resp == nil {
			return queryResult{code: resolver.CodeTryAgain, err: ErrEmptyMsg}
		}

		if code, failed := rcodeToCode(resp.Rcode); failed {
			return queryResult{code: code, err: rcodeError(resp.Rcode)}
		}

		res := queryResult{cnames: make(map[string]string)}
		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				res.addrs = append(res.addrs, record.A)
			case *dns.AAAA:
				res.addrs = append(res.addrs, record.AAAA)
			case *dns.CNAME:
				res.cnames[record.Hdr.Name] = record.Target
			}
		}
		if len(res.addrs) == 0 {
			res.code = resolver.CodeNoData
			res.err = ErrNoRecords
		}
		return res
	}

	if lastErr == nil {
		lastErr = ErrEmptyMsg
	}
	return queryResult{code: resolver.CodeTryAgain, err: lastErr}
}

// LookupAddr performs a reverse (PTR) lookup of ip and returns the
// fully-qualified name without the trailing dot.
func (c *Client) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	arpa, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return "", &resolver.SystemError{Code: resolver.CodeHostNotFound, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var lastErr error
	for attempt := uint(0); attempt <= c.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &resolver.SystemError{Code: resolver.CodeTryAgain, Err: err}
		}

		req := &dns.Msg{}
		req.SetQuestion(arpa, dns.TypePTR)

		resp, _, err := c.Client.ExchangeContext(ctx, req, c.getNameserver())
		if err != nil {
			lastErr = err
			continue // retry
		}
		if resp == nil {
			return "", &resolver.SystemError{Code: resolver.CodeTryAgain, Err: ErrEmptyMsg}
		}

		if code, failed := rcodeToCode(resp.Rcode); failed {
			return "", &resolver.SystemError{Code: code, Err: rcodeError(resp.Rcode)}
		}

		for _, rr := range resp.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				return strings.TrimSuffix(ptr.Ptr, "."), nil
			}
		}
		return "", &resolver.SystemError{Code: resolver.CodeHostNotFound, Err: ErrNoPointer}
	}

	if lastErr == nil {
		lastErr = ErrEmptyMsg
	}
	return "", &resolver.SystemError{Code: resolver.CodeTryAgain, Err: lastErr}
}

// Hostname returns the local machine's host name from the OS.
func (c *Client) Hostname() (string, error) {
	return os.Hostname()
}

// rcodeToCode maps a DNS response code onto the classic resolver code
// space. NOERROR is not a failure; everything unknown is treated as
// transient.
func rcodeToCode(rcode int) (code int, failed bool) {
	switch rcode {
	case dns.RcodeSuccess:
		return 0, false
	case dns.RcodeNameError:
		return resolver.CodeHostNotFound, true
	case dns.RcodeServerFailure:
		return resolver.CodeTryAgain, true
	case dns.RcodeRefused, dns.RcodeNotImplemented:
		return resolver.CodeNoRecovery, true
	default:
		return resolver.CodeTryAgain, true
	}
}

func rcodeError(rcode int) error {
	return errors.New("dns: " + dns.RcodeToString[rcode])
}

// getNameserver returns a random nameserver from the configured pool.
func (c *Client) getNameserver() string {
	if len(c.Nameservers) == 0 {
		return _defaultNameserver
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(c.Nameservers))))
	if err != nil {
		// Fall back to the first nameserver on error.
		return c.Nameservers[0]
	}

	return c.Nameservers[n.Int64()]
}
