package resolver

import (
	"context"
	"net"
	"sync"

	"github.com/lc/hostd/internal/hostcache"
	"github.com/lc/hostd/internal/hostentry"
)

// System is the blocking name-service backend the resolver drives. All
// three calls are synchronous and may block for network-dependent time;
// the resolver imposes no timeout of its own. Failed lookups report a
// *SystemError so the resolver can translate the backend code.
type System interface {
	// LookupHost performs forward resolution of name.
	LookupHost(ctx context.Context, name string) (hostentry.Record, error)
	// LookupAddr performs reverse resolution of ip to its fully-qualified
	// name.
	LookupAddr(ctx context.Context, ip net.IP) (string, error)
	// Hostname returns the local machine's host name.
	Hostname() (string, error)
}

// Resolver turns hostnames and addresses into cached host entries.
//
// Every operation holds one mutex across its entire body, external backend
// call included. That serializes all resolution work: at most one backend
// call is in flight process-wide, no two goroutines ever duplicate the
// call for the same key, and entry construction never races with cache
// insertion. Throughput is bounded by one lookup at a time; correctness
// over concurrency.
type Resolver struct {
	mu    sync.Mutex
	cache hostcache.Store
	sys   System
}

// Opt is a function option for configuring the Resolver.
type Opt func(r *Resolver)

// New creates a Resolver backed by sys. Unless WithStore is given, a fresh
// private cache is used.
func New(sys System, opts ...Opt) *Resolver {
	r := &Resolver{
		cache: hostcache.New(),
		sys:   sys,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// WithStore returns an option that makes the resolver share the given
// cache instead of owning a private one.
func WithStore(s hostcache.Store) Opt {
	return func(r *Resolver) {
		r.cache = s
	}
}

// HostByName resolves name to a host entry, consulting the cache first.
// On a miss the backend is called, the result cached under name, and the
// stored entry returned. A failure never leaves a partial entry behind.
func (r *Resolver) HostByName(ctx context.Context, name string) (*hostentry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache.Lookup(name); ok {
		return e, nil
	}

	rec, err := r.sys.LookupHost(ctx, name)
	if err != nil {
		return nil, translate(err, name)
	}
	return r.cache.Insert(name, hostentry.New(rec)), nil
}

// HostByAddress reverse-resolves ip to its host entry. The address is
// first mapped to its fully-qualified name; if that name is already
// cached the cached entry is returned, otherwise the name is forward
// resolved and cached under the discovered name, never under the address
// string. Repeat lookups of the same address therefore always re-run the
// reverse step; only the forward step is cache-accelerated. The name
// keying is deliberate: it pays off when many addresses map to one name.
func (r *Resolver) HostByAddress(ctx context.Context, ip net.IP) (*hostentry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fqdn, err := r.sys.LookupAddr(ctx, ip)
	if err != nil {
		return nil, translate(err, ip.String())
	}

	if e, ok := r.cache.Lookup(fqdn); ok {
		return e, nil
	}

	rec, err := r.sys.LookupHost(ctx, fqdn)
	if err != nil {
		return nil, translate(err, ip.String())
	}
	return r.cache.Insert(fqdn, hostentry.New(rec)), nil
}

// Resolve dispatches token to the reverse or forward path. Parsing token
// as an IP literal is authoritative: a string that parses as an address is
// never treated as a hostname.
func (r *Resolver) Resolve(ctx context.Context, token string) (*hostentry.Entry, error) {
	if ip := net.ParseIP(token); ip != nil {
		return r.HostByAddress(ctx, ip)
	}
	return r.HostByName(ctx, token)
}

// ResolveOne resolves token and returns the first address of the result.
// An entry with no addresses fails with a no-address error carrying token;
// no placeholder address is ever synthesized.
func (r *Resolver) ResolveOne(ctx context.Context, token string) (net.IP, error) {
	e, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	addrs := e.Addresses()
	if len(addrs) == 0 {
		return nil, &Error{kind: KindNoAddressFound, host: token}
	}
	return addrs[0], nil
}

// ThisHost resolves the local machine's own host name. If the name cannot
// be obtained from the OS at all the failure is local, not a DNS error.
func (r *Resolver) ThisHost(ctx context.Context) (*hostentry.Entry, error) {
	name, err := r.sys.Hostname()
	if err != nil {
		return nil, &Error{kind: KindLocalHostUnavailable, err: err}
	}
	return r.HostByName(ctx, name)
}

// FlushCache empties the cache. Cached entries are dropped; subsequent
// lookups go back to the backend.
func (r *Resolver) FlushCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Flush()
}
