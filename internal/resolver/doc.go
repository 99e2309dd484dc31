// Package resolver implements the cached host resolution core of hostd.
//
// A Resolver maps hostnames and IP addresses to immutable host entries
// (canonical name, aliases, addresses), caches results keyed by the query
// string, and translates backend failure codes into a typed error
// taxonomy.
//
// # Basic Usage
//
// Construct a resolver over a name-service backend and resolve:
//
//	res := resolver.New(nameservice.New(5 * time.Second))
//	entry, err := res.Resolve(ctx, "example.com")
//	if err != nil {
//		if errors.Is(err, resolver.ErrHostNotFound) {
//			// authoritative negative answer
//		}
//		return err
//	}
//	for _, ip := range entry.Addresses() {
//		fmt.Println(ip)
//	}
//
// Resolve dispatches on the query string: IP literals take the reverse
// path (address to name to entry), everything else the forward path.
// ResolveOne is the convenience form returning just the first address.
//
// # Caching
//
// Entries are cached until FlushCache; there is no TTL. Forward lookups
// are keyed by the queried name. Reverse lookups are keyed by the
// discovered canonical name, not the address string, so the reverse step
// always hits the backend while the forward step is served from
// cache. Cache instances are injectable (WithStore) so tests and multiple
// resolvers can control sharing explicitly.
//
// # Concurrency
//
// All operations are safe for concurrent use. Each holds a single mutex
// across its whole body, including the blocking backend call: resolution
// is fully serialized, which guarantees no duplicated backend calls for
// the same key at the cost of one-at-a-time throughput.
//
// # Errors
//
// Failures are *Error values classified by Kind and matchable with
// errors.Is against the exported sentinels (ErrHostNotFound,
// ErrTemporaryFailure, ...). Unrecognized backend codes fall back to
// ErrIOFailure with the raw code attached. The package performs no
// logging and no retries; policy belongs to callers.
package resolver
