// Package memory provides the expiring key/value stores that hold visitor
// session state.
//
// Two backends implement the Memory interface:
//
// RedisMemory (shared):
//   - keys are namespaced as "<namespace>:<key>"
//   - every write carries a TTL; a zero TTL uses the store default
//   - suitable when several storefront replicas sit behind one load balancer
//
// InMemoryStore (local):
//   - map guarded by a RWMutex, expiry checked on read
//   - Purge drops expired entries; the session janitor calls it periodically
//
// Values are opaque bytes. Callers encode their own payloads, usually JSON.
//
//	store := memory.NewInMemoryStore()
//	_ = store.Set(ctx, "session:abc", payload, 30*time.Minute)
//	data, err := store.Get(ctx, "session:abc")
//	if errors.Is(err, memory.ErrKeyNotFound) {
//	    // start a fresh session
//	}
package memory
