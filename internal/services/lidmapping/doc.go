// Package lidmapping keeps the bidirectional LID<->PN correlation for one
// authenticated session.
//
// Entries are user level ("lid:<user>" and "pn:<user>") in a bounded LRU with
// TTL; device ids are carried over from the query when a result is built.
// Misses fall through to an injected directory resolver, always under a
// timeout. Writes go to the cache first and are then persisted best-effort to
// the key store as {pnUser: lidUser, lidUser+"_reverse": pnUser}.
package lidmapping
