// Package main runs the in-memory LID directory used by msgcore during
// development and tests. It answers the same API the directory client in
// internal/directory speaks.
//
// HTTP API
//
//	POST /lid
//	    Store {"mappings":[{"lid","pn"}]}. Later writes for a LID win.
//
//	POST /lid/resolve
//	    Return {"mappings":[...]} for the requested {"lids":[...]} that are
//	    known.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Pairs whose lid is not a LID or whose pn is not a phone-number JID are
//     dropped.
//   - An access log records method, path, remote, status, bytes, duration
//     and request id for each request.
//   - The default listen address is :8081.
package main
