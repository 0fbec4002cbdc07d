// Package directory talks to the LID directory: the service that knows which
// phone number a LID stands for.
//
// Client is the HTTP implementation of domain.DirectoryResolver. Server is
// the in-memory counterpart used by cmd/directory during development and by
// tests.
//
// HTTP API
//
//	POST /lid           {"mappings":[{"lid":"..","pn":".."}]}
//	    Store mappings. Later writes for a LID replace earlier ones.
//
//	POST /lid/resolve   {"lids":[".."]}
//	    Return {"mappings":[...]} for the LIDs that are known. Unknown LIDs
//	    are simply absent.
//
// All requests are JSON and carry an X-Request-ID header. Non-2xx statuses
// are returned as errors with the method, path and status text.
package directory
