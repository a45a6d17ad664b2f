// Package disqus is a thin client for the Disqus REST API (version 3.0).
//
// Every call goes to <base>/api/3.0/<kind>/<name>.json. Reads are sent as GET
// with a query string and writes as POST with a form body. The secret key is
// attached to every request, the public key when configured, and the access
// token on writes only.
//
// Responses arrive in an envelope {"code": int, "response": ...}. A zero code
// yields the response member untouched; any other code becomes a
// *RemoteAPIError carrying the envelope verbatim. Transport failures,
// timeouts and undecodable bodies are reported as request errors, see
// IsRequestError and IsTimeout.
//
// The client performs no caching; see package clientcache for the cached
// decorator.
package disqus
