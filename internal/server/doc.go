// Package server exposes wizard sessions over a JSON HTTP API and websockets.
//
// Each session wraps one form built from the catalog. Clients drive it with
// plain HTTP calls or over a websocket; every mutation is pushed to all
// websocket subscribers of the session as a fresh snapshot.
//
// # Endpoints
//
//	GET    /healthz
//	GET    /api/version
//	GET    /api/forms
//	GET    /api/forms/{form}
//	POST   /api/sessions                       {"form": "registration"}
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	PUT    /api/sessions/{id}/fields           {"group", "field", "value"}
//	POST   /api/sessions/{id}/advance
//	POST   /api/sessions/{id}/retreat
//	POST   /api/sessions/{id}/submit[?send=true]
//	POST   /api/sessions/{id}/entries
//	PUT    /api/sessions/{id}/entries/{index}  {"value"}
//	DELETE /api/sessions/{id}/entries/{index}
//	GET    /api/records                        (bearer token when configured)
//	GET    /ws/sessions/{id}
//
// # Websocket Protocol
//
// The server sends {"type":"snapshot","snapshot":{...}} on connect and after
// every mutation. Clients may send commands such as
//
//	{"op":"set","group":"personal","field":"name","value":"Alice"}
//	{"op":"advance"}
//	{"op":"submit"}
//
// Submit answers with a "submitted" or "rejected" event; malformed commands
// answer with an "error" event.
//
// # Sessions
//
// Session IDs are random UUIDs. Sessions idle for longer than the configured
// TTL are removed and their websockets closed. Each session serialises
// access to its wizard with its own mutex.
//
// # Discovery
//
// When Advertise is set the server registers "_formwizard._tcp" over mDNS so
// `formwizard scan` can find it.
package server
