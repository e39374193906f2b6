// Package codec converts between pollbus values and the bus wire protocol.
//
// Outbound, it turns an OutboundMessage into the absolute URL of a publish
// GET request:
//
//	/publish/{pub_key}/{sub_key}/0/{channel}/0/{escaped-json}[?meta=..&o=..&ear=..&seqn=..]
//
// Inbound, it parses subscribe responses in either the legacy array shape
//
//	[[msg, msg, ...], "timetoken"]
//	[[msg, msg, ...], "timetoken", "chan-a,chan-b,..."]
//
// or the multi-channel envelope shape
//
//	{"t":{"t":"timetoken","r":region},"m":[{"c":"chan","d":payload, ...}]}
//
// and history responses of the form [messages, start, end].
//
// URLs are built by string concatenation with strict percent-escaping (every
// byte except RFC 3986 unreserved characters) so that JSON payloads survive
// path embedding unchanged.
package codec
