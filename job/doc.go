// Package job defines the typed job model, its wire codec, and the
// normalized outcome of running a job against the media API.
//
// # Job Entity
//
// A [Job] is one queued operation. Its [Payload] is a closed sum type with
// one variant per [Action]:
//
//	fetch-from-url   → FetchFromURL{Source, Creator, Name}
//	enable-download  → EnableDownload{UID}
//	enable-captions  → EnableCaptions{UID, Language}
//
// Envelopes that cannot become one of those variants (unknown action,
// unparsable body) decode to [Rejected], which never validates and so
// never reaches a handler.
//
// Notes are free text carried along for diagnostics only.
//
// # Wire Format
//
// Queue message bodies are flat JSON objects discriminated by "action":
//
//	{"action":"fetch-from-url","creator":"c1","name":"n1","source":"http://x/y.mp4","notes":[]}
//	{"action":"enable-download","uid":"abc","notes":[]}
//
// The action names used by earlier producers (uploadFetch,
// enableMP4Download, enableAutoCaptionsEN) are accepted as aliases.
//
// # Outcome
//
// [Outcome] carries the HTTP status of the single outbound call a handler
// made, or a synthetic code for failures detected before or around it:
// [StatusInvalid] for malformed jobs, [StatusUnreachable] for transport
// failures and [StatusMalformedResponse] for 2xx replies with unreadable
// bodies.
package job
