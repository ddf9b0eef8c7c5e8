// Package rpc owns the synchronous request/response substrate shared by all
// services.
//
// Ownership boundary:
// - connection handling and dispatch (Server)
// - one-shot client calls (Client)
// - the {success,message} error envelope
//
// One connection carries exactly one request/response pair. The handler
// table is populated before Start and is read-only afterwards.
package rpc
