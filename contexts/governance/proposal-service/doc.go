// Package proposalservice implements the proposal lifecycle inside the
// governance context.
//
// The module owns proposal admission, lifecycle transitions, settlement
// against vote tallies, and the expiration sweep that closes voting windows.
// It keeps business rules in application/domain layers and isolates
// infrastructure concerns behind ports and adapters.
package proposalservice
