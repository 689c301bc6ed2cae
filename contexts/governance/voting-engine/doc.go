// Package votingengine implements ballot validation and tallying inside the
// governance context.
//
// The module owns vote admission (membership, voting window, duplicate and
// choice checks), weighted tallies per proposal, and vote event production
// through the outbox-backed relay. It keeps business rules in
// application/domain layers and isolates infrastructure concerns behind
// ports and adapters.
package votingengine
