// Package daodirectory implements the DAO directory inside the governance
// context.
//
// The module owns DAO registration, membership administration, and the
// proposal reference index other governance modules consult. It keeps
// business rules in application/domain layers and isolates infrastructure
// concerns behind ports and adapters.
package daodirectory
