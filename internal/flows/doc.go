// Package flows contains pure-function orchestrators for every Engine
// operation.
//
// Each flow function (RunMint, RunRotate, RunRecover, etc.) accepts a
// typed dependency struct and returns a result carrying either the
// operation payload or a classified FailureKind. The root package maps
// FailureKinds to its sentinel errors, increments metrics, and emits
// audit events; flows stay free of those concerns.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the token codec, the revocation
// store, the credential hasher, and the user provider. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency
//     contracts.
package flows
