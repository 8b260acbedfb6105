// Package password implements credential hashing and verification with
// Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// This package owns hashing and verification only. Password policy
// (length, required character classes) is enforced by the registration
// flow; callers supply plaintext and receive hashes, and plaintext never
// travels further than this package.
package password
