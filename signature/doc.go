// Package signature derives deduplication keys for operation calls.
//
// A signature identifies an (operation, arguments) pair:
//
//	{operationID}-{encodedArgs}
//
// Operation ids are small integers handed out by a Registry the first time an
// operation value is seen, and reused for the lifetime of the registry. Arguments
// are first resolved through Ref wrappers, so two calls that differ only in wrapper
// identity produce the same signature, and are then encoded deterministically
// (map keys sorted) so structurally equal argument lists always match.
//
// Two encodings are available: JSON (readable, the default) and CBOR using the
// Core Deterministic Encoding rules. Either can be compacted into a 128-bit xxh3
// digest when signatures end up in logs or metric labels.
package signature
