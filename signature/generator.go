package signature

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"

	"github.com/arloliu/coalesce/types"
)

// Encoding selects how resolved arguments are serialized into a signature.
type Encoding string

const (
	// EncodingJSON serializes arguments as JSON. Map keys are sorted, so the output
	// is deterministic for structurally equal values.
	EncodingJSON Encoding = "json"

	// EncodingCBOR serializes arguments with CBOR Core Deterministic Encoding and
	// renders the bytes as hex.
	EncodingCBOR Encoding = "cbor"
)

var cborMode, cborModeErr = cbor.CoreDetEncOptions().EncMode()

func marshalCBOR(v any) ([]byte, error) {
	if cborModeErr != nil {
		return nil, fmt.Errorf("cbor encoder unavailable: %w", cborModeErr)
	}

	return cborMode.Marshal(v)
}

// ParseEncoding converts a configuration string into an Encoding.
//
// Parameters:
//   - s: Encoding name ("json" or "cbor", case-insensitive; empty means json)
//
// Returns:
//   - Encoding: Parsed encoding
//   - error: ErrUnknownEncoding for any other name
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(EncodingJSON):
		return EncodingJSON, nil
	case string(EncodingCBOR):
		return EncodingCBOR, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownEncoding, s)
	}
}

// Generator derives signatures for operation calls.
//
// Generator is immutable after construction and safe for concurrent use.
type Generator struct {
	registry *Registry
	encoding Encoding
	compact  bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithRegistry sets the operation id registry (defaults to DefaultRegistry).
func WithRegistry(r *Registry) Option {
	return func(g *Generator) {
		g.registry = r
	}
}

// WithEncoding sets the argument encoding (defaults to EncodingJSON).
func WithEncoding(e Encoding) Option {
	return func(g *Generator) {
		g.encoding = e
	}
}

// WithCompact replaces the encoded arguments with a 128-bit xxh3 digest.
func WithCompact(compact bool) Option {
	return func(g *Generator) {
		g.compact = compact
	}
}

// NewGenerator creates a signature generator.
//
// Parameters:
//   - opts: Optional registry, encoding and compaction settings
//
// Returns:
//   - *Generator: Configured generator
//   - error: ErrUnknownEncoding if the encoding is not supported
//
// Example:
//
//	gen, _ := signature.NewGenerator(signature.WithEncoding(signature.EncodingCBOR))
//	sig, err := gen.Sign(fetchUser, []any{42})
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		registry: DefaultRegistry,
		encoding: EncodingJSON,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.registry == nil {
		g.registry = DefaultRegistry
	}
	if _, err := ParseEncoding(string(g.encoding)); err != nil {
		return nil, err
	}

	return g, nil
}

// Registry returns the operation id registry used by the generator.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Sign returns the signature of calling op with args.
//
// Parameters:
//   - op: Comparable operation identity
//   - args: Positional arguments, possibly containing Refs
//
// Returns:
//   - string: Signature in the form "{operationID}-{encodedArgs}"
//   - error: ErrUnencodableArgs if an argument cannot be serialized
func (g *Generator) Sign(op any, args []any) (string, error) {
	encoded, err := g.encode(ResolveArgs(args))
	if err != nil {
		return "", err
	}

	if g.compact {
		sum := xxh3.Hash128([]byte(encoded))
		encoded = fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
	}

	return strconv.FormatUint(g.registry.ID(op), 10) + "-" + encoded, nil
}

func (g *Generator) encode(args []any) (string, error) {
	switch g.encoding {
	case EncodingCBOR:
		data, err := marshalCBOR(args)
		if err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrUnencodableArgs, err)
		}

		return hex.EncodeToString(data), nil
	default:
		data, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("%w: %w", types.ErrUnencodableArgs, err)
		}

		return string(data), nil
	}
}
