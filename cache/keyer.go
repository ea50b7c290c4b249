package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Fingerprint is the stable identity of a logical request.
type Fingerprint struct {
	// Key is the store key. Format: cache:<operation>:<shape>:<hash>
	// where hash is the first 16 hex characters of SHA-256(canonical form).
	Key string

	// Canonical is the normalized parameter form the hash was computed
	// from. Reads pass it back to the store to verify the entry they found
	// was written for the same parameters.
	Canonical string
}

// Keyer derives fingerprints from an operation, a shape and its parameters.
//
// Contract:
// - Determinism: semantically equal requests must produce equal
//   fingerprints regardless of map iteration order or the supplied order
//   of set-valued list parameters.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a fingerprint. setParams names the list-valued
	// parameters whose element order is not semantically meaningful; their
	// elements are sorted before hashing. Other lists keep caller order.
	Key(operation, shape string, params map[string]any, setParams []string) (Fingerprint, error)
}

// DefaultKeyer generates SHA-256 based fingerprints over canonical JSON.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic fingerprint for the request.
func (k *DefaultKeyer) Key(operation, shape string, params map[string]any, setParams []string) (Fingerprint, error) {
	sets := make(map[string]bool, len(setParams))
	for _, name := range setParams {
		sets[name] = true
	}

	canonical, err := canonicalizeMap(params, sets)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("cache: failed to canonicalize parameters: %w", err)
	}

	sum := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(sum[:8]) // First 8 bytes = 16 hex chars

	return Fingerprint{
		Key:       fmt.Sprintf("cache:%s:%s:%s", operation, shape, hashStr),
		Canonical: string(canonical),
	}, nil
}

// canonicalize produces a deterministic JSON representation of a value.
// name is the parameter name governing the value, used to decide whether a
// list is set-valued.
func canonicalize(v any, name string, sets map[string]bool) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val, sets)
	case []any:
		return canonicalizeSlice(val, name, sets)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any, sets map[string]bool) ([]byte, error) {
	// Sort keys
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build ordered JSON object
	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k], k, sets)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any, name string, sets map[string]bool) ([]byte, error) {
	elems := make([][]byte, 0, len(s))
	for _, v := range s {
		valBytes, err := canonicalize(v, "", sets)
		if err != nil {
			return nil, err
		}
		elems = append(elems, valBytes)
	}

	// Set-valued parameters hash the same regardless of supplied order.
	if sets[name] {
		sort.Slice(elems, func(i, j int) bool {
			return bytes.Compare(elems[i], elems[j]) < 0
		})
	}

	result := []byte("[")
	for i, e := range elems {
		if i > 0 {
			result = append(result, ',')
		}
		result = append(result, e...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
