package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/variantforge/internal/schema"
)

// Domain prefixes. The version suffix allows the key layout to change
// without colliding with keys already stored.
const (
	DomainCombination = "variantforge/combination/v1"
	DomainPlacement   = "variantforge/placement/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Combination returns the key of a top-level combination.
func Combination(c schema.Combination) (string, error) {
	canonical, err := CanonicalCombination(c)
	if err != nil {
		return "", fmt.Errorf("combination key: %w", err)
	}
	return hashWithDomain(DomainCombination, canonical), nil
}

// Placement returns the key of a placed clone: its component, its
// combination and, for nested clones, the exposed instance and the nested
// combination applied to it.
func Placement(component string, c schema.Combination, nested string, nc schema.Combination) (string, error) {
	top, err := combinationObject(c)
	if err != nil {
		return "", fmt.Errorf("placement key: %w", err)
	}
	obj := map[string]any{
		"component":   component,
		"combination": top,
	}
	if nested != "" {
		inner, err := combinationObject(nc)
		if err != nil {
			return "", fmt.Errorf("placement key: nested %s: %w", nested, err)
		}
		obj["nested"] = map[string]any{"id": nested, "combination": inner}
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("placement key: %w", err)
	}
	return hashWithDomain(DomainPlacement, canonical), nil
}

// MustCombination is like Combination but panics on error.
// Use only in tests or when the combination is known to be valid.
func MustCombination(c schema.Combination) string {
	key, err := Combination(c)
	if err != nil {
		panic(err)
	}
	return key
}
