// Package aggregate folds successful ownership lookups into one report shape.
package aggregate

import (
	"fmt"
	"strings"
)

// Mode selects the accumulator shape for a whole scan.
type Mode int

const (
	// UniqueAddresses keeps each owner address once.
	UniqueAddresses Mode = iota
	// AllAddresses keeps one entry per qualifying token, duplicates included.
	AllAddresses
	// OwnerCount counts tokens per lowercased owner address.
	OwnerCount
	// OwnerTokens lists token ids per verbatim owner address.
	OwnerTokens
)

// Modes lists every mode in declaration order.
var Modes = []Mode{UniqueAddresses, AllAddresses, OwnerCount, OwnerTokens}

func (m Mode) String() string {
	switch m {
	case UniqueAddresses:
		return "unique"
	case AllAddresses:
		return "all"
	case OwnerCount:
		return "count"
	case OwnerTokens:
		return "tokens"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Facets reports the two list flags the mode stands for: "only unique"
// addresses and "all holders". Count tables carry neither.
func (m Mode) Facets() (onlyUnique, allHolders bool) {
	switch m {
	case UniqueAddresses:
		return true, false
	case AllAddresses:
		return true, true
	default:
		return false, false
	}
}

// ModeFromFacets maps the list flags onto a mode. Without onlyUnique the
// report is a per-owner token list.
func ModeFromFacets(onlyUnique, allHolders bool) Mode {
	switch {
	case onlyUnique && allHolders:
		return AllAddresses
	case onlyUnique:
		return UniqueAddresses
	default:
		return OwnerTokens
	}
}

// ParseMode accepts the mode names plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unique", "unique_addresses":
		return UniqueAddresses, nil
	case "all", "all_addresses", "holders":
		return AllAddresses, nil
	case "count", "counts", "owner_count":
		return OwnerCount, nil
	case "tokens", "token_list", "owner_tokens":
		return OwnerTokens, nil
	default:
		return 0, fmt.Errorf("unknown aggregation mode %q", s)
	}
}
