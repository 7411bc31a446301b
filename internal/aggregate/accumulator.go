package aggregate

import "strings"

// Ownership is one successful owner_of lookup.
type Ownership struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
}

// Accumulator is the running aggregate of a scan. Each mode has its own
// implementation; the mode never changes after construction.
type Accumulator interface {
	Mode() Mode
	Add(o Ownership)
	// Len is the number of entries the export will contain.
	Len() int
}

// New returns an empty accumulator for mode.
func New(mode Mode) Accumulator {
	switch mode {
	case AllAddresses:
		return &AddressList{}
	case OwnerCount:
		return newOwnerCounts()
	case OwnerTokens:
		return newOwnerTokenTable()
	default:
		return newAddressSet()
	}
}

// AddressSet keeps distinct addresses in first-seen order.
type AddressSet struct {
	seen  map[string]struct{}
	order []string
}

func newAddressSet() *AddressSet { return &AddressSet{seen: make(map[string]struct{})} }

func (s *AddressSet) Mode() Mode { return UniqueAddresses }

func (s *AddressSet) Add(o Ownership) {
	if _, ok := s.seen[o.Owner]; ok {
		return
	}
	s.seen[o.Owner] = struct{}{}
	s.order = append(s.order, o.Owner)
}

func (s *AddressSet) Len() int { return len(s.order) }

// Addresses returns a copy of the set in first-seen order.
func (s *AddressSet) Addresses() []string { return append([]string{}, s.order...) }

// AddressList keeps every address in arrival order.
type AddressList struct {
	addrs []string
}

func (l *AddressList) Mode() Mode { return AllAddresses }

func (l *AddressList) Add(o Ownership) { l.addrs = append(l.addrs, o.Owner) }

func (l *AddressList) Len() int { return len(l.addrs) }

// Addresses returns a copy of the list in arrival order.
func (l *AddressList) Addresses() []string { return append([]string{}, l.addrs...) }

// OwnerCountRow is one row of the count table.
type OwnerCountRow struct {
	Owner  string
	Tokens int
}

// OwnerCounts counts tokens per lowercased address.
type OwnerCounts struct {
	counts map[string]int
	order  []string
}

func newOwnerCounts() *OwnerCounts { return &OwnerCounts{counts: make(map[string]int)} }

func (c *OwnerCounts) Mode() Mode { return OwnerCount }

func (c *OwnerCounts) Add(o Ownership) {
	key := strings.ToLower(o.Owner)
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *OwnerCounts) Len() int { return len(c.order) }

// Count returns the tokens held by addr, compared case-insensitively.
func (c *OwnerCounts) Count(addr string) int { return c.counts[strings.ToLower(addr)] }

// Total is the sum of every count.
func (c *OwnerCounts) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Rows returns the table in first-seen order.
func (c *OwnerCounts) Rows() []OwnerCountRow {
	rows := make([]OwnerCountRow, len(c.order))
	for i, key := range c.order {
		rows[i] = OwnerCountRow{Owner: key, Tokens: c.counts[key]}
	}
	return rows
}

// OwnerTokenList is one entry of the token list table.
type OwnerTokenList struct {
	Owner    string
	TokenIDs []uint64
}

// OwnerTokenTable lists token ids per verbatim address.
type OwnerTokenTable struct {
	tokens map[string][]uint64
	order  []string
}

func newOwnerTokenTable() *OwnerTokenTable { return &OwnerTokenTable{tokens: make(map[string][]uint64)} }

func (t *OwnerTokenTable) Mode() Mode { return OwnerTokens }

func (t *OwnerTokenTable) Add(o Ownership) {
	if _, ok := t.tokens[o.Owner]; !ok {
		t.order = append(t.order, o.Owner)
	}
	t.tokens[o.Owner] = append(t.tokens[o.Owner], o.TokenID)
}

func (t *OwnerTokenTable) Len() int { return len(t.order) }

// Tokens returns a copy of the ids held by addr.
func (t *OwnerTokenTable) Tokens(addr string) []uint64 { return append([]uint64(nil), t.tokens[addr]...) }

// Entries returns the table in first-seen owner order.
func (t *OwnerTokenTable) Entries() []OwnerTokenList {
	out := make([]OwnerTokenList, len(t.order))
	for i, owner := range t.order {
		out[i] = OwnerTokenList{Owner: owner, TokenIDs: append([]uint64(nil), t.tokens[owner]...)}
	}
	return out
}
