package entities

import "sort"

// BankEntry is one entry of the bank catalog.
type BankEntry struct {
	Key  string `json:"-"`
	Name string `json:"bank_name"`
	File string `json:"bank_file"`
}

// Catalog maps bank keys to their entries.
type Catalog map[string]BankEntry

// Entries returns catalog entries sorted by key.
func (c Catalog) Entries() []BankEntry {
	out := make([]BankEntry, 0, len(c))
	for key, entry := range c {
		entry.Key = key
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
