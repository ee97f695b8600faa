package wastetype

import "strings"

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() map[string]string {
	return map[string]string{
		"batteries":  "battery",
		"e_waste":    "e-waste",
		"ewaste":     "e-waste",
		"electronic": "electronics",
		"plastics":   "plastic",
		"papers":     "paper",
		"organics":   "organic",
		"foods":      "food",
		"glasses":    "glass",
		"metals":     "metal",
		"medicals":   "medical",
	}
}

// Normalizer maps free-text and model-output labels onto the canonical vocabulary.
type Normalizer struct {
	table   *Table
	aliases map[string]string
}

// NewNormalizer creates a normalizer over the given table and aliases.
// Alias keys and targets are lower-cased; nil aliases means none.
func NewNormalizer(table *Table, aliases map[string]string) *Normalizer {
	copied := make(map[string]string, len(aliases))
	for from, to := range aliases {
		copied[strings.ToLower(strings.TrimSpace(from))] = strings.ToLower(strings.TrimSpace(to))
	}
	return &Normalizer{table: table, aliases: copied}
}

// DefaultNormalizer uses the built-in table and aliases.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultTable(), DefaultAliases())
}

// Table returns the weight table backing the normalizer.
func (n *Normalizer) Table() *Table {
	return n.table
}

// Resolve lower-cases, trims and applies the alias table without
// checking the vocabulary. Empty input resolves to Unknown.
func (n *Normalizer) Resolve(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return Unknown
	}
	if alias, ok := n.aliases[key]; ok {
		return alias
	}
	return key
}

// Normalize returns the canonical type for label. It never fails:
// empty input yields Unknown and anything outside the vocabulary yields Trash.
func (n *Normalizer) Normalize(label string) string {
	resolved := n.Resolve(label)
	if resolved == Unknown {
		return Unknown
	}
	if !n.table.Contains(resolved) {
		return Trash
	}
	return resolved
}
