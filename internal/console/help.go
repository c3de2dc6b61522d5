package console

// HelpEntry is one line of help output.
type HelpEntry struct {
	Pattern     string
	Description string
}

// Help is a help request. Listeners add entries for the requested Prefix;
// an empty Prefix asks for the top-level overview.
type Help struct {
	Prefix string

	order   []string
	entries map[string]string
}

// NewHelp creates an empty help request for prefix.
func NewHelp(prefix string) *Help {
	return &Help{
		Prefix:  prefix,
		entries: make(map[string]string),
	}
}

// Set adds or replaces the description for pattern. A replaced pattern keeps
// its original position.
func (h *Help) Set(pattern, description string) {
	if _, ok := h.entries[pattern]; !ok {
		h.order = append(h.order, pattern)
	}
	h.entries[pattern] = description
}

// Get returns the description registered for pattern.
func (h *Help) Get(pattern string) (string, bool) {
	d, ok := h.entries[pattern]
	return d, ok
}

// Len returns the number of entries.
func (h *Help) Len() int {
	return len(h.order)
}

// Entries returns the entries in the order they were first set.
func (h *Help) Entries() []HelpEntry {
	out := make([]HelpEntry, 0, len(h.order))
	for _, p := range h.order {
		out = append(out, HelpEntry{Pattern: p, Description: h.entries[p]})
	}
	return out
}
