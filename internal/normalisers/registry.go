// Package normalisers cleans inbound email bodies before analysis and
// indexing: HTML payloads are reduced to text, quoted reply tails and
// signatures are stripped, whitespace is normalised.
package normalisers

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects normalisers by content type and priority. When
// several normalisers match a type, the most specific (highest
// priority) wins.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser, keeping the list sorted by priority,
// highest first.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Get returns the highest-priority normaliser matching the content
// type, or nil when none is registered for it.
func (r *Registry) Get(contentType string) driven.Normaliser {
	if matches := r.GetAll(contentType); len(matches) > 0 {
		return matches[0]
	}
	return nil
}

// GetAll returns every matching normaliser, highest priority first.
func (r *Registry) GetAll(contentType string) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Normaliser
	for _, n := range r.normalisers {
		if typeMatches(n.SupportedTypes(), contentType) {
			matches = append(matches, n)
		}
	}
	return matches
}

// List returns the union of registered content types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Normalise runs every matching normaliser over the content, most
// specific first. Email bodies typically pass through the reply trimmer
// and then the plaintext cleanup.
func (r *Registry) Normalise(content string, contentType string) string {
	for _, n := range r.GetAll(contentType) {
		content = n.Normalise(content, contentType)
	}
	return content
}

// typeMatches reports whether contentType matches any supported type.
// Supported entries may carry a subtype wildcard ("text/*" matches
// "text/plain") or be the universal "*/*". Parameters like charset are
// ignored.
func typeMatches(supportedTypes []string, contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))
		switch {
		case supported == contentType, supported == "*/*":
			return true
		case strings.HasSuffix(supported, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(supported, "*")) {
				return true
			}
		}
	}
	return false
}

// DefaultRegistry creates a registry with the email normalisers
// pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PlaintextNormaliser{})
	r.Register(&HTMLNormaliser{})
	r.Register(&ReplyTrimNormaliser{})
	return r
}

// PlaintextNormaliser is the fallback cleanup for any body: line
// endings unified, blank-line runs collapsed.
type PlaintextNormaliser struct{}

func (n *PlaintextNormaliser) Normalise(content string, contentType string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = collapseBlankLines(content)
	return strings.TrimSpace(content)
}

func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "*/*"}
}

func (n *PlaintextNormaliser) Priority() int {
	return 1
}

// quoteHeaderPattern matches reply markers like
// "On Mon, 2 Jun 2025 ... wrote:"
var quoteHeaderPattern = regexp.MustCompile(`(?m)^On .{0,200}wrote:\s*$`)

// ReplyTrimNormaliser strips quoted reply tails and signatures from
// plain-text email bodies so only the new content gets analysed.
type ReplyTrimNormaliser struct{}

func (n *ReplyTrimNormaliser) Normalise(content string, contentType string) string {
	// Cut at the first "On ... wrote:" marker
	if loc := quoteHeaderPattern.FindStringIndex(content); loc != nil {
		content = content[:loc[0]]
	}

	// Drop "> " quoted lines; a forwarded-message separator ends the
	// new content entirely
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		if strings.HasPrefix(trimmed, "-----Original Message-----") ||
			strings.HasPrefix(trimmed, "---------- Forwarded message") {
			break
		}
		kept = append(kept, line)
	}
	content = strings.Join(kept, "\n")

	// Cut the signature delimiter and everything after it
	if idx := strings.Index(content, "\n-- \n"); idx != -1 {
		content = content[:idx]
	}

	return strings.TrimSpace(content)
}

func (n *ReplyTrimNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "message/rfc822"}
}

func (n *ReplyTrimNormaliser) Priority() int {
	return 90
}

// HTMLNormaliser reduces HTML bodies to plain text: script and style
// blocks removed, tags replaced with spaces, entities decoded.
type HTMLNormaliser struct{}

func (n *HTMLNormaliser) Normalise(content string, contentType string) string {
	content = dropElement(content, "script")
	content = dropElement(content, "style")
	content = stripTags(content)
	content = html.UnescapeString(content)
	content = strings.ReplaceAll(content, "\u00a0", " ")

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}
	content = collapseBlankLines(content)

	return strings.TrimSpace(content)
}

func (n *HTMLNormaliser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *HTMLNormaliser) Priority() int {
	return 50
}

// dropElement removes every <tag>...</tag> block, including content.
// Case-insensitive; an unterminated block is left alone.
func dropElement(content, tag string) string {
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		lower := strings.ToLower(content)
		start := strings.Index(lower, openTag)
		if start == -1 {
			return content
		}
		end := strings.Index(lower[start:], closeTag)
		if end == -1 {
			return content
		}
		content = content[:start] + content[start+end+len(closeTag):]
	}
}

// stripTags replaces each HTML tag with a space so adjacent text does
// not run together.
func stripTags(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseBlankLines(content string) string {
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return content
}
