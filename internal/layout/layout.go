// Package layout maps document sentences onto the positioned text regions the
// rendering engine reports for the currently displayed page.
//
// The renderer supplies raw positioned elements after every page render. They
// are clustered into visual lines, and the page's sentences are paired with
// those lines by ordinal position. Pairing is positional, not content-matched:
// cross-engine text extraction is too noisy for text similarity to be a
// reliable contract, while "the Nth sentence on the page is the Nth line" is
// reproducible. The resulting mapping is derived, disposable state, recomputed
// on every render and never treated as ground truth for anything but
// highlighting and click targets.
package layout

import (
	"sync"

	"github.com/lectara/lectara/pkg/types"
)

// ClusterTolerance is the vertical distance (in layout units) at which an
// element no longer belongs to the running line group.
const ClusterTolerance = 10

// TextElement is one positioned text item reported by the rendering engine.
type TextElement struct {
	// ID identifies the element within the renderer, so activations and
	// highlight instructions can refer back to it.
	ID string

	// Offset is the element's vertical offset on the page, in layout units.
	Offset float64

	// Text is the element's text content. Elements with empty text are
	// discarded before clustering.
	Text string
}

// Group is one visually clustered line of elements.
type Group []TextElement

// Cluster groups elements into lines. Elements are scanned in visual order; a
// new group starts whenever an element's vertical offset exceeds the running
// group's anchor (its first element) by ClusterTolerance or more. Empty-text
// elements are dropped first.
func Cluster(elems []TextElement) []Group {
	var groups []Group
	var current Group
	var anchor float64

	for _, el := range elems {
		if el.Text == "" {
			continue
		}
		if current == nil {
			current = Group{el}
			anchor = el.Offset
			continue
		}
		if diff := el.Offset - anchor; diff >= ClusterTolerance || diff <= -ClusterTolerance {
			groups = append(groups, current)
			current = Group{el}
			anchor = el.Offset
			continue
		}
		current = append(current, el)
	}
	if current != nil {
		groups = append(groups, current)
	}
	return groups
}

// Binding pairs one page-local sentence with the line group at the same
// ordinal position. Elements is empty when the detector found fewer lines
// than the page has sentences.
type Binding struct {
	Sentence types.Sentence
	Elements Group
}

// Index owns the sentence list for the open document and the current page's
// sentence-to-line mapping. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	sentences []types.Sentence
	bindings  []Binding
	boundPage int

	onActivate func(globalIndex int)
}

// Option is a functional option for configuring an Index.
type Option func(*Index)

// WithOnActivate registers the callback invoked when a bound line is
// activated (the jump-to-sentence gesture). It receives the sentence's global
// index.
func WithOnActivate(fn func(globalIndex int)) Option {
	return func(ix *Index) { ix.onActivate = fn }
}

// NewIndex creates an Index over the document's full ordered sentence list.
// The list is immutable for the life of the session.
func NewIndex(sentences []types.Sentence, opts ...Option) *Index {
	ix := &Index{sentences: sentences}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// Bind recomputes the mapping for page from the renderer's raw elements,
// replacing any previous page's bindings so stale click targets cannot
// survive a page switch. Excess sentences bind to an empty element set;
// excess line groups are ignored.
func (ix *Index) Bind(page int, elems []TextElement) []Binding {
	groups := Cluster(elems)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.bindings = ix.bindings[:0]
	ix.boundPage = page
	for _, s := range ix.sentences {
		if s.Page != page {
			continue
		}
		b := Binding{Sentence: s}
		if n := len(ix.bindings); n < len(groups) {
			b.Elements = groups[n]
		}
		ix.bindings = append(ix.bindings, b)
	}

	out := make([]Binding, len(ix.bindings))
	copy(out, ix.bindings)
	return out
}

// Bindings returns a copy of the current page's mapping.
func (ix *Index) Bindings() []Binding {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Binding, len(ix.bindings))
	copy(out, ix.bindings)
	return out
}

// Activate reports the line at ordinal position line on the bound page as
// clicked, invoking the activation callback with the bound sentence's global
// index. Returns false when the position is not bound.
func (ix *Index) Activate(line int) bool {
	ix.mu.RLock()
	if line < 0 || line >= len(ix.bindings) {
		ix.mu.RUnlock()
		return false
	}
	global := ix.bindings[line].Sentence.GlobalIndex
	fn := ix.onActivate
	ix.mu.RUnlock()

	if fn != nil {
		fn(global)
	}
	return true
}

// PageOf returns the page of the sentence with the given global index.
func (ix *Index) PageOf(globalIndex int) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, s := range ix.sentences {
		if s.GlobalIndex == globalIndex {
			return s.Page, true
		}
	}
	return 0, false
}

// Sentence returns the sentence with the given global index.
func (ix *Index) Sentence(globalIndex int) (types.Sentence, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, s := range ix.sentences {
		if s.GlobalIndex == globalIndex {
			return s, true
		}
	}
	return types.Sentence{}, false
}

// SyncPage decides whether displaying the sentence with the given global
// index requires a page switch away from currentPage. Page navigation is a
// consequence of sentence-index change, never the reverse: callers switch to
// the returned page before the next highlight render.
func (ix *Index) SyncPage(globalIndex, currentPage int) (page int, switchNeeded bool) {
	p, ok := ix.PageOf(globalIndex)
	if !ok {
		return currentPage, false
	}
	return p, p != currentPage
}
