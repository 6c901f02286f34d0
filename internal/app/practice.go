package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lectara/lectara/internal/document"
	"github.com/lectara/lectara/internal/feedback"
	"github.com/lectara/lectara/internal/layout"
	"github.com/lectara/lectara/internal/session"
	"github.com/lectara/lectara/internal/stats"
	"github.com/lectara/lectara/pkg/types"
)

// ErrNoDocument is returned by practice operations before a document has
// been opened.
var ErrNoDocument = errors.New("app: no document open")

// OpenDocument fetches an already-processed document from the backend and
// makes it the active practice text. The first sentence becomes active.
func (a *App) OpenDocument(ctx context.Context, filename string) (document.Document, error) {
	doc, err := a.docs.Load(ctx, filename)
	if err != nil {
		return document.Document{}, fmt.Errorf("app: open document: %w", err)
	}
	a.setDocument(doc)
	return doc, nil
}

// UploadDocument sends a new PDF to the backend for sentence extraction and
// makes the result the active practice text.
func (a *App) UploadDocument(ctx context.Context, filename string, content io.Reader) (document.Document, error) {
	doc, err := a.docs.Upload(ctx, filename, content)
	if err != nil {
		return document.Document{}, fmt.Errorf("app: upload document: %w", err)
	}
	a.setDocument(doc)
	return doc, nil
}

func (a *App) setDocument(doc document.Document) {
	ix := layout.NewIndex(doc.Sentences, layout.WithOnActivate(func(globalIndex int) {
		if _, _, err := a.SetActiveSentence(globalIndex); err != nil {
			slog.Warn("line activation ignored", "sentence", globalIndex, "error", err)
		}
	}))

	a.mu.Lock()
	a.doc = &doc
	a.index = ix
	a.currentPage = 1
	a.active = -1
	if len(doc.Sentences) > 0 {
		a.active = doc.Sentences[0].GlobalIndex
		a.currentPage = doc.Sentences[0].Page
	}
	a.mu.Unlock()

	slog.Info("document opened",
		"filename", doc.Filename,
		"pages", doc.Pages,
		"sentences", len(doc.Sentences))
}

// Document returns the open document, if any.
func (a *App) Document() (document.Document, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.doc == nil {
		return document.Document{}, false
	}
	return *a.doc, true
}

// BindPage recomputes the sentence-to-line mapping for page from the
// renderer's raw positioned elements.
func (a *App) BindPage(page int, elems []layout.TextElement) ([]layout.Binding, error) {
	a.mu.Lock()
	ix := a.index
	if ix != nil {
		a.currentPage = page
	}
	a.mu.Unlock()
	if ix == nil {
		return nil, ErrNoDocument
	}
	return ix.Bind(page, elems), nil
}

// ActivateLine reports the line at the given ordinal position on the bound
// page as clicked. The bound sentence becomes the active one.
func (a *App) ActivateLine(line int) bool {
	a.mu.RLock()
	ix := a.index
	a.mu.RUnlock()
	if ix == nil {
		return false
	}
	return ix.Activate(line)
}

// ActiveSentence returns the sentence practice currently targets.
func (a *App) ActiveSentence() (types.Sentence, bool) {
	a.mu.RLock()
	ix, active := a.index, a.active
	a.mu.RUnlock()
	if ix == nil || active < 0 {
		return types.Sentence{}, false
	}
	return ix.Sentence(active)
}

// SetActiveSentence makes the sentence with the given global index the
// practice target and reports the page it lives on, with switchNeeded set
// when displaying it requires leaving the current page.
func (a *App) SetActiveSentence(globalIndex int) (page int, switchNeeded bool, err error) {
	a.mu.Lock()
	ix, cur := a.index, a.currentPage
	a.mu.Unlock()
	if ix == nil {
		return 0, false, ErrNoDocument
	}
	if _, ok := ix.Sentence(globalIndex); !ok {
		return 0, false, fmt.Errorf("app: no sentence with index %d", globalIndex)
	}

	page, switchNeeded = ix.SyncPage(globalIndex, cur)

	a.mu.Lock()
	a.active = globalIndex
	a.mu.Unlock()
	return page, switchNeeded, nil
}

// NextSentence advances the active sentence by one document position.
// Returns false at the end of the document.
func (a *App) NextSentence() bool { return a.stepSentence(1) }

// PrevSentence moves the active sentence back by one document position.
// Returns false at the start of the document.
func (a *App) PrevSentence() bool { return a.stepSentence(-1) }

func (a *App) stepSentence(delta int) bool {
	a.mu.RLock()
	doc, active := a.doc, a.active
	a.mu.RUnlock()
	if doc == nil {
		return false
	}
	for i, s := range doc.Sentences {
		if s.GlobalIndex != active {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(doc.Sentences) {
			return false
		}
		_, _, err := a.SetActiveSentence(doc.Sentences[j].GlobalIndex)
		return err == nil
	}
	return false
}

// StartRecording begins (or, when already recording, stops) a recording of
// the active sentence. The sentence is pinned for the attempt.
func (a *App) StartRecording(ctx context.Context) error {
	sentence, ok := a.ActiveSentence()
	if !ok {
		return ErrNoDocument
	}
	return a.controller.Start(ctx, sentence)
}

// StopRecording ends the in-flight recording, if any, as a user-requested
// stop. Safe to call at any time.
func (a *App) StopRecording() {
	a.controller.Stop(session.StopUser)
}

// FeedbackView computes the per-word status sequence to render for the
// active sentence, merging the backend verdict, live recognition hints, and
// the neutral default by their fixed precedence.
func (a *App) FeedbackView() []types.WordFeedback {
	sentence, ok := a.ActiveSentence()
	if !ok {
		return nil
	}

	// Verdicts and live hints belong to the attempt's pinned sentence; a
	// different active sentence renders neutrally.
	pinned := a.controller.Sentence().GlobalIndex == sentence.GlobalIndex

	var result *types.PracticeResult
	if res, found := a.controller.Result(); found && pinned {
		result = &res
	}
	recording := pinned && a.controller.State() == session.StateRecording

	return feedback.View(sentence.Text, result, recording, a.controller.RecognizedWords())
}

// ListenToSentence plays the active sentence through the narration voice,
// so the reader can hear it before attempting it.
func (a *App) ListenToSentence(ctx context.Context) error {
	if a.narrator == nil {
		return errors.New("app: narration is not available")
	}
	sentence, ok := a.ActiveSentence()
	if !ok {
		return ErrNoDocument
	}
	return a.narrator.Speak(ctx, sentence.Text)
}

// Progress aggregates every recorded attempt.
func (a *App) Progress(ctx context.Context) (stats.Summary, error) {
	return a.store.Summary(ctx)
}

// WeakWords reports recurring missed words grouped phonetically.
func (a *App) WeakWords(ctx context.Context) ([]stats.WeakWordGroup, error) {
	return a.store.WeakWords(ctx)
}
