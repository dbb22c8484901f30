package calendar

import (
	"go.uber.org/atomic"
)

// Holder publishes the current Repository. A reload builds a fresh Repository
// and swaps it in; readers holding the previous one keep a consistent view.
type Holder struct {
	current *atomic.Pointer[Repository]
}

// NewHolder returns a Holder publishing repo, which may be nil until the first load.
func NewHolder(repo *Repository) *Holder {
	return &Holder{current: atomic.NewPointer(repo)}
}

// Current returns the published repository, or nil if none has loaded yet.
func (h *Holder) Current() *Repository {
	return h.current.Load()
}

// Swap publishes repo and returns the previously published repository.
func (h *Holder) Swap(repo *Repository) *Repository {
	return h.current.Swap(repo)
}

// Ready reports whether a repository has been published.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}
