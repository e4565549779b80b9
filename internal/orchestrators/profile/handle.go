package profile

import (
	"context"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
)

// Handle is a borrowed reference to one identity's cached profile. Every
// handle for the same identity sees the same profile; the registry persists
// whatever it holds when the identity's handling wave ends.
type Handle struct {
	o   *orchestrator
	rec *record
}

// ProfileType returns the profile kind the handle points at
func (h *Handle) ProfileType() entities.ProfileType { return h.rec.profileType }

// Identity returns the owner identity
func (h *Handle) Identity() string { return h.rec.identity }

// Snapshot returns a deep copy of the profile, loading it first if needed
func (h *Handle) Snapshot(ctx context.Context) (*entities.Profile, error) {
	if _, err := h.o.ensureLoaded(ctx, h.rec); err != nil {
		return nil, err
	}

	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return h.rec.profile.Clone(), nil
}

// Update applies fn to a working copy of the profile and swaps it in when fn
// succeeds. Concurrent updates on the same identity are serialized; the last
// one to finish wins.
func (h *Handle) Update(ctx context.Context, fn EditFunc) error {
	if fn == nil {
		return errors.InvalidArgument("update function cannot be nil")
	}
	if _, err := h.o.ensureLoaded(ctx, h.rec); err != nil {
		return err
	}

	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()

	working := h.rec.profile.Clone()
	if err := fn(working); err != nil {
		return err
	}
	h.rec.profile = working
	return nil
}
