// Package profile implements the profile cache and session registry. It is
// the single authority for reading and writing user and guild profiles:
// each identity gets at most one outstanding load, its interaction events are
// grouped into handling waves, and the profile is written back once per wave
// after every event in it has stopped.
package profile

//go:generate mockgen -destination=mock/mock_service.go -package=profilemock github.com/KirkDiggler/rpg-community-bot/internal/orchestrators/profile Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KirkDiggler/rpg-community-bot/internal/entities"
	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/interaction"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents"
)

const (
	// Registration error messages surfaced to users
	MessageInvalidEventType = "Invalid Interaction Event Type"
	MessageDuplicateEvent   = "Duplicate Interaction Event"

	DefaultSaveRetries   = 3
	DefaultRetryInterval = 200 * time.Millisecond
)

// Service defines the interface for profile and session operations
type Service interface {
	// Register opens an interaction event of the given kind for an identity.
	// Returns errors.InvalidArgument for an unknown kind or bad identity,
	// errors.AlreadyExists when a non-stoppable event of that kind is live,
	// and errors.Unavailable after Shutdown.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// GetEvent finds the live event of a kind, preferring the handling wave
	GetEvent(ctx context.Context, input *GetEventInput) (*GetEventOutput, error)

	// ProfileData returns the cached profile, loading it on first access
	ProfileData(ctx context.Context, input *ProfileDataInput) (*ProfileDataOutput, error)

	// Edit applies a mutation inside a short-lived edit event
	Edit(ctx context.Context, input *EditInput) (*EditOutput, error)

	// Shutdown stops every live event and waits for in-flight waves to persist
	Shutdown(ctx context.Context) error
}

// Config holds the dependencies for the profile orchestrator
type Config struct {
	DocumentRepo documents.Repository
	Clock        clock.Clock
	IDGenerator  idgen.Generator

	// SaveRetries is the number of attempts made to persist at the end of a
	// wave. Zero uses DefaultSaveRetries.
	SaveRetries   int
	RetryInterval time.Duration

	// Timeouts overrides the inactivity window per kind
	Timeouts map[interaction.Kind]time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if c.DocumentRepo == nil {
		vb.RequiredField("DocumentRepo")
	}
	if c.SaveRetries < 0 {
		vb.Field("SaveRetries", "cannot be negative")
	}
	if c.RetryInterval < 0 {
		vb.Field("RetryInterval", "cannot be negative")
	}
	return vb.Build()
}

// record is the per-identity session state. profile is guarded by mu; the
// queue fields are guarded by the orchestrator's mu.
type record struct {
	key         string
	profileType entities.ProfileType
	identity    string

	mu      sync.Mutex
	profile *entities.Profile

	pending  []*interaction.Event
	handling []*interaction.Event
	waving   bool
	waveDone chan struct{}
}

type orchestrator struct {
	repo          documents.Repository
	clock         clock.Clock
	idGen         idgen.Generator
	saveRetries   int
	retryInterval time.Duration
	timeouts      map[interaction.Kind]time.Duration

	loads singleflight.Group

	mu      sync.Mutex
	records map[string]*record
	closed  bool
}

// NewOrchestrator creates a new profile orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &orchestrator{
		repo:          cfg.DocumentRepo,
		clock:         cfg.Clock,
		idGen:         cfg.IDGenerator,
		saveRetries:   cfg.SaveRetries,
		retryInterval: cfg.RetryInterval,
		timeouts:      cfg.Timeouts,
		records:       make(map[string]*record),
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.idGen == nil {
		o.idGen = idgen.NewUUID("evt")
	}
	if o.saveRetries == 0 {
		o.saveRetries = DefaultSaveRetries
	}
	if o.retryInterval == 0 {
		o.retryInterval = DefaultRetryInterval
	}

	return o, nil
}

func validateIdentity(profileType entities.ProfileType, identity string) error {
	vb := errors.NewValidationBuilder()
	if !profileType.IsValid() {
		vb.Fieldf("profile_type", "unknown profile type %q", profileType)
	}
	errors.ValidateRequired("identity", identity, vb)
	return vb.Build()
}

func recordKey(profileType entities.ProfileType, identity string) string {
	return string(profileType) + ":" + identity
}

// recordLocked returns the record for an identity, creating it on first use.
// Callers hold o.mu.
func (o *orchestrator) recordLocked(profileType entities.ProfileType, identity string) *record {
	key := recordKey(profileType, identity)
	rec, ok := o.records[key]
	if !ok {
		rec = &record{
			key:         key,
			profileType: profileType,
			identity:    identity,
		}
		o.records[key] = rec
	}
	return rec
}

func (o *orchestrator) recordFor(profileType entities.ProfileType, identity string) *record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recordLocked(profileType, identity)
}

func (o *orchestrator) Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	def, ok := interaction.Lookup(input.Kind)
	if !ok {
		return nil, errors.InvalidArgument(MessageInvalidEventType).
			WithMeta("kind", string(input.Kind))
	}
	if err := validateIdentity(input.ProfileType, input.Identity); err != nil {
		return nil, err
	}

	timeout := def.Timeout
	if t, ok := o.timeouts[input.Kind]; ok && t > 0 {
		timeout = t
	}
	if input.Options.Timeout > 0 {
		timeout = input.Options.Timeout
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, errors.Unavailable("profile registry is shutting down")
	}

	rec := o.recordLocked(input.ProfileType, input.Identity)

	var superseded []*interaction.Event
	for _, existing := range rec.liveLocked(input.Kind) {
		if !existing.Stoppable() {
			o.mu.Unlock()
			return nil, errors.AlreadyExists(MessageDuplicateEvent).
				WithMeta("identity", input.Identity).
				WithMeta("kind", string(input.Kind)).
				WithMeta("existing_event_id", existing.ID())
		}
		superseded = append(superseded, existing)
	}

	event, err := interaction.New(&interaction.Config{
		Kind:        input.Kind,
		Owner:       input.Identity,
		Stoppable:   def.Stoppable,
		Timeout:     timeout,
		Resource:    input.Options.Resource,
		Clock:       o.clock,
		IDGenerator: o.idGen,
	})
	if err != nil {
		o.mu.Unlock()
		return nil, errors.Wrap(err, "failed to create interaction event")
	}

	rec.pending = append(rec.pending, event)
	o.maybeStartWaveLocked(rec)
	o.mu.Unlock()

	for _, old := range superseded {
		if old.StopFor(interaction.StopReasonSuperseded) {
			slog.DebugContext(ctx, "interaction event superseded",
				"identity", input.Identity,
				"kind", input.Kind,
				"event_id", old.ID(),
				"replacement_id", event.ID())
		}
	}

	// Warm the cache without holding up the caller
	go func() {
		loadCtx := context.WithoutCancel(ctx)
		if _, err := o.ensureLoaded(loadCtx, rec); err != nil {
			slog.WarnContext(loadCtx, "failed to preload profile",
				"identity", rec.identity,
				"profile_type", rec.profileType,
				"error", err)
		}
	}()

	return &RegisterOutput{
		Event:   event,
		Profile: &Handle{o: o, rec: rec},
	}, nil
}

// liveLocked returns the non-stopped events of a kind, handling wave first.
// Callers hold o.mu.
func (r *record) liveLocked(kind interaction.Kind) []*interaction.Event {
	var live []*interaction.Event
	for _, queue := range [][]*interaction.Event{r.handling, r.pending} {
		for _, e := range queue {
			if e.Kind() == kind && !e.Stopped() {
				live = append(live, e)
			}
		}
	}
	return live
}

func (o *orchestrator) GetEvent(_ context.Context, input *GetEventInput) (*GetEventOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateIdentity(input.ProfileType, input.Identity); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.records[recordKey(input.ProfileType, input.Identity)]
	if !ok {
		return &GetEventOutput{}, nil
	}

	live := rec.liveLocked(input.Kind)
	if len(live) == 0 {
		return &GetEventOutput{}, nil
	}
	return &GetEventOutput{Event: live[0]}, nil
}

func (o *orchestrator) ProfileData(ctx context.Context, input *ProfileDataInput) (*ProfileDataOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateIdentity(input.ProfileType, input.Identity); err != nil {
		return nil, err
	}

	h := &Handle{o: o, rec: o.recordFor(input.ProfileType, input.Identity)}
	snapshot, err := h.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &ProfileDataOutput{Profile: snapshot, Handle: h}, nil
}

func (o *orchestrator) Edit(ctx context.Context, input *EditInput) (*EditOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Apply == nil {
		return nil, errors.InvalidArgument("apply function is required")
	}

	reg, err := o.Register(ctx, &RegisterInput{
		ProfileType: input.ProfileType,
		Identity:    input.Identity,
		Kind:        interaction.KindEdit,
	})
	if err != nil {
		return nil, err
	}
	defer reg.Event.Stop()

	if err := reg.Profile.Update(ctx, input.Apply); err != nil {
		return nil, err
	}

	snapshot, err := reg.Profile.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &EditOutput{Profile: snapshot}, nil
}

func (o *orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true

	var live []*interaction.Event
	var waves []<-chan struct{}
	for _, rec := range o.records {
		live = append(live, rec.handling...)
		live = append(live, rec.pending...)
		if rec.waving {
			waves = append(waves, rec.waveDone)
		}
	}
	o.mu.Unlock()

	for _, e := range live {
		e.StopFor(interaction.StopReasonShutdown)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, done := range waves {
		g.Go(func() error {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "shutdown interrupted before profiles were persisted")
	}
	return nil
}

// maybeStartWaveLocked launches the wave loop when none is running for the
// record. Callers hold o.mu.
func (o *orchestrator) maybeStartWaveLocked(rec *record) {
	if rec.waving {
		return
	}
	rec.waving = true
	rec.waveDone = make(chan struct{})
	go o.runWave(rec)
}

// runWave drives handling waves for one identity until no events remain,
// persisting once each time the queues drain.
func (o *orchestrator) runWave(rec *record) {
	ctx := context.Background()

	for {
		o.mu.Lock()
		handling := rec.pending
		rec.handling = handling
		rec.pending = nil
		o.mu.Unlock()

		for _, e := range handling {
			<-e.Done()
		}
		for _, e := range handling {
			e.StopFor(interaction.StopReasonWaveEnd)
		}

		o.mu.Lock()
		rec.handling = nil
		if len(rec.pending) > 0 {
			o.mu.Unlock()
			continue
		}
		o.mu.Unlock()

		o.persist(ctx, rec)

		o.mu.Lock()
		if len(rec.pending) > 0 {
			o.mu.Unlock()
			continue
		}
		rec.waving = false
		close(rec.waveDone)
		o.mu.Unlock()
		return
	}
}

// ensureLoaded returns the cached profile, fetching it through singleflight
// so concurrent callers share one store read. A failed load leaves the cache
// empty for the next caller to retry.
func (o *orchestrator) ensureLoaded(ctx context.Context, rec *record) (*entities.Profile, error) {
	rec.mu.Lock()
	if rec.profile != nil {
		p := rec.profile
		rec.mu.Unlock()
		return p, nil
	}
	rec.mu.Unlock()

	ch := o.loads.DoChan(rec.key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)

		rec.mu.Lock()
		if rec.profile != nil {
			p := rec.profile
			rec.mu.Unlock()
			return p, nil
		}
		rec.mu.Unlock()

		loaded, err := o.fetch(loadCtx, rec)
		if err != nil {
			return nil, err
		}

		rec.mu.Lock()
		defer rec.mu.Unlock()
		if rec.profile == nil {
			rec.profile = loaded
		}
		return rec.profile, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.WrapWithCode(ctx.Err(), errors.CodeCanceled, "profile load abandoned")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entities.Profile), nil
	}
}

func (o *orchestrator) fetch(ctx context.Context, rec *record) (*entities.Profile, error) {
	out, err := o.repo.Get(ctx, documents.GetInput{
		Collection: rec.profileType.Collection(),
		ID:         rec.identity,
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return entities.NewProfile(rec.profileType, rec.identity), nil
		}
		slog.WarnContext(ctx, "failed to load profile",
			"identity", rec.identity,
			"profile_type", rec.profileType,
			"error", err)
		return nil, errors.Wrapf(err, "failed to load %s profile %s", rec.profileType, rec.identity)
	}

	var p entities.Profile
	if err := json.Unmarshal(out.Document.Data, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s profile %s", rec.profileType, rec.identity)
	}
	p.Type = rec.profileType

	// Documents written before a section existed decode without it
	defaults := entities.NewProfile(rec.profileType, rec.identity)
	if p.User == nil {
		p.User = defaults.User
	}
	if p.Guild == nil {
		p.Guild = defaults.Guild
	}
	return &p, nil
}

// persist writes the identity's current profile, retrying with exponential
// backoff. Failures are logged and dropped.
func (o *orchestrator) persist(ctx context.Context, rec *record) {
	if _, err := o.ensureLoaded(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "skipping profile persistence, profile never loaded",
			"identity", rec.identity,
			"profile_type", rec.profileType,
			"error", err)
		return
	}

	rec.mu.Lock()
	data, err := json.Marshal(rec.profile)
	rec.mu.Unlock()
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode profile",
			"identity", rec.identity,
			"error", err)
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.retryInterval

	_, err = backoff.Retry(ctx, func() (*documents.SaveOutput, error) {
		out, err := o.repo.Save(ctx, documents.SaveInput{
			Collection: rec.profileType.Collection(),
			ID:         rec.identity,
			Data:       data,
		})
		if err != nil && errors.IsInvalidArgument(err) {
			return nil, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(o.saveRetries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "retrying profile persistence",
				"identity", rec.identity,
				"profile_type", rec.profileType,
				"retry_in", next,
				"error", err)
		}),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist profile",
			"identity", rec.identity,
			"profile_type", rec.profileType,
			"attempts", o.saveRetries,
			"error", err)
	}
}
