// Package onboarding drives the fixed-step shop registration conversation.
// The machine consumes authenticated events, keeps its working state in the
// session store, and writes one durable shop record on completion.
package onboarding

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/sessions"
	"github.com/chonlathan-cloud/lineoa-public-mirror/shops"
)

const defaultSessionTTL = 10 * time.Minute

// Collected field names.
const (
	fieldName  = "name"
	fieldPhone = "phone"
	fieldShop  = "shop"
)

type handlerFunc func(ctx context.Context, sess *sessions.Session, ev Event) (Reply, error)

// Machine is the onboarding state machine. Each step accepts exactly one
// event shape; anything else gets a fallback reply without mutating state.
// Transitions are looked up in a table built at construction, so an illegal
// transition cannot exist at runtime.
type Machine struct {
	sessions  sessions.Store
	shops     *shops.Repo
	allocator shops.Allocator
	profiles  ProfileProvider
	ttl       time.Duration
	nowFunc   func() time.Time
	log       zerolog.Logger

	transitions map[Step]map[EventKind]handlerFunc
}

type MachineOption func(*Machine)

// WithSessionTTL overrides the session idle timeout (default 600s).
func WithSessionTTL(ttl time.Duration) MachineOption {
	return func(m *Machine) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(nowFunc func() time.Time) MachineOption {
	return func(m *Machine) {
		m.nowFunc = nowFunc
	}
}

// WithProfileProvider enriches completed records with the user's display
// name and avatar. Lookups are best-effort.
func WithProfileProvider(provider ProfileProvider) MachineOption {
	return func(m *Machine) {
		m.profiles = provider
	}
}

func WithLogger(log zerolog.Logger) MachineOption {
	return func(m *Machine) {
		m.log = log
	}
}

func NewMachine(sessionStore sessions.Store, shopRepo *shops.Repo, allocator shops.Allocator, options ...MachineOption) (*Machine, error) {
	if sessionStore == nil {
		return nil, errors.New("[NewMachine] session store is required")
	}
	if shopRepo == nil {
		return nil, errors.New("[NewMachine] shop repo is required")
	}
	if allocator == nil {
		return nil, errors.New("[NewMachine] allocator is required")
	}

	m := &Machine{
		sessions:  sessionStore,
		shops:     shopRepo,
		allocator: allocator,
		ttl:       defaultSessionTTL,
		nowFunc:   time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}

	m.transitions = map[Step]map[EventKind]handlerFunc{
		StepName:     {EventText: m.collectName},
		StepPhone:    {EventText: m.collectPhone},
		StepShopName: {EventText: m.collectShopName},
		StepLocation: {EventText: m.collectOnlineFlag, EventLocation: m.collectLocation},
		StepConfirm:  {EventText: m.confirm},
	}
	return m, nil
}

// Handle processes one event for a user. All work for the user runs under
// the session store's per-user lock, so two near-simultaneous deliveries
// cannot both observe and write the same step.
func (m *Machine) Handle(ctx context.Context, userID string, ev Event) (Reply, error) {
	var reply Reply
	var err error
	m.sessions.Do(userID, func() {
		reply, err = m.handle(ctx, userID, ev)
	})
	return reply, err
}

func (m *Machine) handle(ctx context.Context, userID string, ev Event) (Reply, error) {
	text := ""
	if ev.Kind == EventText {
		text = strings.TrimSpace(ev.Text)
	}

	sess, active := m.sessions.Get(userID)
	if !active {
		if text == TriggerStart {
			return m.start(userID), nil
		}
		// No session (or it expired): point the user at the start trigger.
		return Reply{Text: promptStart}, nil
	}

	if text == TriggerCancel {
		m.sessions.Remove(userID)
		m.log.Info().Str("user_id", userID).Str("step", Step(sess.Step).String()).Msg("onboarding cancelled")
		return Reply{Text: promptCancelled}, nil
	}
	if text == TriggerStart {
		// A start trigger mid-flow is ignored so an accidental tap cannot
		// reset the form; re-issue the current step's prompt.
		return m.replyForStep(sess), nil
	}

	handler := m.transitions[Step(sess.Step)][ev.Kind]
	if handler == nil {
		return Reply{Text: promptFallback}, nil
	}
	return handler(ctx, &sess, ev)
}

func (m *Machine) start(userID string) Reply {
	now := m.nowFunc()
	sess := sessions.Session{
		UserID:      userID,
		Step:        int(StepName),
		CreatedAt:   now,
		LastTouched: now,
	}
	m.sessions.Put(userID, sess, m.ttl)
	m.log.Info().Str("user_id", userID).Msg("onboarding started")
	return Reply{Text: promptName}
}

func (m *Machine) collectName(_ context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return Reply{Text: promptFallback}, nil
	}
	sess.SetField(fieldName, name)
	return m.advance(sess, StepPhone), nil
}

func (m *Machine) collectPhone(_ context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	phone, ok := NormalizeThaiPhone(ev.Text)
	if !ok {
		return Reply{Text: promptPhoneInvalid}, nil
	}
	sess.SetField(fieldPhone, phone)
	return m.advance(sess, StepShopName), nil
}

func (m *Machine) collectShopName(_ context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return Reply{Text: promptFallback}, nil
	}
	sess.SetField(fieldShop, name)
	return m.advance(sess, StepLocation), nil
}

func (m *Machine) collectOnlineFlag(_ context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	if strings.TrimSpace(ev.Text) != TriggerOnline {
		return Reply{Text: promptFallback}, nil
	}
	sess.Location = nil
	return m.advance(sess, StepConfirm), nil
}

func (m *Machine) collectLocation(_ context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	if ev.Location == nil {
		return Reply{Text: promptFallback}, nil
	}
	loc := *ev.Location
	sess.Location = &loc
	return m.advance(sess, StepConfirm), nil
}

func (m *Machine) confirm(ctx context.Context, sess *sessions.Session, ev Event) (Reply, error) {
	if strings.TrimSpace(ev.Text) != TriggerConfirm {
		return Reply{Text: promptFallback}, nil
	}
	return m.complete(ctx, sess)
}

// complete writes the durable shop record and destroys the session. On a
// failed write the session stays at the confirmation step so the user can
// retry without re-entering everything.
func (m *Machine) complete(ctx context.Context, sess *sessions.Session) (Reply, error) {
	shopID, err := m.allocator.Next(ctx)
	if err != nil {
		m.touch(sess)
		return Reply{Text: promptWriteFailed}, errors.Wrap(err, "[Machine.complete] allocate shop id")
	}

	var profile Profile
	if m.profiles != nil {
		profile, err = m.profiles.Profile(ctx, sess.UserID)
		if err != nil {
			m.log.Warn().Err(err).Str("user_id", sess.UserID).Msg("profile lookup failed")
			profile = Profile{}
		}
	}

	shop := &shops.Shop{
		ID:               shopID,
		Name:             sess.Field(fieldShop),
		ContactName:      sess.Field(fieldName),
		Phone:            sess.Field(fieldPhone),
		Online:           sess.Location == nil,
		OwnerDisplayName: profile.DisplayName,
		OwnerAvatarURL:   profile.AvatarURL,
		CreatedAt:        m.nowFunc(),
	}
	if sess.Location != nil {
		shop.Location = &shops.Location{
			Lat:     sess.Location.Latitude,
			Lng:     sess.Location.Longitude,
			Address: sess.Location.Address,
		}
	}

	if err := m.shops.Create(ctx, shop); err != nil {
		m.touch(sess)
		m.log.Error().Err(err).Str("user_id", sess.UserID).Str("shop_id", shopID).Msg("shop record write failed")
		return Reply{Text: promptWriteFailed}, err
	}

	m.sessions.Remove(sess.UserID)
	m.log.Info().Str("user_id", sess.UserID).Str("shop_id", shopID).Msg("onboarding completed")
	return Reply{Text: promptDone(shopID)}, nil
}

// advance moves the session forward one step and persists it.
func (m *Machine) advance(sess *sessions.Session, next Step) Reply {
	sess.Step = int(next)
	m.touch(sess)
	if next == StepConfirm {
		return Reply{Text: promptConfirm(*sess)}
	}
	return Reply{Text: promptForStep(next)}
}

func (m *Machine) touch(sess *sessions.Session) {
	sess.LastTouched = m.nowFunc()
	m.sessions.Put(sess.UserID, *sess, m.ttl)
}

func (m *Machine) replyForStep(sess sessions.Session) Reply {
	if Step(sess.Step) == StepConfirm {
		return Reply{Text: promptConfirm(sess)}
	}
	return Reply{Text: promptForStep(Step(sess.Step))}
}
