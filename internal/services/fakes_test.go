package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"collabcalendar/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeClock is a controllable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// store is the in-memory state shared by the fake repositories. The fake
// transactor snapshots it before a unit of work and restores it on error.
type store struct {
	mu      sync.Mutex
	invites map[string]domain.Invite
	members []domain.Member
	outbox  []publishedEvent
}

func newStore() *store {
	return &store{invites: make(map[string]domain.Invite)}
}

type fakeTransactor struct {
	s       *store
	commits int
	aborts  int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.s.mu.Lock()
	invites := make(map[string]domain.Invite, len(f.s.invites))
	for k, v := range f.s.invites {
		invites[k] = v
	}
	members := append([]domain.Member(nil), f.s.members...)
	outbox := append([]publishedEvent(nil), f.s.outbox...)
	f.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.s.mu.Lock()
		f.s.invites = invites
		f.s.members = members
		f.s.outbox = outbox
		f.s.mu.Unlock()
		f.aborts++
		return err
	}
	f.commits++
	return nil
}

// fakeInviteRepo is an in-memory InviteRepository. Rows are copied in and out so
// only Create and Update change stored state.
type fakeInviteRepo struct {
	s *store
	// beforeCreate, if set, runs before Create and may return an error to simulate a race.
	beforeCreate func(inv *domain.Invite) error
	updateErr    error
	listErr      error
	updates      int
}

func (f *fakeInviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		if err := hook(inv); err != nil {
			return err
		}
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.invites {
		if existing.CalendarID == inv.CalendarID && existing.DestinationAddress == inv.DestinationAddress {
			return domain.ErrDuplicate
		}
	}
	f.s.invites[inv.ID] = *inv
	return nil
}

func (f *fakeInviteRepo) Update(ctx context.Context, inv *domain.Invite) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.invites[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	f.s.invites[inv.ID] = *inv
	f.updates++
	return nil
}

func (f *fakeInviteRepo) GetByCalendarAndAddress(ctx context.Context, calendarID, address string) (*domain.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, inv := range f.s.invites {
		if inv.CalendarID == calendarID && inv.DestinationAddress == address {
			cp := inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if tokenHash == "" {
		return nil, domain.ErrNotFound
	}
	for _, inv := range f.s.invites {
		if inv.TokenHash == tokenHash {
			cp := inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) ListByCalendarID(ctx context.Context, calendarID string, status domain.InviteStatus, params domain.PaginationParams) ([]*domain.Invite, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var all []*domain.Invite
	for _, inv := range f.s.invites {
		if inv.CalendarID != calendarID || (status != "" && inv.Status != status) {
			continue
		}
		cp := inv
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit()
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeInviteRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Invite, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*domain.Invite
	for _, inv := range f.s.invites {
		if inv.Status == domain.InviteStatusPending && inv.ExpiresAt.Before(now) {
			cp := inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// get returns the stored row for calendar and address, or nil.
func (f *fakeInviteRepo) get(calendarID, address string) *domain.Invite {
	inv, err := f.GetByCalendarAndAddress(context.Background(), calendarID, address)
	if err != nil {
		return nil
	}
	return inv
}

func (f *fakeInviteRepo) put(inv domain.Invite) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.invites[inv.ID] = inv
}

type fakeMemberRepo struct {
	s         *store
	createErr error
}

func (f *fakeMemberRepo) ExistsByAddressAndCalendar(ctx context.Context, address, calendarID string) (bool, error) {
	_, err := f.GetByAddressAndCalendar(ctx, address, calendarID)
	return err == nil, nil
}

func (f *fakeMemberRepo) GetByAddressAndCalendar(ctx context.Context, address, calendarID string) (*domain.Member, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, m := range f.s.members {
		if m.CalendarID == calendarID && m.Address == address {
			cp := m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.members {
		if existing.CalendarID == m.CalendarID && existing.Address == m.Address {
			return domain.ErrAlreadyMember
		}
	}
	f.s.members = append(f.s.members, *m)
	return nil
}

func (f *fakeMemberRepo) count(calendarID string) int {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, m := range f.s.members {
		if m.CalendarID == calendarID {
			n++
		}
	}
	return n
}

type fakeCalendarRepo struct {
	byID map[string]*domain.Calendar
}

func (f *fakeCalendarRepo) GetByID(ctx context.Context, id string) (*domain.Calendar, error) {
	if c, ok := f.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type fakeUserRepo struct {
	byID map[string]*domain.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type publishedEvent struct {
	topic   string
	payload any
}

// recordingPublisher captures published events; err, if set, is returned from Publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return p.err
}

func (p *recordingPublisher) byTopic(topic string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}

// txOutbox is a transactional publisher whose rows live in the store, so they roll
// back with the unit of work.
type txOutbox struct {
	s   *store
	err error
}

func (o *txOutbox) JoinsTx() bool { return true }

func (o *txOutbox) Publish(ctx context.Context, topic string, payload any) error {
	if o.err != nil {
		return o.err
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.outbox = append(o.s.outbox, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (o *txOutbox) byTopic(topic string) []any {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var out []any
	for _, e := range o.s.outbox {
		if e.topic == topic {
			out = append(out, e.payload)
		}
	}
	return out
}
