package session

import (
	"context"
	"sync"
	"time"

	appointmentsRepo "jepet/database/repository/appointments"
	ordersRepo "jepet/database/repository/orders"
	profileRepo "jepet/database/repository/profile"
	"jepet/models"
	"jepet/services/identity"
	"jepet/services/localcache"
	"jepet/services/payment"

	"go.uber.org/zap"
)

// cacheTimeout bounds local cache reads and writes.
const cacheTimeout = 3 * time.Second

// Reminders schedules customer notifications ahead of appointments.
type Reminders interface {
	Schedule(ctx context.Context, appt models.Appointment) error
	Cancel(ctx context.Context, appointmentID string) error
}

type noReminders struct{}

func (noReminders) Schedule(context.Context, models.Appointment) error { return nil }
func (noReminders) Cancel(context.Context, string) error              { return nil }

// Deps are the collaborators shared by every Store of a process.
type Deps struct {
	Identity     identity.Backend
	Profiles     profileRepo.ProfileRepository
	Orders       ordersRepo.OrderRepository
	Appointments appointmentsRepo.AppointmentRepository
	Cache        localcache.Cache
	Payments     payment.Processor
	Reminders    Reminders
	Logger       *zap.Logger
	Location     *time.Location
	Now          func() time.Time
}

// State is a point-in-time copy of everything a device renders.
type State struct {
	Session             *models.Profile      `json:"session"`
	Restored            bool                 `json:"restored"`
	Cart                []models.CartItem    `json:"cart"`
	CartTotal           float64              `json:"cartTotal"`
	Orders              []models.Order       `json:"orders"`
	OrdersLoading       bool                 `json:"ordersLoading"`
	Appointments        []models.Appointment `json:"appointments"`
	AppointmentsLoading bool                 `json:"appointmentsLoading"`
	View                models.View          `json:"view"`
}

type subscriptions struct {
	profile      interface{ Stop() }
	orders       interface{ Stop() }
	appointments interface{ Stop() }
}

func (s *subscriptions) stop() {
	if s == nil {
		return
	}
	for _, sub := range []interface{ Stop() }{s.profile, s.orders, s.appointments} {
		if sub != nil {
			sub.Stop()
		}
	}
}

// Store is the local-first state of one device: the signed-in Session, the
// cart, the live order and appointment lists and the current view. Mutations
// apply locally first and are written remotely in the background.
type Store struct {
	device   string
	identity *identity.Session
	deps     Deps
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time

	// ctx scopes the live subscriptions; cancel ends them on Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         State
	user          *identity.User
	gen           uint64
	subs          *subscriptions
	pendingOrders map[string]struct{}
	pendingAppts  map[string]*pendingAppointment
	tasks         *taskLog
	unlistenAuth  func()
	shut          bool

	inflight sync.WaitGroup

	obsMu     sync.Mutex
	observers map[int]chan Event
	nextObs   int
	closed    bool
}

func NewStore(device string, deps Deps) *Store {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Reminders == nil {
		deps.Reminders = noReminders{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		device:        device,
		identity:      identity.NewSession(deps.Identity, deps.Cache, device, deps.Logger),
		deps:          deps,
		logger:        deps.Logger.With(zap.String("device", device)),
		loc:           deps.Location,
		now:           deps.Now,
		ctx:           ctx,
		cancel:        cancel,
		state:         State{View: models.ViewHome},
		pendingOrders: make(map[string]struct{}),
		pendingAppts:  make(map[string]*pendingAppointment),
		tasks:         newTaskLog(),
		observers:     make(map[int]chan Event),
	}
}

func (s *Store) Device() string { return s.device }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyStateLocked()
}

func (s *Store) copyStateLocked() State {
	st := s.state
	st.Session = s.state.Session.Clone()
	st.Cart = append([]models.CartItem{}, s.state.Cart...)
	st.CartTotal = cartTotal(s.state.Cart)
	st.Orders = make([]models.Order, len(s.state.Orders))
	for i, o := range s.state.Orders {
		o.Items = append([]models.OrderItem(nil), o.Items...)
		st.Orders[i] = o
	}
	st.Appointments = append([]models.Appointment{}, s.state.Appointments...)
	return st
}

// Bootstrap provisionally restores the cached Session and view, then
// registers the single auth-state listener and validates the stored
// credential in the background.
func (s *Store) Bootstrap(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	cached, err := s.deps.Cache.LoadProfile(cctx, s.device)
	if err != nil {
		s.logger.Warn("session.Bootstrap: failed to read cached session", zap.Error(err))
	}
	view, err := s.deps.Cache.LoadView(cctx, s.device)
	if err != nil {
		s.logger.Warn("session.Bootstrap: failed to read cached view", zap.Error(err))
	}

	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.unlistenAuth != nil {
		s.mu.Unlock()
		return nil
	}
	if cached != nil {
		s.state.Session = normalizeProfile(cached)
		s.state.Restored = true
	}
	if view.Valid() {
		s.state.View = view
	}
	s.unlistenAuth = s.identity.OnAuthStateChanged(s.handleAuthState)
	s.inflight.Add(1)
	s.mu.Unlock()

	s.publishState()

	go func() {
		defer s.inflight.Done()
		rctx, cancel := context.WithTimeout(s.ctx, remoteWriteTimeout)
		defer cancel()
		if s.identity.Restore(rctx) == nil {
			s.dropUnverifiedSession()
		}
	}()
	return nil
}

// dropUnverifiedSession forgets a Session restored from the cache when no
// signed-in identity backs it.
func (s *Store) dropUnverifiedSession() {
	s.mu.Lock()
	if s.user != nil || !s.state.Restored {
		s.mu.Unlock()
		return
	}
	s.state.Session = nil
	s.state.Restored = false
	s.mu.Unlock()

	ctx, cancel := s.cacheContext()
	defer cancel()
	if err := s.deps.Cache.ClearProfile(ctx, s.device); err != nil {
		s.logger.Warn("session.dropUnverifiedSession: cache delete failed", zap.Error(err))
	}
	s.publishState()
}

// handleAuthState runs on every sign-in and sign-out notification.
func (s *Store) handleAuthState(u *identity.User) {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	old := s.subs
	s.subs = nil
	s.pendingOrders = make(map[string]struct{})
	s.pendingAppts = make(map[string]*pendingAppointment)

	if u == nil {
		s.user = nil
		s.state.Session = nil
		s.state.Restored = false
		s.state.Orders = nil
		s.state.Appointments = nil
		s.state.OrdersLoading = false
		s.state.AppointmentsLoading = false
		s.state.View = models.ViewHome
		s.mu.Unlock()

		old.stop()
		s.clearCachedSession()
		s.publish(Event{Type: EventSignedOut})
		s.publishState()
		return
	}

	if s.state.Session != nil && s.state.Session.ID != u.UID {
		s.state.Session = nil
		s.state.Restored = false
	}
	s.user = u
	s.state.Orders = nil
	s.state.Appointments = nil
	s.state.OrdersLoading = true
	s.state.AppointmentsLoading = true
	s.mu.Unlock()

	old.stop()
	s.publish(Event{Type: EventSignedIn})
	s.publishState()

	subs := &subscriptions{
		profile: s.deps.Profiles.Watch(s.ctx, u.UID,
			func(p *models.Profile, exists bool) { s.applyProfile(gen, p, exists) },
			func(err error) { s.subscriptionError(gen, "profile", err) }),
		orders: s.deps.Orders.Watch(s.ctx, u.UID,
			func(orders []models.Order) { s.applyOrders(gen, orders) },
			func(err error) { s.subscriptionError(gen, "orders", err) }),
		appointments: s.deps.Appointments.Watch(s.ctx, u.UID,
			func(appts []models.Appointment) { s.applyAppointments(gen, appts) },
			func(err error) { s.subscriptionError(gen, "appointments", err) }),
	}

	s.mu.Lock()
	if s.gen != gen || s.shut {
		s.mu.Unlock()
		subs.stop()
		return
	}
	s.subs = subs
	s.mu.Unlock()
}

func (s *Store) subscriptionError(gen uint64, which string, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	switch which {
	case "orders":
		s.state.OrdersLoading = false
	case "appointments":
		s.state.AppointmentsLoading = false
	}
	s.mu.Unlock()

	s.logger.Error("session.subscriptionError: live query failed", zap.String("query", which), zap.Error(err))
	s.notice("Não foi possível sincronizar seus dados agora. Tentaremos novamente em breve.")
	s.publishState()
}

// Drain waits for background remote writes to finish.
func (s *Store) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down subscriptions and observers. In-flight remote writes
// keep running; use Drain to wait for them.
func (s *Store) Close() {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return
	}
	s.shut = true
	s.gen++
	subs := s.subs
	s.subs = nil
	unlisten := s.unlistenAuth
	s.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
	subs.stop()
	s.cancel()
	s.closeObservers()
}

func (s *Store) cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cacheTimeout)
}

func (s *Store) saveCachedSession(p *models.Profile) {
	ctx, cancel := s.cacheContext()
	defer cancel()
	if err := s.deps.Cache.SaveProfile(ctx, s.device, p); err != nil {
		s.logger.Warn("session.saveCachedSession: cache write failed", zap.Error(err))
	}
}

func (s *Store) clearCachedSession() {
	ctx, cancel := s.cacheContext()
	defer cancel()
	if err := s.deps.Cache.ClearProfile(ctx, s.device); err != nil {
		s.logger.Warn("session.clearCachedSession: cache delete failed", zap.Error(err))
	}
	if err := s.deps.Cache.ClearView(ctx, s.device); err != nil {
		s.logger.Warn("session.clearCachedSession: cache delete failed", zap.Error(err))
	}
}
