package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appointmentsRepo "jepet/database/repository/appointments"
	ordersRepo "jepet/database/repository/orders"
	profileRepo "jepet/database/repository/profile"
	"jepet/models"
	"jepet/services/identity"
	"jepet/services/localcache"
	"jepet/services/payment"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errRemoteDown = errors.New("remote store unavailable")

var petRex = models.Pet{Name: "Rex", Type: "cao", Breed: "SRD"}

// recordingOrders counts writes and can be told to fail them.
type recordingOrders struct {
	*ordersRepo.MemoryOrderRepo
	mu   sync.Mutex
	puts int
	fail bool
}

func (r *recordingOrders) Put(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	r.puts++
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return errRemoteDown
	}
	return r.MemoryOrderRepo.Put(ctx, o)
}

func (r *recordingOrders) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

type recordingAppointments struct {
	*appointmentsRepo.MemoryAppointmentRepo
	mu    sync.Mutex
	calls map[string]int
	fail  bool
}

func (r *recordingAppointments) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	if r.fail {
		return errRemoteDown
	}
	return nil
}

func (r *recordingAppointments) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recordingAppointments) Put(ctx context.Context, a *models.Appointment) error {
	if err := r.record("put"); err != nil {
		return err
	}
	return r.MemoryAppointmentRepo.Put(ctx, a)
}

func (r *recordingAppointments) Reschedule(ctx context.Context, uid, id string, c models.AppointmentChange) error {
	if err := r.record("reschedule"); err != nil {
		return err
	}
	return r.MemoryAppointmentRepo.Reschedule(ctx, uid, id, c)
}

func (r *recordingAppointments) SetStatus(ctx context.Context, uid, id, status string) error {
	if err := r.record("status"); err != nil {
		return err
	}
	return r.MemoryAppointmentRepo.SetStatus(ctx, uid, id, status)
}

type recordingReminders struct {
	mu        sync.Mutex
	scheduled map[string]models.Appointment
	cancelled []string
}

func (r *recordingReminders) Schedule(_ context.Context, a models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled[a.ID] = a
	return nil
}

func (r *recordingReminders) Cancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, id)
	delete(r.scheduled, id)
	return nil
}

func (r *recordingReminders) get(id string) (models.Appointment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.scheduled[id]
	return a, ok
}

func (r *recordingReminders) wasCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cancelled {
		if c == id {
			return true
		}
	}
	return false
}

type harness struct {
	backend      *identity.MemoryBackend
	profiles     *profileRepo.MemoryProfileRepo
	orders       *recordingOrders
	appointments *recordingAppointments
	cache        *localcache.MemoryCache
	reminders    *recordingReminders
}

func newHarness() *harness {
	return &harness{
		backend:      identity.NewMemoryBackend(),
		profiles:     profileRepo.NewMemoryProfileRepo(),
		orders:       &recordingOrders{MemoryOrderRepo: ordersRepo.NewMemoryOrderRepo()},
		appointments: &recordingAppointments{MemoryAppointmentRepo: appointmentsRepo.NewMemoryAppointmentRepo(), calls: map[string]int{}},
		cache:        localcache.NewMemoryCache(),
		reminders:    &recordingReminders{scheduled: map[string]models.Appointment{}},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Identity:     h.backend,
		Profiles:     h.profiles,
		Orders:       h.orders,
		Appointments: h.appointments,
		Cache:        h.cache,
		Payments:     payment.NewSimulator(zap.NewNop(), 0),
		Reminders:    h.reminders,
		Logger:       zap.NewNop(),
		Location:     time.UTC,
	}
}

// newStore returns a bootstrapped store whose restore step has finished.
func (h *harness) newStore(t *testing.T, device string) *Store {
	t.Helper()
	st := NewStore(device, h.deps())
	require.NoError(t, st.Bootstrap(context.Background()))
	drain(t, st)
	t.Cleanup(func() {
		st.Close()
		drain(t, st)
	})
	return st
}

func drain(t *testing.T, st *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, st.Drain(ctx))
}

// signUp creates an account and waits until the Session and both lists are live.
func signUp(t *testing.T, st *Store, email string) *identity.User {
	t.Helper()
	u, err := st.SignUp(context.Background(), "Ana", email, "segredo1")
	require.NoError(t, err)
	eventually(t, func(s State) bool {
		return s.Session != nil && !s.Restored && !s.OrdersLoading && !s.AppointmentsLoading
	}, st)
	// Let the synthesized profile write land before the test goes on.
	drain(t, st)
	return u
}

func eventually(t *testing.T, cond func(State) bool, st *Store) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(st.Snapshot()) }, 2*time.Second, 5*time.Millisecond)
}

// slot formats a time as the date and time fields of an appointment in UTC.
func slot(at time.Time) (string, string) {
	at = at.UTC()
	return at.Format(models.DateLayout), at.Format(models.TimeLayout)
}

func book(t *testing.T, st *Store, in time.Duration) *models.Appointment {
	t.Helper()
	date, clock := slot(time.Now().Add(in))
	appt, task, err := st.BookAppointment(BookingRequest{PetName: "Rex", PetType: "cao", Date: date, Time: clock, Type: "consulta-geral"})
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))
	return appt
}
