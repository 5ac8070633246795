package session

import (
	"context"
	"testing"
	"time"

	"jepet/models"
	"jepet/services/identity"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLoginSynthesizesProfile(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "first")
	u := signUp(t, st, "first@example.com")

	want := &models.Profile{ID: u.UID, Name: "Ana", Email: "first@example.com", Phone: "", Pets: []models.Pet{}}
	eventually(t, func(s State) bool { return cmp.Equal(want, s.Session) }, st)

	require.Eventually(t, func() bool {
		doc, err := h.profiles.Get(context.Background(), u.UID)
		return err == nil && doc.Name == "Ana"
	}, 2*time.Second, 5*time.Millisecond, "the synthesized profile is written remotely")

	cached, err := h.cache.LoadProfile(context.Background(), "first")
	require.NoError(t, err)
	if diff := cmp.Diff(want, cached); diff != "" {
		t.Errorf("cached session mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizedProfileConvergesWithSnapshot(t *testing.T) {
	u := &identity.User{UID: "u1", Email: "x@example.com", DisplayName: "X"}

	synthesized := defaultProfile(u)
	// The snapshot that echoes the synthesized write back.
	echoed := effectiveProfile(u, synthesized)
	if diff := cmp.Diff(synthesized, echoed); diff != "" {
		t.Errorf("snapshot after synthesized write differs (-synth +echo):\n%s", diff)
	}

	// A document missing optional fields falls back to identity defaults.
	sparse := effectiveProfile(u, &models.Profile{Phone: "11 9999"})
	assert.Equal(t, "X", sparse.Name)
	assert.Equal(t, "x@example.com", sparse.Email)
	assert.Equal(t, []models.Pet{}, sparse.Pets)

	anonymous := defaultProfile(&identity.User{UID: "u2"})
	assert.Equal(t, "Usuário", anonymous.Name)
}

func TestSnapshotOverwritesSession(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "overwrite")
	u := signUp(t, st, "over@example.com")

	require.NoError(t, h.profiles.Set(context.Background(), &models.Profile{ID: u.UID, Name: "Ana Maria", Phone: "11 98888-7777"}))
	eventually(t, func(s State) bool {
		return s.Session.Name == "Ana Maria" && s.Session.Phone == "11 98888-7777" && s.Session.Email == "over@example.com"
	}, st)
}

func TestSignOutTearsDownSubscriptions(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "signout")
	u := signUp(t, st, "out@example.com")
	require.NoError(t, st.SetView(models.ViewProfile))

	st.SignOut(context.Background())

	snap := st.Snapshot()
	assert.Nil(t, snap.Session)
	assert.Nil(t, snap.Orders)
	assert.Nil(t, snap.Appointments)
	assert.Equal(t, models.ViewHome, snap.View)

	cached, _ := h.cache.LoadProfile(context.Background(), "signout")
	assert.Nil(t, cached)
	view, _ := h.cache.LoadView(context.Background(), "signout")
	assert.Empty(t, view)

	// Remote changes for the old account are no longer observed.
	require.NoError(t, h.orders.MemoryOrderRepo.Put(context.Background(), &models.Order{ID: "late", UserID: u.UID, Date: time.Now()}))
	require.NoError(t, h.profiles.Set(context.Background(), &models.Profile{ID: u.UID, Name: "Ghost"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, snap, st.Snapshot())
}

func TestBootstrapRestoresCachedSessionAndView(t *testing.T) {
	h := newHarness()
	first := h.newStore(t, "device")
	u := signUp(t, first, "back@example.com")
	require.NoError(t, first.SetView(models.ViewStore))
	first.Close()
	drain(t, first)

	second := NewStore("device", h.deps())
	t.Cleanup(func() {
		second.Close()
		drain(t, second)
	})
	require.NoError(t, second.Bootstrap(context.Background()))

	snap := second.Snapshot()
	require.NotNil(t, snap.Session, "cached session is available before validation")
	assert.Equal(t, u.UID, snap.Session.ID)
	assert.Equal(t, models.ViewStore, snap.View)

	eventually(t, func(s State) bool { return s.Session != nil && !s.Restored }, second)
}

func TestBootstrapDropsSessionWithoutCredential(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.cache.SaveProfile(ctx, "stale", &models.Profile{ID: "u-stale", Name: "Old"}))
	require.NoError(t, h.cache.SaveView(ctx, "stale", models.ViewAbout))

	st := h.newStore(t, "stale")

	snap := st.Snapshot()
	assert.Nil(t, snap.Session)
	assert.Equal(t, models.ViewAbout, snap.View, "a signed-out device keeps its last view")
	cached, _ := h.cache.LoadProfile(ctx, "stale")
	assert.Nil(t, cached)
}

func TestSetViewRejectsUnknown(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "views")
	assert.ErrorIs(t, st.SetView("nowhere"), ErrInvalidInput)
	require.NoError(t, st.SetView(models.ViewContact))
	assert.Equal(t, models.ViewContact, st.Snapshot().View)
}

func TestAddPet(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "pets")

	_, err := st.AddPet(models.Pet{Name: "Rex", Type: "cao"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	u := signUp(t, st, "pets@example.com")

	_, err = st.AddPet(models.Pet{Name: " ", Type: "cao"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	task, err := st.AddPet(models.Pet{Name: "Rex", Type: "cao", Breed: "SRD"})
	require.NoError(t, err)
	assert.Len(t, st.Snapshot().Session.Pets, 1, "pet appears before the remote write")
	require.NoError(t, task.Wait(context.Background()))

	doc, err := h.profiles.Get(context.Background(), u.UID)
	require.NoError(t, err)
	assert.Equal(t, []models.Pet{{Name: "Rex", Type: "cao", Breed: "SRD"}}, doc.Pets)

	eventually(t, func(s State) bool { return len(s.Session.Pets) == 1 }, st)
}

func TestAddSamePetTwiceKeepsBoth(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "twins")
	u := signUp(t, st, "twins@example.com")

	for i := 0; i < 2; i++ {
		task, err := st.AddPet(petRex)
		require.NoError(t, err)
		require.NoError(t, task.Wait(context.Background()))
		assert.Equal(t, TaskSucceeded, task.Info().Status)
	}
	drain(t, st)

	doc, err := h.profiles.Get(context.Background(), u.UID)
	require.NoError(t, err)
	assert.Equal(t, []models.Pet{petRex, petRex}, doc.Pets)
	eventually(t, func(s State) bool { return len(s.Session.Pets) == 2 }, st)
	assert.Len(t, st.Snapshot().Session.Pets, 2)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "delete")
	u := signUp(t, st, "delete@example.com")

	task, err := st.DeleteAccount(context.Background())
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))

	assert.Nil(t, st.Snapshot().Session)
	_, err = h.profiles.Get(context.Background(), u.UID)
	assert.Error(t, err)

	_, err = st.SignIn(context.Background(), "delete@example.com", "segredo1")
	assert.Equal(t, identity.CodeUserNotFound, identity.Code(err))
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	h := newHarness()
	st := h.newStore(t, "closed")
	signUp(t, st, "closed@example.com")

	events, _ := st.Subscribe(4)
	st.Close()

	_, err := st.AddPet(models.Pet{Name: "Rex", Type: "cao"})
	assert.ErrorIs(t, err, ErrClosed)

	_, open := <-events
	for open {
		_, open = <-events
	}
}
