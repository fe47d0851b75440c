package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"intercom-cli/internal/client"
	"intercom-cli/internal/store"
	"intercom-cli/pkg/models"
)

// fakeRemote returns canned collections or errors and counts calls.
// When gate is non-nil each fetch signals started and then waits on gate.
type fakeRemote struct {
	mu        sync.Mutex
	cameras   *models.CameraCollection
	doors     *models.DoorCollection
	camErr    error
	doorErr   error
	camCalls  atomic.Int32
	doorCalls atomic.Int32

	started chan struct{}
	gate    chan struct{}
}

func (f *fakeRemote) wait() {
	if f.gate == nil {
		return
	}
	f.started <- struct{}{}
	<-f.gate
}

func (f *fakeRemote) FetchCameras() (*models.CameraCollection, error) {
	f.camCalls.Add(1)
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.camErr != nil {
		return nil, f.camErr
	}
	c := *f.cameras
	return &c, nil
}

func (f *fakeRemote) FetchDoors() (*models.DoorCollection, error) {
	f.doorCalls.Add(1)
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doorErr != nil {
		return nil, f.doorErr
	}
	d := *f.doors
	return &d, nil
}

func (f *fakeRemote) set(fn func(f *fakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type recorder struct {
	mu      sync.Mutex
	fetches map[string][]error
	renames []error
}

func (r *recorder) FetchCompleted(collection string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetches == nil {
		r.fetches = map[string][]error{}
	}
	r.fetches[collection] = append(r.fetches[collection], err)
}

func (r *recorder) RenameCompleted(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renames = append(r.renames, err)
}

// failingStore wraps a real store and fails replaces on demand.
type failingStore struct {
	*store.Store
	failReplace bool
}

func (f *failingStore) ReplaceDoors(c models.DoorCollection) error {
	if f.failReplace {
		return &store.PersistenceError{Op: "replace doors", Err: errors.New("disk full")}
	}
	return f.Store.ReplaceDoors(c)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func oneCamera() models.CameraCollection {
	return models.CameraCollection{
		Rooms:   []string{"FIRST"},
		Cameras: []models.Camera{{ID: 1, Name: "Camera 1", Room: "FIRST", IsRecording: true}},
	}
}

func twoDoors() models.DoorCollection {
	return models.DoorCollection{Doors: []models.Door{
		{ID: 1, Name: "Door 1", Room: "FIRST", Snapshot: "https://example.test/d1.jpg"},
		{ID: 2, Name: "Door 2", Room: "SECOND", IsFavorite: true},
	}}
}

func TestLoadServesCacheWithoutNetwork(t *testing.T) {
	s := newStore(t)
	if err := s.ReplaceCameras(oneCamera()); err != nil {
		t.Fatalf("ReplaceCameras: %v", err)
	}
	if err := s.ReplaceDoors(twoDoors()); err != nil {
		t.Fatalf("ReplaceDoors: %v", err)
	}

	remote := &fakeRemote{camErr: errors.New("must not be called"), doorErr: errors.New("must not be called")}
	c := New(remote, s, nil)

	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if n := remote.camCalls.Load() + remote.doorCalls.Load(); n != 0 {
		t.Errorf("cache-first load made %d network calls", n)
	}
	if c.State(Cameras) != StateReady || c.State(Doors) != StateReady {
		t.Errorf("states = %v/%v, want ready/ready", c.State(Cameras), c.State(Doors))
	}

	doors, ok := c.Doors()
	if !ok {
		t.Fatal("Doors() not ready")
	}
	if diff := cmp.Diff(twoDoors(), doors); diff != "" {
		t.Errorf("doors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyStoreFetchesAndPersists(t *testing.T) {
	s := newStore(t)
	want := twoDoors()
	remote := &fakeRemote{doors: &want}
	rec := &recorder{}
	c := New(remote, s, rec)

	if c.State(Doors) != StateEmpty {
		t.Fatalf("initial state = %v", c.State(Doors))
	}

	got, err := c.LoadDoors()
	if err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}
	if len(got.Doors) != 2 || c.State(Doors) != StateReady {
		t.Errorf("got %d doors in state %v", len(got.Doors), c.State(Doors))
	}

	cached, err := s.ReadDoors()
	if err != nil {
		t.Fatalf("ReadDoors: %v", err)
	}
	if diff := cmp.Diff(want, *cached); diff != "" {
		t.Errorf("persisted doors mismatch (-want +got):\n%s", diff)
	}

	// A second load is served from memory.
	if _, err := c.LoadDoors(); err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}
	if n := remote.doorCalls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
	if errs := rec.fetches["doors"]; len(errs) != 1 || errs[0] != nil {
		t.Errorf("recorded fetches = %v", errs)
	}
}

func TestLoadFailureStaysEmpty(t *testing.T) {
	s := newStore(t)
	remote := &fakeRemote{camErr: client.ErrOffline}
	c := New(remote, s, nil)

	if _, err := c.LoadCameras(); !errors.Is(err, client.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if st := c.State(Cameras); st != StateEmpty {
		t.Errorf("state = %v, want empty", st)
	}
	if _, ok := c.Cameras(); ok {
		t.Error("no snapshot should be available")
	}
	if cached, _ := s.ReadCameras(); cached != nil {
		t.Error("failed load wrote to the cache")
	}
}

func TestRefreshFailureKeepsStaleSnapshot(t *testing.T) {
	s := newStore(t)
	cams := oneCamera()
	remote := &fakeRemote{cameras: &cams}
	c := New(remote, s, nil)

	if _, err := c.LoadCameras(); err != nil {
		t.Fatalf("LoadCameras: %v", err)
	}

	transport := &client.APIError{Type: client.TypeInternal, Message: "Internal Error", Code: 0, Request: "GET /cameras"}
	remote.set(func(f *fakeRemote) { f.camErr = transport })

	_, err := c.RefreshCameras()
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != "Internal Error" {
		t.Fatalf("expected Internal Error, got %v", err)
	}

	if st := c.State(Cameras); st != StateReady {
		t.Errorf("state = %v, want ready", st)
	}
	got, ok := c.Cameras()
	if !ok {
		t.Fatal("snapshot dropped after failed refresh")
	}
	if diff := cmp.Diff(oneCamera(), got); diff != "" {
		t.Errorf("in-memory snapshot changed (-want +got):\n%s", diff)
	}
	cached, err := s.ReadCameras()
	if err != nil || cached == nil {
		t.Fatalf("ReadCameras: %v, %v", cached, err)
	}
	if diff := cmp.Diff(oneCamera(), *cached); diff != "" {
		t.Errorf("cache changed (-want +got):\n%s", diff)
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	s := newStore(t)
	first := twoDoors()
	remote := &fakeRemote{doors: &first}
	c := New(remote, s, nil)

	if _, err := c.LoadDoors(); err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}

	second := models.DoorCollection{Doors: []models.Door{{ID: 9, Name: "Door 9"}}}
	remote.set(func(f *fakeRemote) { f.doors = &second })

	if err := c.Refresh(Doors); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	got, _ := c.Doors()
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("memory mismatch (-want +got):\n%s", diff)
	}
	cached, _ := s.ReadDoors()
	if diff := cmp.Diff(second, *cached); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshPersistFailureKeepsPrior(t *testing.T) {
	fs := &failingStore{Store: newStore(t)}
	first := twoDoors()
	remote := &fakeRemote{doors: &first}
	c := New(remote, fs, nil)

	if _, err := c.LoadDoors(); err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}

	fs.failReplace = true
	remote.set(func(f *fakeRemote) { f.doors = &models.DoorCollection{Doors: []models.Door{{ID: 3}}} })

	var pe *store.PersistenceError
	if _, err := c.RefreshDoors(); !errors.As(err, &pe) {
		t.Fatalf("expected *store.PersistenceError, got %v", err)
	}
	got, _ := c.Doors()
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("memory changed (-want +got):\n%s", diff)
	}
}

func TestRefreshDuplicateIDsRejected(t *testing.T) {
	s := newStore(t)
	dup := models.DoorCollection{Doors: []models.Door{{ID: 1}, {ID: 1}}}
	remote := &fakeRemote{doors: &dup}
	c := New(remote, s, nil)

	if _, err := c.LoadDoors(); !errors.Is(err, models.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if c.State(Doors) != StateEmpty {
		t.Errorf("state = %v, want empty", c.State(Doors))
	}
}

func TestRenameDoor(t *testing.T) {
	s := newStore(t)
	doors := twoDoors()
	remote := &fakeRemote{doors: &doors}
	rec := &recorder{}
	c := New(remote, s, rec)

	if _, err := c.LoadDoors(); err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}
	before, _ := c.Doors()

	door, err := c.RenameDoor(2, "X")
	if err != nil {
		t.Fatalf("RenameDoor: %v", err)
	}
	if want := (models.Door{ID: 2, Name: "X", Room: "SECOND", IsFavorite: true}); door != want {
		t.Errorf("RenameDoor = %+v, want %+v", door, want)
	}

	want := twoDoors().WithName(2, "X")
	after, _ := c.Doors()
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("memory mismatch (-want +got):\n%s", diff)
	}
	cached, _ := s.ReadDoors()
	if diff := cmp.Diff(want, *cached); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
	if before.Doors[1].Name != "Door 2" {
		t.Error("rename mutated a snapshot previously handed out")
	}
	if n := remote.doorCalls.Load(); n != 1 {
		t.Errorf("rename triggered network calls: %d fetches total", n)
	}
	if len(rec.renames) != 1 || rec.renames[0] != nil {
		t.Errorf("recorded renames = %v", rec.renames)
	}
}

func TestRenameMissingDoor(t *testing.T) {
	s := newStore(t)
	doors := twoDoors()
	c := New(&fakeRemote{doors: &doors}, s, nil)

	if _, err := c.LoadDoors(); err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}

	if _, err := c.RenameDoor(5, "X"); !errors.Is(err, store.ErrDoorNotFound) {
		t.Fatalf("expected ErrDoorNotFound, got %v", err)
	}
	got, _ := c.Doors()
	if diff := cmp.Diff(twoDoors(), got); diff != "" {
		t.Errorf("memory changed (-want +got):\n%s", diff)
	}
	cached, _ := s.ReadDoors()
	if diff := cmp.Diff(twoDoors(), *cached); diff != "" {
		t.Errorf("cache changed (-want +got):\n%s", diff)
	}
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	s := newStore(t)
	doors := twoDoors()
	remote := &fakeRemote{
		doors:   &doors,
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	c := New(remote, s, nil)

	first := c.RefreshAsync(Doors)
	select {
	case <-remote.started:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}
	if st := c.State(Doors); st != StateLoading {
		t.Errorf("state during first fetch = %v, want loading", st)
	}

	second := c.RefreshAsync(Doors)
	close(remote.gate)

	for i, ch := range []<-chan error{first, second} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("refresh %d: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("refresh %d never completed", i)
		}
	}
	if n := remote.doorCalls.Load(); n != 1 {
		t.Errorf("expected one coalesced fetch, got %d", n)
	}
	if st := c.State(Doors); st != StateReady {
		t.Errorf("final state = %v", st)
	}
}

func TestRefreshingStateFromReady(t *testing.T) {
	s := newStore(t)
	if err := s.ReplaceCameras(oneCamera()); err != nil {
		t.Fatalf("ReplaceCameras: %v", err)
	}
	cams := oneCamera()
	remote := &fakeRemote{cameras: &cams}
	c := New(remote, s, nil)
	if _, err := c.LoadCameras(); err != nil {
		t.Fatalf("LoadCameras: %v", err)
	}

	remote.set(func(f *fakeRemote) {
		f.started = make(chan struct{}, 1)
		f.gate = make(chan struct{})
	})

	done := c.RefreshAsync(Cameras)
	<-remote.started
	if st := c.State(Cameras); st != StateRefreshing {
		t.Errorf("state = %v, want refreshing", st)
	}
	if _, ok := c.Cameras(); !ok {
		t.Error("snapshot must stay readable while refreshing")
	}
	close(remote.gate)
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func TestCollectionsRefreshIndependently(t *testing.T) {
	s := newStore(t)
	cams := oneCamera()
	doors := twoDoors()
	remote := &fakeRemote{cameras: &cams, doors: &doors, doorErr: client.ErrOffline}
	c := New(remote, s, nil)

	err := c.LoadAll(context.Background())
	if !errors.Is(err, client.ErrOffline) {
		t.Fatalf("LoadAll: expected ErrOffline, got %v", err)
	}
	if c.State(Cameras) != StateReady {
		t.Errorf("cameras state = %v, want ready", c.State(Cameras))
	}
	if c.State(Doors) != StateEmpty {
		t.Errorf("doors state = %v, want empty", c.State(Doors))
	}
}

func TestRefreshUnknownCollection(t *testing.T) {
	c := New(&fakeRemote{}, newStore(t), nil)
	if err := c.Refresh("lights"); err == nil {
		t.Error("expected error for unknown collection")
	}
	if err := <-c.RefreshAsync("lights"); err == nil {
		t.Error("expected async error for unknown collection")
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		StateEmpty: "empty", StateLoading: "loading", StateReady: "ready", StateRefreshing: "refreshing", State(42): "unknown",
	} {
		if got := st.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(st), got, want)
		}
	}
}

// gatedStore pauses ReadDoors after reading until gate is closed.
type gatedStore struct {
	*store.Store
	read chan struct{}
	gate chan struct{}
}

func (g *gatedStore) ReadDoors() (*models.DoorCollection, error) {
	doors, err := g.Store.ReadDoors()
	close(g.read)
	<-g.gate
	return doors, err
}

func TestRenameDuringCacheLoadReachesMemory(t *testing.T) {
	s := newStore(t)
	if err := s.ReplaceDoors(models.DoorCollection{Doors: []models.Door{{ID: 1, Name: "old"}}}); err != nil {
		t.Fatalf("ReplaceDoors: %v", err)
	}
	gs := &gatedStore{Store: s, read: make(chan struct{}), gate: make(chan struct{})}
	c := New(&fakeRemote{doorErr: errors.New("must not be called")}, gs, nil)

	loaded := make(chan error, 1)
	go func() {
		_, err := c.LoadDoors()
		loaded <- err
	}()
	<-gs.read

	renamed := make(chan error, 1)
	go func() {
		_, err := c.RenameDoor(1, "new")
		renamed <- err
	}()

	// Give the rename time to run if nothing holds it back.
	time.Sleep(20 * time.Millisecond)
	close(gs.gate)

	if err := <-loaded; err != nil {
		t.Fatalf("LoadDoors: %v", err)
	}
	if err := <-renamed; err != nil {
		t.Fatalf("RenameDoor: %v", err)
	}

	mem, ok := c.Doors()
	if !ok {
		t.Fatal("Doors() not ready")
	}
	cached, err := s.ReadDoors()
	if err != nil {
		t.Fatalf("ReadDoors: %v", err)
	}
	if diff := cmp.Diff(*cached, mem); diff != "" {
		t.Errorf("memory differs from cache (-cache +memory):\n%s", diff)
	}
	if mem.Doors[0].Name != "new" {
		t.Errorf("name = %q, want %q", mem.Doors[0].Name, "new")
	}
}

func TestRestoreUsesCacheOnly(t *testing.T) {
	s := newStore(t)
	remote := &fakeRemote{camErr: errors.New("must not be called"), doorErr: errors.New("must not be called")}
	c := New(remote, s, nil)

	if c.RestoreDoors() || c.RestoreCameras() {
		t.Fatal("restore from an empty cache reported a snapshot")
	}
	if c.State(Doors) != StateEmpty {
		t.Errorf("state = %v, want empty", c.State(Doors))
	}

	if err := s.ReplaceDoors(twoDoors()); err != nil {
		t.Fatalf("ReplaceDoors: %v", err)
	}
	if !c.RestoreDoors() {
		t.Fatal("RestoreDoors = false with a cached snapshot")
	}
	if c.State(Doors) != StateReady {
		t.Errorf("state = %v, want ready", c.State(Doors))
	}
	if n := remote.camCalls.Load() + remote.doorCalls.Load(); n != 0 {
		t.Errorf("restore made %d network calls", n)
	}
}

func TestRestoreThenRefreshOnEmptyCacheFetchesOnce(t *testing.T) {
	s := newStore(t)
	doors := twoDoors()
	remote := &fakeRemote{doors: &doors}
	c := New(remote, s, nil)

	c.RestoreDoors()
	if _, err := c.RefreshDoors(); err != nil {
		t.Fatalf("RefreshDoors: %v", err)
	}
	if n := remote.doorCalls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}
