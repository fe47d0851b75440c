// Package coordinator decides, per collection, whether to serve the cached
// snapshot or fetch a fresh one, and writes fresh data back to the cache.
//
// Initial load serves the cache when it holds a snapshot and only goes to the
// network when it does not. Refresh always goes to the network; a failed
// refresh keeps the previous snapshot. Renames are local only.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"intercom-cli/internal/logging"
	"intercom-cli/pkg/models"
)

// RemoteClient fetches fresh collections from the backend.
type RemoteClient interface {
	FetchCameras() (*models.CameraCollection, error)
	FetchDoors() (*models.DoorCollection, error)
}

// LocalStore is the persistent cache.
type LocalStore interface {
	ReadCameras() (*models.CameraCollection, error)
	ReadDoors() (*models.DoorCollection, error)
	ReplaceCameras(models.CameraCollection) error
	ReplaceDoors(models.DoorCollection) error
	RenameDoor(id int, name string) (models.Door, error)
}

// Recorder observes completed operations. A nil Recorder is allowed.
type Recorder interface {
	FetchCompleted(collection string, err error)
	RenameCompleted(err error)
}

// Coordinator owns the in-memory state of both collections.
type Coordinator struct {
	remote RemoteClient
	store  LocalStore
	rec    Recorder

	// one in-flight fetch per collection
	flight singleflight.Group

	mu      sync.RWMutex
	cameras slot[models.CameraCollection]
	doors   slot[models.DoorCollection]
}

func New(remote RemoteClient, store LocalStore, rec Recorder) *Coordinator {
	return &Coordinator{remote: remote, store: store, rec: rec}
}

// State reports the lifecycle state of a collection.
func (c *Coordinator) State(col Collection) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch col {
	case Cameras:
		return c.cameras.state
	case Doors:
		return c.doors.state
	}
	return StateEmpty
}

// Cameras returns the current camera snapshot, if any.
func (c *Coordinator) Cameras() (models.CameraCollection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cameras.snap == nil {
		return models.CameraCollection{}, false
	}
	return *c.cameras.snap, true
}

// Doors returns the current door snapshot, if any.
func (c *Coordinator) Doors() (models.DoorCollection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.doors.snap == nil {
		return models.DoorCollection{}, false
	}
	return *c.doors.snap, true
}

// LoadCameras performs the initial load for cameras: the cached snapshot if
// there is one, otherwise a blocking remote fetch.
func (c *Coordinator) LoadCameras() (models.CameraCollection, error) {
	v, err := load(c, Cameras, &c.cameras, c.store.ReadCameras, c.remote.FetchCameras, c.store.ReplaceCameras)
	if err != nil {
		return models.CameraCollection{}, err
	}
	return *v, nil
}

// LoadDoors performs the initial load for doors.
func (c *Coordinator) LoadDoors() (models.DoorCollection, error) {
	v, err := load(c, Doors, &c.doors, c.store.ReadDoors, c.remote.FetchDoors, c.store.ReplaceDoors)
	if err != nil {
		return models.DoorCollection{}, err
	}
	return *v, nil
}

// RestoreCameras installs the cached camera snapshot without touching the
// network. It reports whether a snapshot is in memory afterwards.
func (c *Coordinator) RestoreCameras() bool {
	return restore(c, Cameras, &c.cameras, c.store.ReadCameras) != nil
}

// RestoreDoors installs the cached door snapshot without touching the network.
func (c *Coordinator) RestoreDoors() bool {
	return restore(c, Doors, &c.doors, c.store.ReadDoors) != nil
}

// LoadAll loads both collections concurrently. Both loads run to completion;
// the first error is returned.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.LoadCameras()
		return err
	})
	g.Go(func() error {
		_, err := c.LoadDoors()
		return err
	})
	return g.Wait()
}

// RefreshCameras fetches a fresh camera list and replaces the cached one.
// On failure the previous snapshot stays in place and the error is returned.
func (c *Coordinator) RefreshCameras() (models.CameraCollection, error) {
	v, err := refresh(c, Cameras, &c.cameras, c.remote.FetchCameras, c.store.ReplaceCameras)
	if err != nil {
		return models.CameraCollection{}, err
	}
	return *v, nil
}

// RefreshDoors fetches a fresh door list and replaces the cached one.
func (c *Coordinator) RefreshDoors() (models.DoorCollection, error) {
	v, err := refresh(c, Doors, &c.doors, c.remote.FetchDoors, c.store.ReplaceDoors)
	if err != nil {
		return models.DoorCollection{}, err
	}
	return *v, nil
}

// Refresh refreshes the named collection.
func (c *Coordinator) Refresh(col Collection) error {
	var err error
	switch col {
	case Cameras:
		_, err = c.RefreshCameras()
	case Doors:
		_, err = c.RefreshDoors()
	default:
		err = errUnknownCollection
	}
	return err
}

// RefreshAsync starts a refresh and returns immediately. The result is
// delivered on the returned channel from another goroutine. A refresh
// requested while one is in flight for the same collection joins it.
func (c *Coordinator) RefreshAsync(col Collection) <-chan error {
	out := make(chan error, 1)

	var ch <-chan singleflight.Result
	switch col {
	case Cameras:
		ch = c.flight.DoChan(string(Cameras), func() (interface{}, error) {
			return fetchAndSwap(c, Cameras, &c.cameras, c.remote.FetchCameras, c.store.ReplaceCameras)
		})
	case Doors:
		ch = c.flight.DoChan(string(Doors), func() (interface{}, error) {
			return fetchAndSwap(c, Doors, &c.doors, c.remote.FetchDoors, c.store.ReplaceDoors)
		})
	default:
		out <- errUnknownCollection
		close(out)
		return out
	}

	go func() {
		res := <-ch
		out <- res.Err
		close(out)
	}()
	return out
}

// RenameDoor renames one door in the cache and in the current snapshot. It
// never touches the network.
func (c *Coordinator) RenameDoor(id int, name string) (models.Door, error) {
	c.doors.write.Lock()
	defer c.doors.write.Unlock()

	door, err := c.store.RenameDoor(id, name)
	if c.rec != nil {
		c.rec.RenameCompleted(err)
	}
	if err != nil {
		logging.Warn().Err(err).Int("id", id).Msg("door rename failed")
		return models.Door{}, err
	}

	c.mu.Lock()
	if c.doors.snap != nil {
		renamed := c.doors.snap.WithName(id, name)
		c.doors.snap = &renamed
	}
	c.mu.Unlock()

	logging.Info().Int("id", id).Str("name", name).Msg("door renamed")
	return door, nil
}

var errUnknownCollection = errors.New("unknown collection")

func load[T any](
	c *Coordinator,
	col Collection,
	s *slot[T],
	read func() (*T, error),
	fetch func() (*T, error),
	replace func(T) error,
) (*T, error) {
	if snap := restore(c, col, s, read); snap != nil {
		return snap, nil
	}
	return refresh(c, col, s, fetch, replace)
}

// restore installs the cached snapshot when memory holds none. The slot's
// write lock is held from the read until the install so a concurrent rename
// lands either before the read or after the snapshot is in memory.
func restore[T any](
	c *Coordinator,
	col Collection,
	s *slot[T],
	read func() (*T, error),
) *T {
	c.mu.RLock()
	if s.snap != nil {
		snap := s.snap
		c.mu.RUnlock()
		return snap
	}
	c.mu.RUnlock()

	s.write.Lock()
	defer s.write.Unlock()

	cached, err := read()
	if err != nil {
		logging.Warn().Err(err).Str("collection", string(col)).Msg("cache unreadable, fetching from network")
	}
	if cached == nil {
		return nil
	}

	c.mu.Lock()
	if s.snap == nil {
		s.snap = cached
		s.state = StateReady
	}
	snap := s.snap
	c.mu.Unlock()

	logging.Debug().Str("collection", string(col)).Msg("served from cache")
	return snap
}

func refresh[T any](
	c *Coordinator,
	col Collection,
	s *slot[T],
	fetch func() (*T, error),
	replace func(T) error,
) (*T, error) {
	v, err, shared := c.flight.Do(string(col), func() (interface{}, error) {
		return fetchAndSwap(c, col, s, fetch, replace)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug().Str("collection", string(col)).Msg("joined in-flight refresh")
	}
	return v.(*T), nil
}

// fetchAndSwap runs inside the singleflight group, so at most one instance
// per collection executes at a time.
func fetchAndSwap[T any](
	c *Coordinator,
	col Collection,
	s *slot[T],
	fetch func() (*T, error),
	replace func(T) error,
) (*T, error) {
	c.mu.Lock()
	if s.snap != nil {
		s.state = StateRefreshing
	} else {
		s.state = StateLoading
	}
	c.mu.Unlock()

	fresh, err := fetch()

	s.write.Lock()
	defer s.write.Unlock()

	if err == nil {
		err = replace(*fresh)
	}

	if c.rec != nil {
		c.rec.FetchCompleted(string(col), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		s.settle()
		logging.Error().Err(err).Str("collection", string(col)).Str("state", s.state.String()).Msg("refresh failed")
		return nil, err
	}

	s.snap = fresh
	s.state = StateReady
	logging.Info().Str("collection", string(col)).Msg("snapshot refreshed")
	return fresh, nil
}
