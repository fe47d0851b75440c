// Package store is the local cache: one camera snapshot and one door snapshot
// kept in an embedded badger database.
//
// Key layout:
//
//	cameras/meta        {"rooms": [...], "ids": [...]}
//	cameras/item/<id>   Camera
//	doors/meta          {"ids": [...]}
//	doors/item/<id>     Door
//
// The meta record owns the item records under the same prefix. Replacing or
// clearing a collection deletes every key under its prefix and writes the new
// records inside one badger transaction, so readers observe either the old or
// the new snapshot and never an empty or partial one.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"intercom-cli/internal/logging"
	"intercom-cli/pkg/models"
)

const (
	camerasPrefix = "cameras/"
	doorsPrefix   = "doors/"

	metaKey  = "meta"
	itemsKey = "item/"
)

// Config controls where the cache lives.
type Config struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the cache in memory only.
	InMemory bool
}

// Store implements the local cache. Writes to the same collection are
// serialized; the two collections are independent.
type Store struct {
	db *badger.DB

	cameraMu sync.Mutex
	doorMu   sync.Mutex
}

type cameraMeta struct {
	Rooms []string `json:"rooms"`
	IDs   []int    `json:"ids"`
}

type doorMeta struct {
	IDs []int `json:"ids"`
}

// Open opens (or creates) the cache. A storage that cannot be opened is
// reported as a *PersistenceError.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(logging.NewBadgerLogger())

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}

	logging.Debug().Str("dir", cfg.Dir).Bool("in_memory", cfg.InMemory).Msg("cache opened")
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return persistErr("close", s.db.Close())
}

// ReadCameras returns the current camera snapshot, or nil if none is cached.
func (s *Store) ReadCameras() (*models.CameraCollection, error) {
	var out *models.CameraCollection

	err := s.db.View(func(txn *badger.Txn) error {
		var meta cameraMeta
		found, err := getJSON(txn, camerasPrefix+metaKey, &meta)
		if err != nil || !found {
			return err
		}

		cams := make([]models.Camera, 0, len(meta.IDs))
		for _, id := range meta.IDs {
			var cam models.Camera
			ok, err := getJSON(txn, itemKey(camerasPrefix, id), &cam)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("camera %d referenced by snapshot is missing", id)
			}
			cams = append(cams, cam)
		}

		c := models.CameraCollection{Rooms: meta.Rooms, Cameras: cams}.Normalize()
		out = &c
		return nil
	})
	if err != nil {
		return nil, persistErr("read cameras", err)
	}
	return out, nil
}

// ReadDoors returns the current door snapshot, or nil if none is cached.
func (s *Store) ReadDoors() (*models.DoorCollection, error) {
	var out *models.DoorCollection

	err := s.db.View(func(txn *badger.Txn) error {
		var meta doorMeta
		found, err := getJSON(txn, doorsPrefix+metaKey, &meta)
		if err != nil || !found {
			return err
		}

		doors := make([]models.Door, 0, len(meta.IDs))
		for _, id := range meta.IDs {
			var d models.Door
			ok, err := getJSON(txn, itemKey(doorsPrefix, id), &d)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("door %d referenced by snapshot is missing", id)
			}
			doors = append(doors, d)
		}

		c := models.DoorCollection{Doors: doors}.Normalize()
		out = &c
		return nil
	})
	if err != nil {
		return nil, persistErr("read doors", err)
	}
	return out, nil
}

// ReplaceCameras clears the cached camera snapshot and writes c in its place.
// Snapshots with duplicate identifiers are rejected before anything is
// touched.
func (s *Store) ReplaceCameras(c models.CameraCollection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c = c.Normalize()

	s.cameraMu.Lock()
	defer s.cameraMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, camerasPrefix); err != nil {
			return err
		}

		meta := cameraMeta{Rooms: c.Rooms, IDs: make([]int, 0, len(c.Cameras))}
		for _, cam := range c.Cameras {
			if err := setJSON(txn, itemKey(camerasPrefix, cam.ID), cam); err != nil {
				return err
			}
			meta.IDs = append(meta.IDs, cam.ID)
		}
		return setJSON(txn, camerasPrefix+metaKey, meta)
	})
	if err != nil {
		return persistErr("replace cameras", err)
	}

	logging.Debug().Int("cameras", len(c.Cameras)).Int("rooms", len(c.Rooms)).Msg("camera snapshot replaced")
	return nil
}

// ReplaceDoors clears the cached door snapshot and writes c in its place.
func (s *Store) ReplaceDoors(c models.DoorCollection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c = c.Normalize()

	s.doorMu.Lock()
	defer s.doorMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, doorsPrefix); err != nil {
			return err
		}

		meta := doorMeta{IDs: make([]int, 0, len(c.Doors))}
		for _, d := range c.Doors {
			if err := setJSON(txn, itemKey(doorsPrefix, d.ID), d); err != nil {
				return err
			}
			meta.IDs = append(meta.IDs, d.ID)
		}
		return setJSON(txn, doorsPrefix+metaKey, meta)
	})
	if err != nil {
		return persistErr("replace doors", err)
	}

	logging.Debug().Int("doors", len(c.Doors)).Msg("door snapshot replaced")
	return nil
}

// RenameDoor sets the name of one cached door and returns the updated door.
// Nothing else in the snapshot changes.
func (s *Store) RenameDoor(id int, name string) (models.Door, error) {
	s.doorMu.Lock()
	defer s.doorMu.Unlock()

	var door models.Door
	err := s.db.Update(func(txn *badger.Txn) error {
		found, err := getJSON(txn, itemKey(doorsPrefix, id), &door)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("door %d: %w", id, ErrDoorNotFound)
		}

		door.Name = name
		return setJSON(txn, itemKey(doorsPrefix, id), door)
	})
	if errors.Is(err, ErrDoorNotFound) {
		return models.Door{}, err
	}
	if err != nil {
		return models.Door{}, persistErr("rename door", err)
	}
	return door, nil
}

// ClearCameras removes the camera snapshot and every camera record it owns.
func (s *Store) ClearCameras() error {
	s.cameraMu.Lock()
	defer s.cameraMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, camerasPrefix)
	})
	return persistErr("clear cameras", err)
}

// ClearDoors removes the door snapshot and every door record it owns.
func (s *Store) ClearDoors() error {
	s.doorMu.Lock()
	defer s.doorMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, doorsPrefix)
	})
	return persistErr("clear doors", err)
}

func itemKey(prefix string, id int) string {
	return prefix + itemsKey + strconv.Itoa(id)
}

// deletePrefix removes every key under prefix within txn.
func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	var keys [][]byte
	it := txn.NewIterator(opts)
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

func getJSON(txn *badger.Txn, key string, v interface{}) (bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
