package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"intercom-cli/internal/coordinator"
	"intercom-cli/pkg/models"
)

// Source is the read side of the coordinator.
type Source interface {
	State(coordinator.Collection) coordinator.State
	Cameras() (models.CameraCollection, bool)
	Doors() (models.DoorCollection, bool)
}

var (
	itemsDesc = prometheus.NewDesc(
		"intercom_collection_items", "Entities in the current snapshot.", []string{"collection"}, nil,
	)
	roomsDesc = prometheus.NewDesc(
		"intercom_camera_rooms", "Room labels in the camera snapshot.", nil, nil,
	)
	recordingDesc = prometheus.NewDesc(
		"intercom_cameras_recording", "Cameras currently recording.", nil, nil,
	)
	favoritesDesc = prometheus.NewDesc(
		"intercom_favorites", "Favorite entities in the current snapshot.", []string{"collection"}, nil,
	)
	stateDesc = prometheus.NewDesc(
		"intercom_collection_state", "1 for the current lifecycle state of a collection.", []string{"collection", "state"}, nil,
	)
)

var allStates = []coordinator.State{
	coordinator.StateEmpty,
	coordinator.StateLoading,
	coordinator.StateReady,
	coordinator.StateRefreshing,
}

// CacheCollector exposes the coordinator's snapshots as gauges at scrape
// time.
type CacheCollector struct {
	Source Source
	Mutex  sync.Mutex
}

func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- itemsDesc
	ch <- roomsDesc
	ch <- recordingDesc
	ch <- favoritesDesc
	ch <- stateDesc
}

func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	for _, col := range []coordinator.Collection{coordinator.Cameras, coordinator.Doors} {
		current := c.Source.State(col)
		for _, st := range allStates {
			v := 0.0
			if st == current {
				v = 1.0
			}
			ch <- prometheus.MustNewConstMetric(stateDesc, prometheus.GaugeValue, v, string(col), st.String())
		}
	}

	if cams, ok := c.Source.Cameras(); ok {
		recording, favorites := 0.0, 0.0
		for _, cam := range cams.Cameras {
			if cam.IsRecording {
				recording++
			}
			if cam.IsFavorite {
				favorites++
			}
		}
		ch <- prometheus.MustNewConstMetric(itemsDesc, prometheus.GaugeValue, float64(len(cams.Cameras)), string(coordinator.Cameras))
		ch <- prometheus.MustNewConstMetric(favoritesDesc, prometheus.GaugeValue, favorites, string(coordinator.Cameras))
		ch <- prometheus.MustNewConstMetric(roomsDesc, prometheus.GaugeValue, float64(len(cams.Rooms)))
		ch <- prometheus.MustNewConstMetric(recordingDesc, prometheus.GaugeValue, recording)
	}

	if doors, ok := c.Source.Doors(); ok {
		favorites := 0.0
		for _, d := range doors.Doors {
			if d.IsFavorite {
				favorites++
			}
		}
		ch <- prometheus.MustNewConstMetric(itemsDesc, prometheus.GaugeValue, float64(len(doors.Doors)), string(coordinator.Doors))
		ch <- prometheus.MustNewConstMetric(favoritesDesc, prometheus.GaugeValue, favorites, string(coordinator.Doors))
	}
}
