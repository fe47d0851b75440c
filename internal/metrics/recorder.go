package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"intercom-cli/internal/client"
	"intercom-cli/internal/store"
	"intercom-cli/pkg/models"
)

// Recorder counts fetch and rename outcomes. It satisfies
// coordinator.Recorder.
type Recorder struct {
	fetches *prometheus.CounterVec
	renames *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intercom_fetch_total",
			Help: "Remote fetches by collection and result.",
		}, []string{"collection", "result"}),
		renames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intercom_rename_total",
			Help: "Local door renames by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.fetches, r.renames)
	return r
}

func (r *Recorder) FetchCompleted(collection string, err error) {
	r.fetches.WithLabelValues(collection, Result(err)).Inc()
}

func (r *Recorder) RenameCompleted(err error) {
	r.renames.WithLabelValues(Result(err)).Inc()
}

// Result maps an error to a low-cardinality label value.
func Result(err error) string {
	var apiErr *client.APIError
	var pe *store.PersistenceError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, client.ErrOffline):
		return "offline"
	case errors.As(err, &apiErr):
		switch apiErr.Type {
		case client.TypeInvalidData:
			return "invalid_data"
		case client.TypeInternal:
			return "transport"
		default:
			return "status"
		}
	case errors.Is(err, store.ErrDoorNotFound):
		return "not_found"
	case errors.Is(err, models.ErrDuplicateID):
		return "duplicate_id"
	case errors.As(err, &pe):
		return "persistence"
	default:
		return "error"
	}
}
