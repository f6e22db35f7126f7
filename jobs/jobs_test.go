package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/meatstock/internal/jobs"
	"github.com/odyssey-erp/meatstock/internal/ledger"
)

type fakeLedgerService struct {
	today       time.Time
	ledgers     map[string]ledger.Ledger
	recalcErr   error
	created     []string
	recalculate []uuid.UUID
}

func newFakeLedgerService() *fakeLedgerService {
	return &fakeLedgerService{
		today:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		ledgers: map[string]ledger.Ledger{},
	}
}

func (f *fakeLedgerService) Today() time.Time { return f.today }

func (f *fakeLedgerService) GetOrCreate(_ context.Context, date time.Time, actor ledger.Actor) (ledger.Ledger, error) {
	key := date.Format(dateLayout)
	if l, ok := f.ledgers[key]; ok {
		return l, nil
	}
	f.created = append(f.created, key+":"+actor.ID)
	l := ledger.Ledger{ID: uuid.New(), Date: date, Status: ledger.StatusDraft}
	f.ledgers[key] = l
	return l, nil
}

func (f *fakeLedgerService) GetByDate(_ context.Context, date time.Time) (ledger.Ledger, error) {
	l, ok := f.ledgers[date.Format(dateLayout)]
	if !ok {
		return ledger.Ledger{}, ledger.ErrLedgerNotFound
	}
	return l, nil
}

func (f *fakeLedgerService) Recalculate(_ context.Context, id uuid.UUID, _ ledger.Actor) (ledger.Ledger, error) {
	if f.recalcErr != nil {
		return ledger.Ledger{}, f.recalcErr
	}
	f.recalculate = append(f.recalculate, id)
	return ledger.Ledger{ID: id}, nil
}

type fakeCleaner struct {
	olderThan time.Duration
	err       error
}

func (c *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	c.olderThan = olderThan
	return 3, c.err
}

func newTestJobs(svc LedgerService, keys KeyCleaner) *LedgerJobs {
	return NewLedgerJobs(svc, keys, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestTaskConstructors(t *testing.T) {
	task, err := NewOpenDayTask("")
	require.NoError(t, err)
	require.Equal(t, TaskLedgerOpenDay, task.Type())
	require.JSONEq(t, `{}`, string(task.Payload()))

	task, err = NewRecalculateTask("2026-03-09")
	require.NoError(t, err)
	require.JSONEq(t, `{"date":"2026-03-09"}`, string(task.Payload()))

	_, err = NewRecalculateTask("")
	require.Error(t, err)
	_, err = NewOpenDayTask("09/03/2026")
	require.Error(t, err)

	task, err = NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	var payload CleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, 7*24*time.Hour, payload.OlderThan)
}

func TestHandleOpenDay(t *testing.T) {
	svc := newFakeLedgerService()
	j := newTestJobs(svc, nil)

	task, err := NewOpenDayTask("")
	require.NoError(t, err)
	require.NoError(t, j.HandleOpenDay(context.Background(), task))

	task, err = NewOpenDayTask("2026-03-11")
	require.NoError(t, err)
	require.NoError(t, j.HandleOpenDay(context.Background(), task))
	require.NoError(t, j.HandleOpenDay(context.Background(), task))

	require.Equal(t, []string{"2026-03-10:worker", "2026-03-11:worker"}, svc.created)

	err = j.HandleOpenDay(context.Background(), asynq.NewTask(TaskLedgerOpenDay, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRecalculate(t *testing.T) {
	svc := newFakeLedgerService()
	j := newTestJobs(svc, nil)

	task, err := NewRecalculateTask("2026-03-09")
	require.NoError(t, err)
	require.ErrorIs(t, j.HandleRecalculate(context.Background(), task), asynq.SkipRetry)
	require.Empty(t, svc.created)

	existing, err := svc.GetOrCreate(context.Background(), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), ledger.Actor{ID: "sk"})
	require.NoError(t, err)
	require.NoError(t, j.HandleRecalculate(context.Background(), task))
	require.Equal(t, []uuid.UUID{existing.ID}, svc.recalculate)

	svc.recalcErr = ledger.ErrLedgerFinalized
	require.ErrorIs(t, j.HandleRecalculate(context.Background(), task), asynq.SkipRetry)

	boom := errors.New("store down")
	svc.recalcErr = boom
	err = j.HandleRecalculate(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	empty := asynq.NewTask(TaskLedgerRecalculate, []byte(`{}`))
	require.ErrorIs(t, j.HandleRecalculate(context.Background(), empty), asynq.SkipRetry)
}

func TestHandleIdempotencyCleanup(t *testing.T) {
	cleaner := &fakeCleaner{}
	j := newTestJobs(newFakeLedgerService(), cleaner)

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, j.HandleIdempotencyCleanup(context.Background(), task))
	require.Equal(t, 48*time.Hour, cleaner.olderThan)

	cleaner.err = errors.New("db down")
	require.Error(t, j.HandleIdempotencyCleanup(context.Background(), task))

	require.Error(t, newTestJobs(newFakeLedgerService(), nil).HandleIdempotencyCleanup(context.Background(), task))
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	require.Error(t, err)
}

func TestClientEnqueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	info, err := client.EnqueueOpenDay(context.Background(), "2026-03-10")
	require.NoError(t, err)
	require.Equal(t, TaskLedgerOpenDay, info.Type)
	require.Equal(t, QueueDefault, info.Queue)
	require.Equal(t, 3, info.MaxRetry)

	_, err = client.EnqueueRecalculate(context.Background(), "")
	require.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{"no inspector", nil, http.StatusOK, 0},
		{"queue info", stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, http.StatusOK, 4},
		{"redis down", stubInspector{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.status, rr.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body queueHealth
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, QueueDefault, body.Queue)
			require.Equal(t, tc.pending, body.Pending)
		})
	}
}
