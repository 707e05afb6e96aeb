package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/artifacts"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/models"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/repository"
)

const header = "Store,DayOfWeek,Date,Sales,Customers,Open,Promo,StateHoliday,SchoolHoliday,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval\n"

const scenarioCSV = header +
	"1,5,2015-07-31,5263,555,1,1,0,1,c,a,1270,9,2008,0,,,\n" +
	"2,5,2015-07-31,6064,625,1,1,0,1,a,a,570,11,2007,1,13,2010,\"Jan,Apr,Jul,Oct\"\n"

const missingPromoCSV = "Store,DayOfWeek,Date,Customers,Open,StateHoliday,SchoolHoliday,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval\n" +
	"1,5,2015-07-31,555,1,0,1,c,a,1270,9,2008,0,,,\n"

const unknownStoreTypeCSV = header +
	"1,5,2015-07-31,5263,555,1,1,0,1,z,a,1270,9,2008,0,,,\n"

func loadBundle(t *testing.T) *artifacts.Bundle {
	t.Helper()
	b, err := artifacts.Load(context.Background(), artifacts.DirSource{Dir: "../../../artifacts"})
	require.NoError(t, err)
	return b
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs []*models.RunRecord
	err  error
}

func (f *fakeRunStore) Put(_ context.Context, run *models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *run
	f.runs = append(f.runs, &cp)
	return nil
}

func (f *fakeRunStore) List(_ context.Context, limit int) ([]*models.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) < limit {
		limit = len(f.runs)
	}
	return f.runs[:limit], nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.ForecastEvent
}

func (f *fakeEvents) PublishForecastEvent(_ context.Context, ev models.ForecastEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func newService(t *testing.T) (ForecastService, *fakeRunStore, *fakeEvents) {
	t.Helper()
	runs, events := &fakeRunStore{}, &fakeEvents{}
	svc, err := NewForecastService(Deps{Bundle: loadBundle(t), Runs: runs, Events: events})
	require.NoError(t, err)
	return svc, runs, events
}

// fakeJobStore keeps jobs in memory and feeds Dequeue from a channel.
type fakeJobStore struct {
	mu    sync.Mutex
	jobs  map[string]models.Job
	queue chan string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]models.Job{}, queue: make(chan string, 16)}
}

func (f *fakeJobStore) Save(_ context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobStore) Get(_ context.Context, id string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

func (f *fakeJobStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
	return nil
}

func (f *fakeJobStore) Enqueue(_ context.Context, id string) error {
	f.queue <- id
	return nil
}

func (f *fakeJobStore) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-f.queue:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(timeout):
		return "", repository.ErrQueueEmpty
	}
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	getErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string]string{}} }

func (m *memStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return []byte(v), nil
}

func (m *memStore) Put(_ context.Context, bucket, key string, body io.Reader, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = string(b)
	return nil
}

func reader(s string) io.Reader { return strings.NewReader(s) }
