package srv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
}

type fakeService struct {
	name     string
	rec      *recorder
	startErr error
	returns  bool
}

func (f *fakeService) Start(ctx context.Context) error {
	if f.returns {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Shutdown(ctx context.Context) error {
	f.rec.add(f.name)
	return nil
}

func TestRun_ShutdownInReverseOrderOnCancel(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []Service{
			&fakeService{name: "a", rec: rec},
			&fakeService{name: "b", rec: rec},
			&fakeService{name: "c", rec: rec},
		})
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"c", "b", "a"}, rec.order)
}

func TestRun_FirstServiceToReturnStopsAll(t *testing.T) {
	rec := &recorder{}
	err := Run(context.Background(), []Service{
		&fakeService{name: "db", rec: rec},
		&fakeService{name: "ui", rec: rec, returns: true},
	})

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"db", "ui"}, rec.order)
}

func TestRun_StartErrorIsReported(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("listen failed")

	err := Run(context.Background(), []Service{
		&fakeService{name: "ops", rec: rec, returns: true, startErr: boom},
	})

	assert.ErrorIs(t, err, boom)
}

func TestCleanup_RunsOnShutdown(t *testing.T) {
	called := false
	svc := NewCleanup(func() error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, svc.Start(ctx))
	assert.NoError(t, svc.Shutdown(context.Background()))
	assert.True(t, called)
}
