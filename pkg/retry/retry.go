package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Operation is one attempt. Returning an error wrapped by Stop ends the loop.
type Operation = func(ctx context.Context) error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Jitter:        100 * time.Millisecond,
	}
}

type stopError struct {
	err error
}

func (s stopError) Error() string { return s.err.Error() }
func (s stopError) Unwrap() error { return s.err }

// Stop marks err as not worth retrying.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return stopError{err: err}
}

type Retrier struct {
	config *Config
	// OnRetry is called before each wait with the upcoming attempt number.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{
		config: config,
	}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	delay := r.config.InitialDelay
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		var stop stopError
		if errors.As(err, &stop) {
			return stop.err
		}

		if attempt == r.config.MaxRetries {
			return err
		}

		wait := delay
		if r.config.Jitter > 0 {
			wait += time.Duration(rnd.Float64() * float64(r.config.Jitter))
		}
		if wait > r.config.MaxDelay {
			wait = r.config.MaxDelay
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt+1, wait, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
	return err
}
