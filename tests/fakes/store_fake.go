package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// FakeStore is an in-memory implementation of store.Client.
//
// Buckets, errors, and latency are configured through the fluent builder
// methods. Example:
//
//	fake := fakes.NewFakeStore().
//	    WithSecret("api", "token", "tok-123").
//	    WithError("broken-app", errors.New("connection reset"))
//
//	bucket, err := fake.ApplicationSecrets(ctx, "api")
type FakeStore struct {
	name string

	// Test data storage
	buckets map[string]map[string]secrets.Value // app -> key -> value

	// Behavior control
	failOn      map[string]error // app -> error to return
	validateErr error
	readDelay   time.Duration  // simulate network latency
	callCount   map[string]int // method call tracking

	// Thread safety
	mu sync.RWMutex
}

// NewFakeStore creates an empty fake store named "fake".
func NewFakeStore() *FakeStore {
	return &FakeStore{
		name:      "fake",
		buckets:   make(map[string]map[string]secrets.Value),
		failOn:    make(map[string]error),
		callCount: make(map[string]int),
	}
}

// WithName overrides the backend identifier returned by Name.
func (f *FakeStore) WithName(name string) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.name = name
	return f
}

// WithSecret stores a value under (app, key), creating the application
// bucket on first use.
func (f *FakeStore) WithSecret(app, key, value string) *FakeStore {
	return f.withValue(app, key, secrets.NewValue(value))
}

// WithUnsetSecret stores the key with no value: the store knows the key
// but holds nothing for it.
func (f *FakeStore) WithUnsetSecret(app, key string) *FakeStore {
	return f.withValue(app, key, secrets.Unset())
}

func (f *FakeStore) withValue(app, key string, value secrets.Value) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, ok := f.buckets[app]
	if !ok {
		bucket = make(map[string]secrets.Value)
		f.buckets[app] = bucket
	}
	bucket[key] = value
	return f
}

// WithApplication registers an application with an empty bucket, distinct
// from an application the store does not know at all.
func (f *FakeStore) WithApplication(app string) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buckets[app]; !ok {
		f.buckets[app] = make(map[string]secrets.Value)
	}
	return f
}

// WithError makes ApplicationSecrets fail for one application.
func (f *FakeStore) WithError(app string, err error) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failOn[app] = err
	return f
}

// WithValidateError makes Validate fail.
func (f *FakeStore) WithValidateError(err error) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.validateErr = err
	return f
}

// WithDelay adds artificial latency to ApplicationSecrets calls, for
// exercising timeout and fan-out behavior.
func (f *FakeStore) WithDelay(d time.Duration) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readDelay = d
	return f
}

// Name returns the backend identifier.
func (f *FakeStore) Name() string {
	return f.name
}

// ApplicationSecrets returns a copy of the configured bucket, the
// configured error, or store.NotFoundError when the application was never
// registered.
func (f *FakeStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	f.trackCall("ApplicationSecrets")

	if f.readDelay > 0 {
		select {
		case <-time.After(f.readDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if err, ok := f.failOn[app]; ok {
		return nil, err
	}

	bucket, ok := f.buckets[app]
	if !ok {
		return nil, store.NotFoundError{Store: f.name, Application: app}
	}

	out := make(map[string]secrets.Value, len(bucket))
	for key, value := range bucket {
		out[key] = value
	}
	return out, nil
}

// Validate returns the configured validation error, if any.
func (f *FakeStore) Validate(ctx context.Context) error {
	f.trackCall("Validate")

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.validateErr
}

// GetCallCount returns how many times a method was called. Method names:
// "ApplicationSecrets", "Validate".
func (f *FakeStore) GetCallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.callCount[method]
}

func (f *FakeStore) trackCall(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.callCount[method]++
}

// String describes the fake without exposing any stored value.
func (f *FakeStore) String() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return fmt.Sprintf("FakeStore{name=%s, applications=%d}", f.name, len(f.buckets))
}
