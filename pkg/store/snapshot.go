package store

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/systmms/vaultops/pkg/secrets"
)

// defaultMaxConcurrent bounds the per-application fan-out so a large
// environment cannot overwhelm a backend with parallel reads.
const defaultMaxConcurrent = 10

// SnapshotEnvironment reads the stored bucket of every application and
// assembles the point-in-time snapshot the resolver and auditor work
// from. Reads run concurrently, bounded by maxConcurrent (a value <= 0
// selects the default of 10).
//
// An application the backend does not know contributes an empty bucket.
// Any other failure is collected; all failures are returned together so
// one broken application does not hide another.
func SnapshotEnvironment(ctx context.Context, client Client, applications []string, maxConcurrent int) (secrets.Snapshot, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	snapshot := make(secrets.Snapshot, len(applications))
	var mu sync.Mutex

	var wg sync.WaitGroup
	errChan := make(chan error, len(applications))
	semaphore := make(chan struct{}, maxConcurrent)

	for _, app := range applications {
		wg.Add(1)
		go func(app string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			bucket, err := client.ApplicationSecrets(ctx, app)
			if err != nil {
				var notFound NotFoundError
				if errors.As(err, &notFound) {
					bucket = map[string]secrets.Value{}
				} else {
					errChan <- err
					return
				}
			}

			mu.Lock()
			snapshot[app] = bucket
			mu.Unlock()
		}(app)
	}

	wg.Wait()
	close(errChan)

	var merr *multierror.Error
	for err := range errChan {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	return snapshot, nil
}
