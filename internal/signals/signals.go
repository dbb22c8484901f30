package signals

import (
	"context"

	"github.com/maniartech/signals"
)

// DatasetReloadedData describes a repository that was just published
type DatasetReloadedData struct {
	Generation     string
	Source         string
	Resource       string
	ComputedDigest string
	Days           int
	Scriptures     int
}

// DatasetReloadFailedData describes a reload that left the current repository in place
type DatasetReloadFailedData struct {
	Generation string
	Resource   string
	Err        error
}

// Signal definitions using generics
var DatasetReloaded = signals.New[DatasetReloadedData]()
var DatasetReloadFailed = signals.New[DatasetReloadFailedData]()

// EmitDatasetReloaded emits a signal after a new repository is published
func EmitDatasetReloaded(ctx context.Context, data DatasetReloadedData) {
	DatasetReloaded.Emit(ctx, data)
}

// EmitDatasetReloadFailed emits a signal when a reload is rejected
func EmitDatasetReloadFailed(ctx context.Context, generation, resource string, err error) {
	DatasetReloadFailed.Emit(ctx, DatasetReloadFailedData{
		Generation: generation,
		Resource:   resource,
		Err:        err,
	})
}

// OnDatasetReloaded registers a handler for successful reloads
func OnDatasetReloaded(handler func(ctx context.Context, data DatasetReloadedData), key ...string) {
	if len(key) > 0 {
		DatasetReloaded.AddListener(handler, key[0])
	} else {
		DatasetReloaded.AddListener(handler)
	}
}

// OnDatasetReloadFailed registers a handler for rejected reloads
func OnDatasetReloadFailed(handler func(ctx context.Context, data DatasetReloadFailedData), key ...string) {
	if len(key) > 0 {
		DatasetReloadFailed.AddListener(handler, key[0])
	} else {
		DatasetReloadFailed.AddListener(handler)
	}
}

// Off removes the handlers registered under key from both dataset signals
func Off(key string) {
	DatasetReloaded.RemoveListener(key)
	DatasetReloadFailed.RemoveListener(key)
}
