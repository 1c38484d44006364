// ABOUTME: Batch variants of rename, delete, and refresh over room name lists
// ABOUTME: Each name is processed independently; failures never abort the batch

package room

import (
	"context"
	"fmt"
)

// BatchResult aggregates per-name outcomes of a batch operation.
type BatchResult struct {
	Succeeded []string
	Failed    []BatchFailure
}

// BatchFailure records why one name in a batch failed.
type BatchFailure struct {
	Name   string
	Reason error
}

// RenameBatch renames olds[i] to news[i] pairwise. The two lists must be
// the same length. Each pair is processed independently.
func (r *Registry) RenameBatch(ctx context.Context, actorID string, olds, news []string) (*BatchResult, error) {
	if len(olds) != len(news) {
		return nil, fmt.Errorf("got %d names but %d new names", len(olds), len(news))
	}

	result := &BatchResult{}
	for i, name := range olds {
		if err := r.Rename(ctx, actorID, name, news[i]); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Name: name, Reason: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, name)
	}
	return result, nil
}

// DeleteBatch deletes each named room independently.
func (r *Registry) DeleteBatch(ctx context.Context, actorID string, names []string) *BatchResult {
	result := &BatchResult{}
	for _, name := range names {
		if err := r.Delete(ctx, actorID, name); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Name: name, Reason: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, name)
	}
	return result
}

// RefreshBatch refreshes each named room independently.
func (r *Registry) RefreshBatch(ctx context.Context, actorID string, names []string) *BatchResult {
	result := &BatchResult{}
	for _, name := range names {
		if err := r.Refresh(ctx, actorID, name); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Name: name, Reason: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, name)
	}
	return result
}
