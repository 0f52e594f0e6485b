package outbound

import (
	"avatar-video-api/domain"
	"context"
)

// ProgressStorePort persists one ProgressRecord per job id. Implementations must be safe for
// concurrent use across job ids; a single job only ever has one writer.
type ProgressStorePort interface {
	Initialize(ctx context.Context, jobID string, seed domain.ProgressRecord) (domain.ProgressRecord, error)
	Merge(ctx context.Context, jobID string, patch domain.ProgressPatch) (domain.ProgressRecord, error)
	Read(ctx context.Context, jobID string) (domain.ProgressRecord, error)
}
