package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one person to be processed.
type Job struct {
	Person      entity.PersonDocuments
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
