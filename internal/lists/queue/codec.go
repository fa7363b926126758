package queue

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"listmgmt/internal/lists/models"
)

// Encode serialises a job for the wire.
func Encode(job models.Job) ([]byte, error) {
	b, err := msgpack.Marshal(&job)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	return b, nil
}

// Decode parses a job and rejects unknown actions.
func Decode(b []byte) (models.Job, error) {
	var job models.Job
	if err := msgpack.Unmarshal(b, &job); err != nil {
		return models.Job{}, fmt.Errorf("decode job: %w", err)
	}
	if !job.Action.IsValid() {
		return models.Job{}, fmt.Errorf("decode job %s: unknown action %q", job.ID, job.Action)
	}
	return job, nil
}
