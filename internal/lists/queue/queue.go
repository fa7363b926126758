// Package queue carries durability jobs from the engine to the workers that
// apply them to the durable store.
//
// Two transports exist: an in-process sharded queue and a Kafka topic keyed
// by list id. Both apply jobs of the same list in submission order. Delivery
// is at most once: a job whose apply fails is logged and dropped.
package queue

import (
	"context"

	"listmgmt/internal/lists/models"
)

// Handler applies one job.
type Handler interface {
	Handle(ctx context.Context, job models.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job models.Job) error

func (f HandlerFunc) Handle(ctx context.Context, job models.Job) error {
	return f(ctx, job)
}
