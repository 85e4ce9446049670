package worker

import (
	"context"

	"github.com/hibiken/asynq"
	logging "github.com/ipfs/go-log/v2"

	"github.com/gavelhq/gavel/queue"
)

var log = logging.Logger("gavel/worker")

type Priority string

const (
	High   Priority = "High"
	Medium Priority = "Medium"
	Low    Priority = "Low"
)

// A Producer hands document ingest work to the queue. The API server holds
// one so that uploads return as soon as the task is durably enqueued.
type Producer interface {
	Document(ctx context.Context, p *DocumentPayload, priority Priority) (string, error)
}

type RedisProducer struct {
	Client *asynq.Client
}

func NewProducer(cfg *queue.RedisConfig) *RedisProducer {
	return &RedisProducer{
		Client: asynq.NewClient(cfg.AsynqOpt()),
	}
}

// Document enqueues an ingest task for a single uploaded document and returns
// the queue's task id.
func (p *RedisProducer) Document(ctx context.Context, payload *DocumentPayload, priority Priority) (string, error) {
	task, err := NewIngestDocumentTask(payload)
	if err != nil {
		return "", err
	}
	info, err := p.Client.EnqueueContext(ctx, task, asynq.Queue(string(priority)))
	if err != nil {
		return "", err
	}
	log.Infow("enqueued task", "id", info.ID, "queue", info.Queue, "court", payload.Court, "pacer_doc_id", payload.PacerDocID)
	return info.ID, nil
}

func (p *RedisProducer) Close() error {
	return p.Client.Close()
}
