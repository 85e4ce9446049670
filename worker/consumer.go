package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opencensus.io/tag"

	"github.com/gavelhq/gavel/config"
	"github.com/gavelhq/gavel/metrics"
	"github.com/gavelhq/gavel/queue"
	"github.com/gavelhq/gavel/storage"
)

// HandleIngestDocumentTask unpacks one queued upload and files it. Payloads
// that can never succeed are wrapped with asynq.SkipRetry so the queue drops
// them instead of cycling them through the retry schedule.
func (h *IngestHandler) HandleIngestDocumentTask(ctx context.Context, t *asynq.Task) error {
	var p DocumentPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	ctx, _ = tag.New(ctx, tag.Upsert(metrics.TaskType, TypeIngestDocument))
	stop := metrics.Timer(ctx, metrics.IngestDuration)
	defer stop()

	res, err := h.Ingest(ctx, &p)
	if err != nil {
		metrics.RecordInc(ctx, metrics.IngestFailure)
		if errors.Is(err, ErrUnknownCourt) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	log.Infow("ingested document",
		"court", p.Court,
		"docket", res.DocketID,
		"entry", res.DocketEntryID,
		"document", res.DocumentID,
		"created", res.Created,
		"updated", res.Updated,
	)
	return nil
}

// A DocumentWorker consumes ingest tasks from redis until its context is
// done. It implements schedule.Job so the daemon can run it alongside the
// API server and the exporter.
type DocumentWorker struct {
	name string
	cfg  *queue.RedisConfig
	wcfg config.WorkerConf
	mux  *asynq.ServeMux
	done chan struct{}
}

func NewDocumentWorker(db *storage.Database, name string, cfg *queue.RedisConfig, wcfg config.WorkerConf) *DocumentWorker {
	ih := NewIngestHandler(db)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeIngestDocument, ih.HandleIngestDocumentTask)
	return &DocumentWorker{
		name: name,
		cfg:  cfg,
		wcfg: wcfg,
		mux:  mux,
	}
}

func (w *DocumentWorker) Run(ctx context.Context) error {
	w.done = make(chan struct{})
	defer close(w.done)

	srv := asynq.NewServer(
		w.cfg.AsynqOpt(),
		asynq.Config{
			Concurrency: w.wcfg.Concurrency,
			Logger:      log.With("process", fmt.Sprintf("DocumentWorker-%s", w.name)),
			LogLevel:    asynq.InfoLevel,
			Queues: map[string]int{
				string(High):   w.wcfg.HighQueuePriority,
				string(Medium): w.wcfg.MediumQueuePriority,
				string(Low):    w.wcfg.LowQueuePriority,
			},
			StrictPriority:  w.wcfg.StrictPriority,
			ShutdownTimeout: time.Duration(w.wcfg.ShutdownTimeout),
		},
	)
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()
	return srv.Run(w.mux)
}

func (w *DocumentWorker) Done() <-chan struct{} {
	return w.done
}

func (w *DocumentWorker) JobType() string {
	return "document-worker"
}

func (w *DocumentWorker) Params() map[string]interface{} {
	return map[string]interface{}{
		"name":        w.name,
		"concurrency": w.wcfg.Concurrency,
		"strict":      w.wcfg.StrictPriority,
	}
}
