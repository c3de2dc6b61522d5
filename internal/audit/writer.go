package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/remotecmd/internal/remote"
)

const insertForward = `
	INSERT INTO forwarded_commands
		(id, instance_id, server_key, server_name, command, mode, recognized, error, started_at, duration_us)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`

// Config contains writer settings.
type Config struct {
	// BatchSize is the number of rows sent per batch.
	BatchSize int

	// FlushInterval is the maximum time a row waits in the queue.
	FlushInterval time.Duration

	// BufferSize is the initial queue capacity.
	BufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
		BufferSize:    256,
	}
}

// BatchSender is the subset of pgxpool.Pool the writer needs.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Metrics contains writer counters.
type Metrics struct {
	Inserts int64
	Errors  int64
	Flushes int64
	Dropped int64
}

// row is one forwarded_commands row.
type row struct {
	ID         uuid.UUID
	ServerKey  string
	ServerName string
	Command    string
	Mode       string
	Recognized bool
	Error      *string
	StartedAt  time.Time
	DurationUs int64
}

// Writer batches forwarded commands into PostgreSQL.
type Writer struct {
	cfg        Config
	instanceID string
	db         BatchSender
	logger     *slog.Logger

	queue *Queue[row]
	kick  chan struct{}

	// Lifecycle
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	metrics Metrics
}

// NewWriter creates a Writer. instanceID tags every row with the host that
// wrote it.
func NewWriter(cfg Config, instanceID string, db BatchSender, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Writer{
		cfg:        cfg,
		instanceID: instanceID,
		db:         db,
		logger:     logger,
		queue:      NewQueue[row](cfg.BufferSize),
		kick:       make(chan struct{}, 1),
	}
}

// RecordForward enqueues f. It never blocks.
func (w *Writer) RecordForward(f remote.Forward) {
	if !w.queue.Push(toRow(f)) {
		w.mu.Lock()
		w.metrics.Dropped++
		w.mu.Unlock()
		return
	}
	if w.queue.Len() >= w.cfg.BatchSize {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// Start begins the background flush loop.
func (w *Writer) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.flushLoop(ctx)

	w.logger.Info("audit writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop ends the flush loop and writes whatever is still queued using ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping audit writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("audit writer stop timed out")
	}

	w.queue.Close()
	w.flush(ctx)

	w.logger.Info("audit writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

func (w *Writer) flushLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(ctx)
		case <-w.kick:
			w.flush(ctx)
		}
	}
}

// flush drains the queue one batch at a time.
func (w *Writer) flush(ctx context.Context) {
	for {
		rows := w.queue.Drain(w.cfg.BatchSize)
		if len(rows) == 0 {
			return
		}

		start := time.Now()
		inserted, err := w.batchInsert(ctx, rows)

		w.mu.Lock()
		w.metrics.Inserts += int64(inserted)
		w.metrics.Flushes++
		if err != nil {
			w.metrics.Errors++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("audit batch insert failed", "error", err, "count", len(rows))
			return
		}
		w.logger.Debug("flushed forwarded commands",
			"count", len(rows),
			"duration", time.Since(start),
		)
	}
}

func (w *Writer) batchInsert(ctx context.Context, rows []row) (inserted int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertForward,
			r.ID, w.instanceID, r.ServerKey, r.ServerName, r.Command,
			r.Mode, r.Recognized, r.Error, r.StartedAt, r.DurationUs,
		)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func toRow(f remote.Forward) row {
	r := row{
		ID:         uuid.New(),
		ServerKey:  f.Key,
		Command:    f.Command,
		Mode:       f.Mode,
		Recognized: f.Recognized,
		StartedAt:  f.StartedAt.UTC(),
		DurationUs: f.Duration.Microseconds(),
	}
	if f.Target != nil {
		r.ServerName = f.Target.Name()
	}
	if f.Err != nil {
		msg := f.Err.Error()
		r.Error = &msg
	}
	return r
}
