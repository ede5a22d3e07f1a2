package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"bookstream/config"
	"bookstream/internal/bitstamp/memorystore"
	"bookstream/internal/bitstamp/stream"
	"bookstream/internal/bitstamp/symbolmeta"
	"bookstream/pkg/bitstamp"
	"bookstream/pkg/storage"
	"bookstream/pkg/storage/postgres"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StartCollector runs one order book session for the configured symbol and
// returns when it ends. A close from the server returns nil.
func StartCollector(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var store storage.SessionStore
	if cfg.Postgres.Enabled {
		postgresClient, err := postgres.InitializeAndMigrateSessionRecord(cfg.Postgres, cfg.Log.Environment)
		if err != nil {
			return fmt.Errorf("failed to connect to DB: %w", err)
		}
		defer postgresClient.Close()
		store = postgresClient
	}

	if cfg.Bitstamp.REST.ValidateSymbol {
		loader := &symbolmeta.SymbolLoader{
			RestClient: bitstamp.NewRESTClient(cfg.Bitstamp.REST.BaseURL, cfg.Bitstamp.REST.Timeout),
			Timeout:    cfg.Bitstamp.REST.Timeout,
			Logger:     logger,
		}
		if _, err := loader.Validate(ctx, cfg.Bitstamp.Symbol); err != nil {
			return err
		}
	}

	return New(cfg, store, logger).Run(ctx)
}

// Collector drives a single session through
// connecting → subscribing → streaming → closing → terminated.
type Collector struct {
	cfg    *config.Config
	store  storage.SessionStore // nil disables recording
	logger *zap.Logger
	state  atomic.Int32
}

func New(cfg *config.Config, store storage.SessionStore, logger *zap.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (c *Collector) State() State {
	return State(c.state.Load())
}

func (c *Collector) setState(log *zap.Logger, s State) {
	c.state.Store(int32(s))
	log.Debug("session state", zap.Stringer("state", s))
}

// Run connects, subscribes and streams until the reader stops. Connection
// and subscribe failures return before any task is started.
func (c *Collector) Run(ctx context.Context) (err error) {
	req := bitstamp.NewSubscribeRequest(c.cfg.Bitstamp.Symbol)
	summary := storage.NewSessionSummary(c.cfg.Bitstamp.Symbol, req.Data.Channel, c.cfg.Bitstamp.WS.URL)
	log := c.logger.With(
		zap.String("session_id", summary.ID.String()),
		zap.String("channel", req.Data.Channel),
	)

	c.setState(log, StateConnecting)
	defer c.setState(log, StateTerminated)

	session, err := bitstamp.Dial(ctx, c.cfg.Bitstamp.WS.URL, c.cfg.Bitstamp.WS.WSOptions(), log)
	if err != nil {
		return err
	}
	defer session.Close()

	c.setState(log, StateSubscribing)
	if err := session.Subscribe(req); err != nil {
		return err
	}

	stats := memorystore.NewStatsStore()
	c.startRecord(ctx, log, summary)
	defer func() { c.finishRecord(log, summary, stats.Snapshot(), err) }()

	c.setState(log, StateStreaming)
	in, out := session.Split()
	return c.stream(ctx, in, out, stats, log)
}

// stream runs the reader and the writer until both have returned. The frame
// queue is the only thing they share.
func (c *Collector) stream(ctx context.Context, in stream.FrameReader, out stream.FrameWriter, stats stream.StatsRecorder, log *zap.Logger) error {
	queue := memorystore.NewFrameQueue()
	defer queue.Stop()

	reader := stream.NewReader(in, queue, stats, c.cfg.Render.Depth, log)
	writer := stream.NewWriter(queue.Frames(), out, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writer.Run(gctx)
	})
	g.Go(func() error {
		err := reader.Run(gctx)
		c.setState(log, StateClosing)
		return err
	})
	return g.Wait()
}

func (c *Collector) startRecord(ctx context.Context, log *zap.Logger, summary *storage.SessionSummary) {
	if c.store == nil {
		return
	}
	if err := c.store.StartSession(ctx, summary); err != nil {
		log.Warn("failed to record session start", zap.Error(err))
	}
}

func (c *Collector) finishRecord(log *zap.Logger, summary *storage.SessionSummary, stats memorystore.SessionStats, runErr error) {
	summary.EndedAt = time.Now().UTC()
	summary.Outcome = outcomeOf(runErr)
	if runErr != nil && summary.Outcome == storage.OutcomeFailed {
		summary.Error = runErr.Error()
	}
	summary.TextFrames = stats.Frame(bitstamp.TextFrame)
	summary.BinaryFrames = stats.Frame(bitstamp.BinaryFrame)
	summary.PingFrames = stats.Frame(bitstamp.PingFrame)
	summary.PongFrames = stats.Frame(bitstamp.PongFrame)
	summary.CloseFrames = stats.Frame(bitstamp.CloseFrame)
	summary.Books = stats.Books
	summary.Unrecognized = stats.Unrecognized

	log.Debug("session finished",
		zap.String("outcome", string(summary.Outcome)),
		zap.Duration("duration", summary.Duration()),
		zap.Int("text_frames", summary.TextFrames),
		zap.Int("books", summary.Books),
		zap.Int("unrecognized", summary.Unrecognized),
		zap.Int("pings", summary.PingFrames),
	)

	if c.store == nil {
		return
	}
	// The run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.FinishSession(ctx, summary); err != nil {
		log.Warn("failed to record session end", zap.Error(err))
	}
}

func outcomeOf(err error) storage.Outcome {
	switch {
	case err == nil:
		return storage.OutcomeClosed
	case errors.Is(err, context.Canceled):
		return storage.OutcomeCancelled
	default:
		return storage.OutcomeFailed
	}
}
