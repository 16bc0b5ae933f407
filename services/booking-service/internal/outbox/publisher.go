package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TxRunner runs fn in a transaction; *db.Pool satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type PublisherConfig struct {
	TopicPrefix string
	PollEvery   time.Duration
	BatchSize   int
}

// Publisher relays committed outbox rows to Kafka. Rows are marked published
// in the same transaction that locked them, so a crash between write and mark
// re-sends; consumers dedupe on the event_id header.
type Publisher struct {
	db     TxRunner
	repo   *Repository
	writer MessageWriter
	logger *slog.Logger
	cfg    PublisherConfig
}

func NewPublisher(db TxRunner, repo *Repository, writer MessageWriter, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{db: db, repo: repo, writer: writer, logger: logger, cfg: cfg}
}

// Run polls until ctx is cancelled. A nil writer disables publishing.
func (p *Publisher) Run(ctx context.Context) error {
	if p.writer == nil {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := p.publishBatch(ctx)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) (int, error) {
	var published int
	err := p.db.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.cfg.BatchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, p.message(ctx, r))
			ids = append(ids, r.ID)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		published = len(ids)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	return published, err
}

// message keys by aggregate so one booking's events stay on one partition.
func (p *Publisher) message(ctx context.Context, r Record) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
	meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType, AggregateID: r.AggregateID}
	return kafka.Message{
		Topic:   kafkax.TopicName(p.cfg.TopicPrefix, r.EventType),
		Key:     []byte(r.AggregateID),
		Value:   r.Payload,
		Headers: kafkax.InjectTraceHeaders(msgCtx, meta.Headers()),
	}
}
