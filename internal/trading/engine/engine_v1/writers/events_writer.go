package writers

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/internal/types"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

const eventsSchema = `
	seq BIGINT,
	run_id TEXT,
	event_type TEXT,
	recorded_at TIMESTAMP,
	event_time TIMESTAMP,
	price DOUBLE,
	payload TEXT
`

// EventsWriter journals every strategy event of a run to events.parquet.
// Each row carries the event type, its market timestamp and price when it has
// them, and the full event as JSON.
type EventsWriter struct {
	table *parquetTable
	runID string
	seq   int64
	now   func() time.Time
	mu    sync.Mutex
}

func NewEventsWriter(outputPath, runID string, log *logger.Logger) *EventsWriter {
	return &EventsWriter{
		table: newParquetTable("events", eventsSchema, "seq ASC", outputPath, log),
		runID: runID,
		seq:   0,
		now:   time.Now,
		mu:    sync.Mutex{},
	}
}

// Initialize opens the journal. Rows already in the file are kept and new
// rows continue their sequence.
func (w *EventsWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.table.open(); err != nil {
		return err
	}

	count, err := w.table.count()
	if err != nil {
		return err
	}

	w.seq = int64(count)

	return nil
}

// Write appends event to the journal and rewrites the Parquet file.
func (w *EventsWriter) Write(event types.StrategyEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to encode event", err)
	}

	eventTime := sql.NullTime{}
	if ts := EventTimestamp(event); ts.IsSome() {
		eventTime = sql.NullTime{Time: ts.Unwrap(), Valid: true}
	}

	price := sql.NullFloat64{}
	if p := eventPrice(event); p.IsSome() {
		price = sql.NullFloat64{Float64: p.Unwrap(), Valid: true}
	}

	insert := squirrel.Insert("events").
		Columns("seq", "run_id", "event_type", "recorded_at", "event_time", "price", "payload").
		Values(w.seq+1, w.runID, string(event.EventType()), w.now(), eventTime, price, string(payload))

	if err := w.table.insert(insert); err != nil {
		return err
	}

	w.seq++

	return nil
}

// Flush forces an export to Parquet.
func (w *EventsWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.export()
}

func (w *EventsWriter) GetOutputPath() string {
	return w.table.outputPath
}

// GetEventCount returns the number of journaled events, including rows loaded
// from an existing file.
func (w *EventsWriter) GetEventCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.count()
}

func (w *EventsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.table.close()
}

// EventTimestamp returns the market time an event refers to. Lifecycle events
// have none.
func EventTimestamp(event types.StrategyEvent) optional.Option[time.Time] {
	switch e := event.(type) {
	case types.CandleReceived:
		return optional.Some(e.Timestamp)
	case types.IndicatorsUpdated:
		return optional.Some(e.Timestamp)
	case types.TradeEntry:
		return optional.Some(e.Timestamp)
	case types.TradeExit:
		return optional.Some(e.Timestamp)
	default:
		return optional.None[time.Time]()
	}
}

func eventPrice(event types.StrategyEvent) optional.Option[float64] {
	switch e := event.(type) {
	case types.CandleReceived:
		return optional.Some(e.Price)
	case types.IndicatorsUpdated:
		return optional.Some(e.Price)
	case types.TradeEntry:
		return optional.Some(e.Price)
	case types.TradeExit:
		return optional.Some(e.Price)
	default:
		return optional.None[float64]()
	}
}
