package game

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024 // Ring capacity; oldest entries are dropped when full
	MaxEventsPerSec    = 5000
	BatchFlushSize     = 64
	BatchFlushInterval = 100 * time.Millisecond
)

// ErrEventLogStopped is returned when starting a journal that was stopped
var ErrEventLogStopped = errors.New("event log stopped")

// EventLog is a bounded, rate-limited match journal written as JSONL by a
// background goroutine. A nil *EventLog accepts and discards every call.
type EventLog struct {
	mu       sync.Mutex
	buffer   [EventBufferSize]Event
	head     uint64 // next sequence to write
	tail     uint64 // next sequence to flush
	limiter  *rate.Limiter
	writerMu sync.Mutex
	out      *bufio.Writer
	closer   io.Closer

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

// EventLogStats is a snapshot of journal counters
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// NewEventLog creates a stopped journal limited to maxPerSec events.
// Non-positive limits use MaxEventsPerSec.
func NewEventLog(maxPerSec int) *EventLog {
	if maxPerSec <= 0 {
		maxPerSec = MaxEventsPerSec
	}
	burst := maxPerSec / 10
	if burst < 1 {
		burst = 1
	}
	return &EventLog{
		limiter:  rate.NewLimiter(rate.Limit(maxPerSec), burst),
		stopChan: make(chan struct{}),
	}
}

// Start opens filePath for append and begins the writer. An empty path keeps
// the journal in memory only.
func (el *EventLog) Start(filePath string) error {
	if el == nil || el.running.Load() {
		return nil
	}
	if filePath == "" {
		return el.StartWriter(nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", filePath, err)
	}
	el.closer = file
	if err := el.StartWriter(file); err != nil {
		el.closer = nil
		file.Close()
		return err
	}
	return nil
}

// StartWriter begins the writer goroutine flushing to w
func (el *EventLog) StartWriter(w io.Writer) error {
	if el == nil {
		return nil
	}
	select {
	case <-el.stopChan:
		return ErrEventLogStopped
	default:
	}
	if !el.running.CompareAndSwap(false, true) {
		return nil
	}
	if w != nil {
		el.out = bufio.NewWriter(w)
	}

	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes pending events and closes the output. Safe to call twice; a
// stopped journal cannot be restarted.
func (el *EventLog) Stop() {
	if el == nil {
		return
	}
	el.stopOnce.Do(func() {
		wasRunning := el.running.Swap(false)
		close(el.stopChan)
		if wasRunning {
			el.writerWg.Wait()
		}
		if el.closer != nil {
			el.closer.Close()
		}
	})
}

// Emit queues an event. It returns false when the journal is stopped or the
// rate limit is exceeded. A full ring overwrites the oldest entry.
func (el *EventLog) Emit(event Event) bool {
	if el == nil || !el.running.Load() {
		return false
	}
	if !el.limiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.mu.Lock()
	if el.head-el.tail >= EventBufferSize {
		el.tail++
		el.droppedCount.Add(1)
	}
	event.Sequence = el.head
	el.buffer[el.head%EventBufferSize] = event
	el.head++
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitSimple builds and queues an event
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, matchID string, payload any) bool {
	if el == nil || !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(eventType, tickNum, matchID, payload))
}

// Flush writes every pending event now
func (el *EventLog) Flush() {
	if el == nil {
		return
	}
	batch := make([]Event, 0, BatchFlushSize)
	for {
		batch = el.collectBatch(batch[:0])
		if len(batch) == 0 {
			return
		}
		el.flushBatch(batch)
	}
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			el.Flush()
			return
		case <-ticker.C:
			el.Flush()
		}
	}
}

// collectBatch moves up to BatchFlushSize events out of the ring
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.tail < el.head && len(batch) < BatchFlushSize {
		batch = append(batch, el.buffer[el.tail%EventBufferSize])
		el.tail++
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON
func (el *EventLog) flushBatch(batch []Event) {
	el.writerMu.Lock()
	defer el.writerMu.Unlock()

	if el.out == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.out.Write(data)
		el.out.WriteByte('\n')
	}
	el.out.Flush()
}

// Stats returns journal counters
func (el *EventLog) Stats() EventLogStats {
	if el == nil {
		return EventLogStats{}
	}
	el.mu.Lock()
	pending := el.head - el.tail
	el.mu.Unlock()

	return EventLogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Pending: pending,
		Running: el.running.Load(),
	}
}
