package game

import (
	"log"
	"sync"
	"time"

	"urban-void/internal/telemetry"
)

// Loop drives an engine in real time: Tick at the configured rate and the
// match clock once per second.
type Loop struct {
	engine   *Engine
	tickRate int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewLoop creates a stopped loop. Non-positive rates use 60 ticks per second.
func NewLoop(engine *Engine, tickRate int) *Loop {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Loop{engine: engine, tickRate: tickRate}
}

// TickRate returns ticks per second
func (l *Loop) TickRate() int {
	return l.tickRate
}

// Start begins ticking. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stopChan = make(chan struct{})

	l.wg.Add(1)
	go l.run(l.stopChan)
	log.Printf("🎮 Simulation loop started at %d TPS", l.tickRate)
}

// Stop halts ticking and waits for the current tick to finish. Safe to call
// more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopChan)
	l.mu.Unlock()

	l.wg.Wait()
	log.Println("🛑 Simulation loop stopped")
}

// Running reports whether the loop is ticking
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(stop <-chan struct{}) {
	defer l.wg.Done()

	dt := 1.0 / float64(l.tickRate)
	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))
	defer ticker.Stop()
	clock := time.NewTicker(time.Second)
	defer clock.Stop()

	var lastDropped uint64
	for {
		select {
		case <-ticker.C:
			l.engine.Tick(dt)
		case <-clock.C:
			l.engine.DecrementClock()
			dropped := l.engine.EventLogStats().Dropped
			if dropped > lastDropped {
				telemetry.RecordJournalDropped(dropped - lastDropped)
			}
			lastDropped = dropped
		case <-stop:
			return
		}
	}
}
