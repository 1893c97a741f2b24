package game

// GrowthEvent reports that a void swallowed an object
type GrowthEvent struct {
	VoidID   string  `json:"voidId" msgpack:"voidId"`
	ObjectID string  `json:"objectId" msgpack:"objectId"`
	Value    float64 `json:"value" msgpack:"value"`
	Size     float64 `json:"size" msgpack:"size"`
	Tick     uint64  `json:"tick" msgpack:"tick"`
}

// growthQueue collects events raised during the consumption pass. The engine
// drains it once per tick, so growth never runs inside the scan that found it.
type growthQueue struct {
	events []GrowthEvent
}

func (q *growthQueue) push(ev GrowthEvent) {
	q.events = append(q.events, ev)
}

// drain hands every queued event to fn in arrival order and empties the queue.
func (q *growthQueue) drain(fn func(GrowthEvent)) {
	for _, ev := range q.events {
		fn(ev)
	}
	clear(q.events)
	q.events = q.events[:0]
}

func (q *growthQueue) reset() {
	clear(q.events)
	q.events = q.events[:0]
}
