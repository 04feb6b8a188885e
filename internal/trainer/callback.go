package trainer

import (
	"maps"
	"slices"
)

// Callback observes the delegated trainer's log events.
type Callback interface {
	OnLog(step int, logs map[string]float64)
}

// Recorder accepts one metric value at a time.
type Recorder interface {
	Log(key string, value float64)
}

// RunLogger forwards every logged value to a Recorder.
type RunLogger struct {
	Recorder Recorder
}

// OnLog records each key in sorted order. Empty logs record nothing.
func (l RunLogger) OnLog(_ int, logs map[string]float64) {
	for _, k := range slices.Sorted(maps.Keys(logs)) {
		l.Recorder.Log(k, logs[k])
	}
}
