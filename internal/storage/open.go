package storage

import (
	"fmt"

	"mindease/internal/config"
)

// Open builds the recorder selected by cfg.
func Open(cfg *config.Config) (Recorder, error) {
	switch cfg.Recorder {
	case config.RecorderNone:
		return Nop{}, nil
	case config.RecorderSQLite:
		return NewSQLiteRecorder(cfg.RecordPath)
	case config.RecorderJSONL, "":
		return NewFileRecorder(cfg.RecordPath)
	default:
		return nil, fmt.Errorf("unknown recorder: %s", cfg.Recorder)
	}
}
