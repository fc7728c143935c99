package monitor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	// tailLines bounds how much of the log each tick inspects.
	tailLines = 10
	// tailChunk is read from the end of the file; training logs grow
	// large and rereading them whole every tick would not.
	tailChunk = 32 * 1024
)

// TrainLog extracts metric values from the tail of a training log. The
// pattern's first capture group is the reported metric, matched against
// the last few lines of the file, newest first.
type TrainLog struct {
	path string
	re   *regexp.Regexp
	log  *zap.Logger
}

// NewTrainLog compiles the metric pattern. The pattern must contain at
// least one capture group. The file itself is not opened here; it may
// not exist yet when monitoring starts before training does.
func NewTrainLog(path, pattern string, log *zap.Logger) (*TrainLog, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid metric regex: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("metric regex %q has no capture group", pattern)
	}
	return &TrainLog{path: path, re: re, log: log}, nil
}

// Sample scans the log tail and returns the extracted metrics, newest
// first. It returns nil when the file cannot be read this tick; the
// file is retried on the next one.
func (t *TrainLog) Sample() *TrainingSnapshot {
	lines, err := tail(t.path, tailLines)
	if err != nil {
		t.log.Warn("training log unreadable", zap.String("path", t.path), zap.Error(err))
		return nil
	}

	snap := &TrainingSnapshot{}
	for i := len(lines) - 1; i >= 0; i-- {
		m := t.re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		snap.Metrics = append(snap.Metrics, m[1])
	}
	return snap
}

// tail returns up to n trailing lines of the file at path.
func tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	offset := info.Size() - tailChunk
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(bytes.TrimRight(data, "\n")), "\n")
	if offset > 0 && len(lines) > 0 {
		// The first line of the chunk is almost certainly cut off.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
