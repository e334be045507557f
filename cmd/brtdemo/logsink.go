package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/grupodiana/brt"
)

// LogSink adapts brt/diag.Sink onto charmbracelet/log, the structured
// logger the control thread reports drained Conditions through (spec.md
// §7's "side-channel error handler"). The audio thread never touches this
// type directly — it only ever appends to a diag.Ring, which the control
// loop drains into a LogSink between blocks.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink builds a sink writing structured log lines to w.
func NewLogSink(w io.Writer) *LogSink {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "brt",
	})
	return &LogSink{logger: logger}
}

// Report logs c at a level chosen from its Kind: conditions that degrade
// output to silence or pass-through (the common recoverable cases) log at
// Warn; conditions that indicate a setup/config mistake log at Error.
func (s *LogSink) Report(c *brt.Condition) {
	if c == nil {
		return
	}
	switch c.Kind {
	case brt.KindInvalidParam, brt.KindBadSize, brt.KindOutOfRange, brt.KindCaseNotDefined:
		s.logger.Error("condition", "kind", c.Kind, "op", c.Op, "detail", c.Detail)
	default:
		s.logger.Warn("condition", "kind", c.Kind, "op", c.Op, "detail", c.Detail)
	}
}
