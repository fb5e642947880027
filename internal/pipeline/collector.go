package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/testdocgen/internal/comment"
	"github.com/dgallion1/testdocgen/internal/merge"
)

// maxLineBytes bounds a single test2json line; long test output lines are
// split by test2json itself well below this.
const maxLineBytes = 1 << 20

// Comments looks up doc comments by import path. *comment.Index implements it.
type Comments interface {
	Module() string
	Suite(pkg string) (comment.Comment, bool)
	Test(pkg, name string) (comment.Comment, bool)
}

// Collector turns a test2json event stream into fragments for a Merger.
// A Collector is not safe for concurrent use.
type Collector struct {
	comments Comments
	merger   *merge.Merger
	log      *slog.Logger
	stats    Stats

	packages map[string]bool
	handled  map[string]bool
}

// NewCollector returns a Collector feeding merger with the comments of c.
func NewCollector(c Comments, merger *merge.Merger, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		comments: c,
		merger:   merger,
		log:      log,
		packages: make(map[string]bool),
		handled:  make(map[string]bool),
	}
}

// Process reads events from r until EOF. Lines that are not events, such as
// build output interleaved by `go test`, are skipped.
func (c *Collector) Process(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil || ev.Action == "" {
			c.log.Debug("skipping non-event line", "line", string(line))
			continue
		}
		c.Handle(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	return nil
}

// Handle applies a single event.
func (c *Collector) Handle(ev Event) {
	c.stats.Events++

	if ev.Package != "" && !c.packages[ev.Package] {
		c.packages[ev.Package] = true
		c.stats.Packages++
		c.applySuite(ev.Package)
	}
	if ev.Test == "" {
		return
	}

	top, sub := splitTest(ev.Test)
	if sub {
		return
	}

	switch ev.Action {
	case ActionRun:
		c.applyTest(ev.Package, top)
	case ActionPass:
		c.stats.Outcomes.Passed++
	case ActionFail:
		c.stats.Outcomes.Failed++
	case ActionSkip:
		c.stats.Outcomes.Skipped++
	}
}

// Stats returns a snapshot of the counters so far.
func (c *Collector) Stats() Stats {
	return c.stats.Snapshot()
}

func (c *Collector) applySuite(pkg string) {
	cm, ok := c.comments.Suite(pkg)
	if !ok || cm.Internal || cm.Summary == "" {
		return
	}
	if c.apply(merge.Fragment{
		Namespace:   Namespace(c.comments.Module(), pkg),
		Heading:     cm.Summary,
		Description: cm.Description,
	}) {
		c.stats.Suites++
	}
}

func (c *Collector) applyTest(pkg, test string) {
	ns := CaseNamespace(c.comments.Module(), pkg, test)
	if c.handled[ns] {
		c.stats.Duplicates++
		return
	}
	c.handled[ns] = true
	c.stats.Tests++

	cm, ok := c.comments.Test(pkg, test)
	switch {
	case ok && cm.Internal:
		c.stats.Internal++
		c.log.Debug("internal test", "package", pkg, "test", test)
		return
	case !ok || cm.Empty():
		c.stats.Undocumented++
		c.log.Debug("undocumented test", "package", pkg, "test", test)
		return
	}

	if c.apply(merge.Fragment{Namespace: ns, Heading: cm.Summary, Description: cm.Description}) {
		c.stats.Applied++
	}
}

func (c *Collector) apply(f merge.Fragment) bool {
	if _, err := c.merger.Apply(f); err != nil {
		c.log.Warn("fragment skipped", "namespace", f.Namespace, "error", err)
		c.stats.AddError(err.Error())
		return false
	}
	return true
}
