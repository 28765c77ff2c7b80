package telemetry

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/proposta/output"
)

// SlowThreshold marks timings that are highlighted in reports.
const SlowThreshold = 100 * time.Millisecond

// TimingCollector records a tree of timings. Timers started while another
// is running become its children.
type TimingCollector struct {
	// Styles, when set, colors the report.
	Styles *output.Styles

	mu      sync.Mutex
	roots   []*node
	current *node
	now     func() time.Time
}

type node struct {
	name       string
	start, end time.Time
	parent     *node
	children   []*node
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

// Start begins a timer nested under the currently running one, if any.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := &node{name: name, start: c.now(), parent: c.current}
	if c.current == nil {
		c.roots = append(c.roots, n)
	} else {
		c.current.children = append(c.current.children, n)
	}
	c.current = n

	return &timer{c: c, n: n}
}

type timer struct {
	c *TimingCollector
	n *node
}

func (t *timer) End() {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if !t.n.end.IsZero() {
		return
	}
	t.n.end = t.c.now()
	if t.c.current == t.n {
		t.c.current = t.n.parent
	}
}

func (t *timer) Child(name string) Timer {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	n := &node{name: name, start: t.c.now(), parent: t.n}
	t.n.children = append(t.n.children, n)
	return &timer{c: t.c, n: n}
}

// Report prints the timing tree:
//
//	render: 42ms
//	├─ render.summary: 1ms
//	└─ render.pdf: 40ms
func (c *TimingCollector) Report(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		name := root.name
		if c.Styles != nil {
			name = c.Styles.Heading(name)
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration()))
		c.writeChildren(w, root, "")
	}
}

func (c *TimingCollector) writeChildren(w io.Writer, n *node, prefix string) {
	for i, child := range n.children {
		branch, extension := "├─ ", "│  "
		if i == len(n.children)-1 {
			branch, extension = "└─ ", "   "
		}

		d := child.duration()
		timing := formatDuration(d)
		tree := prefix + branch
		if c.Styles != nil {
			tree = c.Styles.Dim(tree)
			if d >= SlowThreshold {
				timing = c.Styles.Warning(timing)
			} else {
				timing = c.Styles.Dim(timing)
			}
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", tree, child.name, timing)
		c.writeChildren(w, child, prefix+extension)
	}
}

func (n *node) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
