package compiler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/roach88/loopsim/internal/engine"
)

// Context is the scheduling category carried across lines.
type Context int

const (
	ContextSync Context = iota
	ContextMicro
	ContextMacro
	ContextRender
)

// String returns the short name used in compile reports.
func (c Context) String() string {
	switch c {
	case ContextMicro:
		return "micro"
	case ContextMacro:
		return "macro"
	case ContextRender:
		return "render"
	default:
		return "sync"
	}
}

// QueueType maps the context to the queue its print calls land in.
func (c Context) QueueType() engine.QueueType {
	switch c {
	case ContextMicro:
		return engine.QueueMicrotask
	case ContextMacro:
		return engine.QueueMacrotask
	case ContextRender:
		return engine.QueueRender
	default:
		return engine.QueueSync
	}
}

// matchTimeout bounds a single pattern evaluation. A timeout counts as no
// match.
const matchTimeout = 250 * time.Millisecond

var (
	// printCall needs a backreference so the closing quote matches the
	// opening one.
	printCall      = mustCompile("console\\.log\\((['\"`])(.*?)\\1\\)")
	zeroDelay      = mustCompile(`,\s*0\s*\)`)
	promiseThen    = mustCompile(`Promise\.resolve\(\s*\)\.then\s*\(`)
	queueMicrotask = mustCompile(`queueMicrotask\s*\(`)
	requestFrame   = mustCompile(`requestAnimationFrame\s*\(`)
)

// closingTokens end a callback body.
var closingTokens = []string{"});", "})", ");"}

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

// matches reports whether re matches line. A match that times out counts
// as no match.
func (c *Compiler) matches(re *regexp2.Regexp, line string) bool {
	ok, err := re.MatchString(line)
	if err != nil {
		c.log().Debug("pattern evaluation failed", "pattern", re.String(), "error", err)
		return false
	}
	return ok
}

// Classify applies the hint on line, if any, to the current context. Hints
// are checked in a fixed order and the first that matches wins: zero-delay
// setTimeout, Promise.resolve().then, queueMicrotask, requestAnimationFrame.
// A line without a hint leaves the context unchanged.
func (c *Compiler) Classify(line string, current Context) Context {
	switch {
	case strings.Contains(line, "setTimeout") && c.matches(zeroDelay, line):
		return ContextMacro
	case c.matches(promiseThen, line):
		return ContextMicro
	case c.matches(queueMicrotask, line):
		return ContextMicro
	case c.matches(requestFrame, line):
		return ContextRender
	default:
		return current
	}
}

// Classify is Compiler.Classify with the default logger.
func Classify(line string, current Context) Context {
	return New().Classify(line, current)
}

// PrintLabel returns the task label for the first print call on line.
// The label always uses double quotes: console.log("X").
func (c *Compiler) PrintLabel(line string) (string, bool) {
	m, err := printCall.FindStringMatch(line)
	if err != nil {
		c.log().Debug("print pattern evaluation failed", "error", err)
		return "", false
	}
	if m == nil {
		return "", false
	}
	return `console.log("` + m.GroupByNumber(2).String() + `")`, true
}

// PrintLabel is Compiler.PrintLabel with the default logger.
func PrintLabel(line string) (string, bool) {
	return New().PrintLabel(line)
}

// ClosesBlock reports whether line carries a closing token, which resets the
// context to ContextSync once the line has been processed.
func ClosesBlock(line string) bool {
	for _, tok := range closingTokens {
		if strings.Contains(line, tok) {
			return true
		}
	}
	return false
}

// Line is the classification of one non-blank source line.
type Line struct {
	Number  int     `json:"number"` // 1-based line number in the source
	Text    string  `json:"text"`   // trimmed
	Context Context `json:"-"`      // context in effect for the line's print call
	Label   string  `json:"label,omitempty"`
	Reset   bool    `json:"reset"` // context reset to sync after the line
}

// Queued reports whether the line produced a task.
func (l Line) Queued() bool {
	return l.Label != ""
}

// Analyze folds the classifier over source and reports every non-blank
// line. Compile queues exactly the lines with a label.
func (c *Compiler) Analyze(source string) []Line {
	var out []Line
	ctx := ContextSync

	for i, raw := range strings.Split(source, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		ctx = c.Classify(text, ctx)
		line := Line{Number: i + 1, Text: text, Context: ctx}
		if label, ok := c.PrintLabel(text); ok {
			line.Label = label
		}
		if ClosesBlock(text) {
			line.Reset = true
			ctx = ContextSync
		}
		out = append(out, line)
	}
	return out
}

// Analyze is Compiler.Analyze with the default logger.
func Analyze(source string) []Line {
	return New().Analyze(source)
}

// Compiler builds initial states from scenario text.
type Compiler struct {
	ids    engine.IDGenerator
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithIDs sets the task id generator. Use the engine's generator so compiled
// tasks and tasks spawned while stepping share one id space.
func WithIDs(ids engine.IDGenerator) Option {
	return func(c *Compiler) {
		c.ids = ids
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a Compiler. Without WithIDs it uses engine.DefaultIDs.
func New(opts ...Option) *Compiler {
	c := &Compiler{ids: engine.DefaultIDs}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		c.ids = engine.DefaultIDs
	}
	return c
}

// ForEngine returns a Compiler sharing eng's id generator.
func ForEngine(eng *engine.Engine, opts ...Option) *Compiler {
	return New(append([]Option{WithIDs(eng.IDs())}, opts...)...)
}

// Compile returns a fresh state seeded from source.
//
// Tick, running flag and logs are carried over from base; queues and call
// stack start empty, the idle flag is cleared and there is no last-run id.
// Unrecognized lines are ignored. Compile never fails.
func (c *Compiler) Compile(source string, base engine.LoopState) engine.LoopState {
	b := engine.NewBuilder(base.Cleared(), c.ids)

	queued := 0
	for _, line := range c.Analyze(source) {
		if !line.Queued() {
			continue
		}
		b.Enqueue(line.Context.QueueType(), line.Label, engine.Noop)
		queued++
	}

	c.log().Debug("scenario compiled",
		"tasks", queued,
		"tick", base.Tick(),
	)
	return b.Build()
}

func (c *Compiler) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Compile seeds a fresh state from source using engine.DefaultIDs.
func Compile(source string, base engine.LoopState) engine.LoopState {
	return New().Compile(source, base)
}
