// Package logger provides the machine's slog.Handler: a
// mutex-guarded text formatter writing to a log file and optionally
// teeing to stderr, gated by the debug-category bitset in
// config/debugconfig rather than a single on/off debug flag.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/rcornwell/novasim/config/debugconfig"
)

// LogHandler formats records as "time level msg attr=val..." lines.
type LogHandler struct {
	out      io.Writer
	h        slog.Handler
	mu       *sync.Mutex
	category debugconfig.Category
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu, category: h.category}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{out: h.out, h: h.h.WithGroup(name), mu: h.mu, category: h.category}
}

// WithCategory returns a derived handler tagged with cat, so its
// debug-level records are teed to stderr only while cat is active in
// debugconfig. Warn and above always tee regardless of category.
func (h *LogHandler) WithCategory(cat debugconfig.Category) *LogHandler {
	return &LogHandler{out: h.out, h: h.h, mu: h.mu, category: cat}
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	formattedTime := r.Time.Format("2006/01/02 15:04:05")
	strs := []string{formattedTime, r.Level.String() + ":", r.Message}

	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.String())
			return true
		})
	}
	b := []byte(strings.Join(strs, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if r.Level > slog.LevelDebug || (h.category != 0 && debugconfig.Enabled(h.category)) {
		_, err = os.Stderr.Write(b)
	}
	return err
}

// NewHandler builds a handler writing to file at the given level;
// records tee to stderr per WithCategory's rule once a category is
// attached.
func NewHandler(file io.Writer, opts *slog.HandlerOptions) *LogHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &LogHandler{
		out: file,
		h: slog.NewTextHandler(file, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu: &sync.Mutex{},
	}
}
