// Package logging builds the zerolog logger shared by every command and
// carries it through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// StampMilliTZ is the console timestamp layout.
const StampMilliTZ = "Jan _2 15:04:05.000 MST"

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}

// Options controls logger construction.
type Options struct {
	Level  string // zerolog level name; empty or invalid means info
	Format string // FormatText or FormatJSON
}

// New returns a logger writing to w. Writes are serialized so the logger may
// be shared by concurrently running branches.
func New(w io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			level = l
		}
	}

	out := w
	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: StampMilliTZ, NoColor: !isTerminal(w)}
	}

	return zerolog.New(zerolog.SyncWriter(out)).With().Timestamp().Logger().Level(level)
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// From returns the logger stored in ctx, or a disabled logger.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
