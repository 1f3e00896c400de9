package feed

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
)

// SSE reads one server-sent-events stream. Events named other than Event are
// ignored, as are comment lines used as heartbeats.
type SSE[T any] struct {
	Name     string
	Event    string
	Open     func(ctx context.Context) (io.ReadCloser, error)
	Decode   func(data []byte) (T, error)
	Terminal func(T) bool
}

func (s SSE[T]) Watch(ctx context.Context) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)

		body, err := s.Open(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.WarnContext(ctx, "feed stream open failed", "feed", s.Name, "err", err)
			}
			return
		}
		if body == nil {
			return
		}
		defer body.Close()

		// unblock the scanner on teardown
		stop := context.AfterFunc(ctx, func() { body.Close() })
		defer stop()

		s.read(ctx, body, out)
	}()
	return out
}

func (s SSE[T]) read(ctx context.Context, r io.Reader, out chan T) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var event string
	var data bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case len(line) == 0:
			if data.Len() > 0 && (event == "" || event == s.Event) {
				if s.dispatch(ctx, data.Bytes(), out) {
					return
				}
			}
			event = ""
			data.Reset()
		case line[0] == ':':
		case bytes.HasPrefix(line, []byte("event:")):
			event = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(line[len("data:"):], []byte(" ")))
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		slog.WarnContext(ctx, "feed stream broken", "feed", s.Name, "err", err)
	}
}

// dispatch delivers one event and reports whether the feed is finished.
func (s SSE[T]) dispatch(ctx context.Context, data []byte, out chan T) bool {
	v, err := s.Decode(data)
	if err != nil {
		slog.WarnContext(ctx, "feed event dropped", "feed", s.Name, "err", err)
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	latest(out, v)
	return s.Terminal != nil && s.Terminal(v)
}
