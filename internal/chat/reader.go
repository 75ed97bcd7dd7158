package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const defaultChunkSize = 4096

// LineBuffer reassembles newline-terminated lines from arbitrarily split chunks.
// The unterminated tail is held back until a later chunk or Flush completes it.
type LineBuffer struct {
	carry string
}

// Feed appends chunk to the carry-over and returns every line it completes.
func (b *LineBuffer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	parts := strings.Split(b.carry+string(chunk), "\n")
	b.carry = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Flush returns the remaining carry-over as a final line and resets the buffer.
// A blank carry yields no lines.
func (b *LineBuffer) Flush() []string {
	rest := b.carry
	b.carry = ""
	if strings.TrimSpace(rest) == "" {
		return nil
	}
	return []string{rest}
}

// Pending returns the unterminated text currently held.
func (b *LineBuffer) Pending() string {
	return b.carry
}

// FragmentFunc is called with each payload fragment as soon as its line completes.
type FragmentFunc func(fragment string)

// StreamStats describes what a single read consumed.
type StreamStats struct {
	Chunks    int
	Bytes     int
	Frames    int
	Completed bool // a sentinel or conversation-id frame was seen
}

// Aggregate folds classified frames into the final content and conversation ID.
type Aggregate struct {
	content        strings.Builder
	conversationID string
	completed      bool
	frames         int
}

// Apply folds one frame. Payload fragments are appended in call order and the last
// conversation-id frame wins.
func (a *Aggregate) Apply(f Frame) {
	switch f.Kind {
	case FrameEmpty:
		return
	case FramePayload:
		a.content.WriteString(f.Value)
	case FrameSentinel:
		a.completed = true
	case FrameConversationID:
		a.conversationID = f.Value
		a.completed = true
	}
	a.frames++
}

// Content returns the accumulated payload trimmed of surrounding whitespace.
func (a *Aggregate) Content() string {
	return strings.TrimSpace(a.content.String())
}

// ConversationID returns the last identifier observed, or "".
func (a *Aggregate) ConversationID() string {
	return a.conversationID
}

// Completed reports whether a sentinel or conversation-id frame was seen.
func (a *Aggregate) Completed() bool {
	return a.completed
}

// StreamReader consumes a framed text stream and aggregates its payload.
type StreamReader struct {
	markers    Markers
	chunkSize  int
	onFragment FragmentFunc
	onUnknown  func(line string)
}

// ReaderOption configures a StreamReader.
type ReaderOption func(*StreamReader)

// WithFragmentFunc registers a callback invoked for every payload fragment.
func WithFragmentFunc(fn FragmentFunc) ReaderOption {
	return func(r *StreamReader) {
		r.onFragment = fn
	}
}

// WithUnknownLineFunc registers a callback for lines that match no marker.
func WithUnknownLineFunc(fn func(line string)) ReaderOption {
	return func(r *StreamReader) {
		r.onUnknown = fn
	}
}

// WithChunkSize sets the read buffer size. Values <= 0 keep the default.
func WithChunkSize(n int) ReaderOption {
	return func(r *StreamReader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// NewStreamReader creates a reader for the given framing.
func NewStreamReader(markers Markers, opts ...ReaderOption) *StreamReader {
	r := &StreamReader{markers: markers, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read consumes body until EOF. On a read error the partial content is discarded
// and only the error is returned.
func (r *StreamReader) Read(ctx context.Context, body io.Reader) (*Result, StreamStats, error) {
	var (
		lines LineBuffer
		agg   Aggregate
		stats StreamStats
	)
	buf := make([]byte, r.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("reading stream: %w", err)
		}

		n, err := body.Read(buf)
		if n > 0 {
			stats.Chunks++
			stats.Bytes += n
			for _, line := range lines.Feed(buf[:n]) {
				r.apply(&agg, line)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading stream: %w", err)
		}
	}

	for _, line := range lines.Flush() {
		r.apply(&agg, line)
	}

	stats.Frames = agg.frames
	stats.Completed = agg.Completed()
	return &Result{
		Success:        true,
		Content:        agg.Content(),
		ConversationID: agg.ConversationID(),
	}, stats, nil
}

// ReadChunks runs the same framing over an in-memory chunk sequence.
func (r *StreamReader) ReadChunks(chunks []string) *Result {
	var (
		lines LineBuffer
		agg   Aggregate
	)
	for _, c := range chunks {
		for _, line := range lines.Feed([]byte(c)) {
			r.apply(&agg, line)
		}
	}
	for _, line := range lines.Flush() {
		r.apply(&agg, line)
	}
	return &Result{
		Success:        true,
		Content:        agg.Content(),
		ConversationID: agg.ConversationID(),
	}
}

func (r *StreamReader) apply(agg *Aggregate, line string) {
	f := r.markers.Classify(line)
	switch f.Kind {
	case FramePayload:
		if f.Value != "" && r.onFragment != nil {
			r.onFragment(f.Value)
		}
	case FrameUnknown:
		if r.onUnknown != nil {
			r.onUnknown(f.Value)
		}
	}
	agg.Apply(f)
}
