package pipeline

import (
	"context"
	"iter"

	"github.com/sjq0098/news-mosaic-go/internal/types"
)

const streamMode = types.ModeEnhancedChat

// StreamEventType is the closed set of SSE-style event kinds a streamed run
// emits (SPEC_FULL.md supplemented feature 5, grounded in the teacher's
// chat_pipline EventBus/EventType streaming contract, reworked from a typed
// event bus into a lazy iter.Seq sequence).
type StreamEventType string

const (
	StreamStart    StreamEventType = "start"
	StreamContent  StreamEventType = "content"
	StreamComplete StreamEventType = "complete"
	StreamError    StreamEventType = "error"
)

// StreamEvent is one event in a streamed pipeline run.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Error   string
	Final   *Response // set only on StreamComplete
}

// streamChunkRunes bounds each StreamContent event's size.
const streamChunkRunes = 40

// StreamEnhancedChat is RunStream pinned to mode enhanced_chat, the shape
// named in SPEC_FULL.md's streaming supplement.
func (c *Coordinator) StreamEnhancedChat(ctx context.Context, user, session, message string) iter.Seq[StreamEvent] {
	return c.RunStream(ctx, Request{User: user, Session: session, Message: message, Mode: streamMode})
}

// RunStream runs req to completion, then lazily yields its reply in
// streamChunkRunes-sized pieces as a start/content.../complete sequence
// (SPEC_FULL.md supplemented feature 5). The underlying pipeline run is not
// itself incremental — the coordinator's ports have no streaming chat
// variant — so every event after start is replayed from the finished
// Response; a yield stops early if the consumer breaks iteration.
func (c *Coordinator) RunStream(ctx context.Context, req Request) iter.Seq[StreamEvent] {
	return func(yield func(StreamEvent) bool) {
		if !yield(StreamEvent{Type: StreamStart}) {
			return
		}

		resp, err := c.Run(ctx, req)
		if err != nil {
			yield(StreamEvent{Type: StreamError, Error: err.Error()})
			return
		}

		runes := []rune(resp.Reply)
		for start := 0; start < len(runes); start += streamChunkRunes {
			end := start + streamChunkRunes
			if end > len(runes) {
				end = len(runes)
			}
			if !yield(StreamEvent{Type: StreamContent, Content: string(runes[start:end])}) {
				return
			}
		}

		yield(StreamEvent{Type: StreamComplete, Final: resp})
	}
}
