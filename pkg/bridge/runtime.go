// Package bridge carries messages between the popup and the background
// responder. Every message crosses the boundary as JSON, so neither side can
// share memory with the other, and each message is answered by exactly one
// listener.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/types"
)

var (
	// ErrNoReceiver is returned when nothing is listening for a message.
	ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

	// ErrClosed is returned after the runtime has been closed.
	ErrClosed = errors.New("runtime closed")

	// ErrMalformedMessage is returned for messages that are not a JSON object
	// with a type field.
	ErrMalformedMessage = errors.New("malformed message")
)

// Handler answers one message. payload is the complete JSON message,
// including its type field.
type Handler func(ctx context.Context, payload json.RawMessage) types.Result

type envelope struct {
	ctx     context.Context
	payload []byte
	reply   chan reply
}

type reply struct {
	body []byte
	err  error
}

// Runtime routes messages by type to registered handlers.
type Runtime struct {
	mu       sync.RWMutex
	handlers map[types.MessageType]Handler
	serving  bool

	inbox     chan envelope
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger *logging.Logger
}

// NewRuntime creates a runtime with no listeners.
func NewRuntime(logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runtime{
		handlers: make(map[types.MessageType]Handler),
		inbox:    make(chan envelope),
		closed:   make(chan struct{}),
		logger:   logger,
	}
}

// OnMessage registers h for messages of type t, replacing any earlier handler.
func (r *Runtime) OnMessage(t types.MessageType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Serve delivers incoming messages until ctx ends or the runtime is closed.
// Each message is handled on its own goroutine. When Serve returns the
// runtime is closed and in-flight handlers have finished.
func (r *Runtime) Serve(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	return r.loop(ctx)
}

// Start is Serve on a new goroutine. The runtime accepts messages as soon as
// Start returns; errors from the loop are reported through done.
func (r *Runtime) Start(ctx context.Context) (done <-chan error, err error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	ch := make(chan error, 1)
	go func() { ch <- r.loop(ctx) }()
	return ch, nil
}

func (r *Runtime) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A closed runtime may still be marked serving until its loop notices.
	select {
	case <-r.closed:
		return ErrClosed
	default:
	}
	if r.serving {
		return fmt.Errorf("runtime already serving")
	}
	r.serving = true
	return nil
}

func (r *Runtime) loop(ctx context.Context) error {
	defer func() {
		r.mu.Lock()
		r.serving = false
		r.mu.Unlock()
		r.wg.Wait()
	}()

	r.logger.Infof("Runtime serving")
	for {
		select {
		case <-ctx.Done():
			_ = r.Close()
			return ctx.Err()
		case <-r.closed:
			return ErrClosed
		case env := <-r.inbox:
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				env.reply <- r.dispatch(env)
			}()
		}
	}
}

func (r *Runtime) dispatch(env envelope) reply {
	var header struct {
		Type types.MessageType `json:"type"`
	}
	if err := json.Unmarshal(env.payload, &header); err != nil {
		return reply{err: fmt.Errorf("%w: %v", ErrMalformedMessage, err)}
	}
	if header.Type == "" {
		return reply{err: fmt.Errorf("%w: missing type", ErrMalformedMessage)}
	}

	r.mu.RLock()
	h, ok := r.handlers[header.Type]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warnf("No listener for %s", header.Type)
		return reply{err: ErrNoReceiver}
	}

	result := r.invoke(env.ctx, h, env.payload, header.Type)
	body, err := json.Marshal(result)
	if err != nil {
		return reply{err: fmt.Errorf("failed to encode reply: %w", err)}
	}
	return reply{body: body}
}

// invoke runs h, turning a panic into an error result so the sender is
// always answered.
func (r *Runtime) invoke(ctx context.Context, h Handler, payload []byte, t types.MessageType) (result types.Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("Listener for %s panicked: %v", t, p)
			result = types.ErrorResult(fmt.Sprintf("%v", p))
		}
	}()
	return h(ctx, payload)
}

// SendMessage encodes msg as JSON, delivers it to the listener for its type
// and waits for the reply.
func (r *Runtime) SendMessage(ctx context.Context, msg any) (types.Result, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return types.Result{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	select {
	case <-r.closed:
		return types.Result{}, ErrClosed
	default:
	}

	r.mu.RLock()
	serving := r.serving
	r.mu.RUnlock()
	if !serving {
		return types.Result{}, ErrNoReceiver
	}

	env := envelope{ctx: ctx, payload: payload, reply: make(chan reply, 1)}
	select {
	case r.inbox <- env:
	case <-ctx.Done():
		return types.Result{}, ctx.Err()
	case <-r.closed:
		return types.Result{}, ErrClosed
	}

	var rep reply
	select {
	case rep = <-env.reply:
	case <-ctx.Done():
		return types.Result{}, ctx.Err()
	case <-r.closed:
		return types.Result{}, ErrClosed
	}
	if rep.err != nil {
		return types.Result{}, rep.err
	}

	var result types.Result
	if err := json.Unmarshal(rep.body, &result); err != nil {
		return types.Result{}, fmt.Errorf("failed to decode reply: %w", err)
	}
	return result, nil
}

// Close stops the runtime. Pending and future sends fail with ErrClosed.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	return nil
}
