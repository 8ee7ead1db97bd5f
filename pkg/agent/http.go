package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

const executorApiPath = "/api/v1/executor"

// How long to wait before resubscribing after losing the event stream.
const reconnectDelay = time.Second

// A Connection over the agent's chunked HTTP executor API.
//
// The subscription call is POSTed with a streaming response carrying
// framed event records. Outbound calls are separate short-lived POSTs
// issued by a send loop, so the event loop never blocks on a send.
type HttpConnection struct {
	endpoint  string
	subscribe SubscribeFunc
	client    *http.Client

	events   chan *protocol.Event
	outgoing chan *protocol.Call

	ctx      context.Context
	cancel   context.CancelFunc
	stopping chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewHttpConnection(endpoint string, subscribe SubscribeFunc) *HttpConnection {
	ctx, cancel := context.WithCancel(context.Background())

	return &HttpConnection{
		endpoint:  endpoint,
		subscribe: subscribe,
		client:    &http.Client{},
		events:    make(chan *protocol.Event, 16),
		outgoing:  make(chan *protocol.Call, 64),
		ctx:       ctx,
		cancel:    cancel,
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run the connection until stopped or aborted.
// The events channel is closed when the connection has terminated.
func (c *HttpConnection) Run() error {
	defer close(c.done)
	defer close(c.events)

	eg := errgroup.Group{}
	eg.Go(c.streamLoop)
	eg.Go(c.sendLoop)
	return eg.Wait()
}

func (c *HttpConnection) Events() <-chan *protocol.Event {
	return c.events
}

func (c *HttpConnection) Send(call *protocol.Call) {
	select {
	case c.outgoing <- call:
	default:
		log.Warnf("Outbound queue full, dropping %s call", call.Type)
	}
}

func (c *HttpConnection) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopping)
	})
}

func (c *HttpConnection) Abort() {
	c.cancel()
}

func (c *HttpConnection) Done() <-chan struct{} {
	return c.done
}

// Maintains the subscription. Each cycle rebuilds the handshake from
// the current unacknowledged state and reads events until the stream
// is lost, then reports the loss and resubscribes after a delay.
func (c *HttpConnection) streamLoop() error {
	for {
		err := c.subscribeAndRead()
		if c.terminated() {
			return nil
		}

		log.Debug("Event stream lost:", err)
		if !c.deliver(&protocol.Event{Type: protocol.EventClosed}) {
			return nil
		}

		select {
		case <-time.After(reconnectDelay):
		case <-c.ctx.Done():
			return nil
		case <-c.stopping:
			return nil
		}
	}
}

func (c *HttpConnection) subscribeAndRead() error {
	payload, err := json.Marshal(c.subscribe())
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint+executorApiPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("subscription rejected: %s", resp.Status)
	}

	log.Info("Subscribed to agent event stream")

	reader := NewRecordReader(resp.Body)
	for {
		record, err := reader.ReadRecord()
		if err != nil {
			return err
		}

		event, err := protocol.DecodeEvent(record)
		if err != nil {
			log.Warn("Dropping malformed event:", err)
			continue
		}

		if !c.deliver(event) {
			return nil
		}
	}
}

func (c *HttpConnection) sendLoop() error {
	for {
		select {
		case call := <-c.outgoing:
			c.post(call)

		case <-c.stopping:
			// Flush calls queued before the stop, then tear down.
			for {
				select {
				case call := <-c.outgoing:
					c.post(call)
				default:
					c.cancel()
					return nil
				}
			}

		case <-c.ctx.Done():
			return nil
		}
	}
}

// Issue a single outbound call. Failures are logged only; delivery is
// guaranteed by resubscription replay, not per-call retries.
func (c *HttpConnection) post(call *protocol.Call) {
	payload, err := json.Marshal(call)
	if err != nil {
		log.Error("Failed to encode call:", err)
		return
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint+executorApiPath, bytes.NewReader(payload))
	if err != nil {
		log.Error("Failed to build request:", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warnf("Failed to send %s call: %v", call.Type, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		log.Warnf("Agent rejected %s call: %s", call.Type, resp.Status)
	}
}

func (c *HttpConnection) terminated() bool {
	select {
	case <-c.ctx.Done():
		return true
	case <-c.stopping:
		return true
	default:
		return false
	}
}

func (c *HttpConnection) deliver(event *protocol.Event) bool {
	select {
	case c.events <- event:
		return true
	case <-c.ctx.Done():
		return false
	}
}
