// Package bridge supervises the websocket session that feeds printer
// status frames into the MQTT publisher.
package bridge

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ohler55/ojg/oj"

	"k1bridge/internal/config"
	"k1bridge/internal/extract"
)

// Publisher is the outbound side of the pipeline: discovery records
// per (re)connect and field values per frame, plus broker connectivity
// for the status snapshot.
type Publisher interface {
	PublishDiscovery(m config.Mapping) error
	PublishState(uid string, value any) error
	Connected() bool
}

// ConnState is the supervisor's view of the upstream session.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

const (
	// Reconnect backoff doubles from the floor up to the ceiling and
	// resets to the floor after a successful dial.
	backoffFloor = 2 * time.Second
	backoffCeil  = 60 * time.Second

	// Raw frames logged under the debug quota are truncated to this
	// many bytes per line.
	rawLogBytes = 500

	dialTimeout = 30 * time.Second
)

// Bridge owns the connect/consume/reconnect loop. All mutable state is
// confined to the Run goroutine; the mutex only guards the snapshot
// read by the status API.
type Bridge struct {
	cfg       *config.Config
	extractor *extract.Extractor
	publisher Publisher
	logger    *log.Logger
	dialer    *websocket.Dialer

	// One-shot diagnostic budget; decremented per logged frame, never
	// replenished.
	rawLeft int

	mu             sync.RWMutex
	state          ConnState
	backoff        time.Duration
	started        time.Time
	frameCount     uint64
	droppedCount   uint64
	reconnectCount uint64
}

// Status is a point-in-time snapshot of the supervisor for the status
// API.
type Status struct {
	State           ConnState `json:"state"`
	Backoff         string    `json:"backoff"`
	BrokerConnected bool      `json:"broker_connected"`
	Frames          uint64    `json:"frames"`
	FramesDropped   uint64    `json:"frames_dropped"`
	Reconnects      uint64    `json:"reconnects"`
	Uptime          string    `json:"uptime"`
	RawFramesLeft   int       `json:"raw_frames_left"`
}

// New creates a Bridge. Run must be called to start it.
func New(cfg *config.Config, extractor *extract.Extractor, publisher Publisher, logger *log.Logger) *Bridge {
	return &Bridge{
		cfg:       cfg,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: dialTimeout,
		},
		rawLeft: cfg.Debug.RawFramesLimit,
		state:   StateDisconnected,
		backoff: backoffFloor,
		started: time.Now(),
	}
}

// Run drives the connect/consume/reconnect loop until ctx is done. No
// failure in the per-frame path ends the loop; only cancellation does.
func (b *Bridge) Run(ctx context.Context) error {
	backoff := backoffFloor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.setState(StateConnecting, backoff)
		b.logger.Printf("Connecting to WebSocket: %s", b.cfg.WSURL)

		conn, resp, err := b.dialer.DialContext(ctx, b.cfg.WSURL, b.headers())
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			b.setState(StateDisconnected, backoff)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			reconnects.Inc()
			b.countReconnect()
			b.logger.Printf("WS error: %v - retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		b.logger.Printf("WebSocket connected.")
		backoff = backoffFloor
		b.setState(StateConnected, backoff)
		b.publishDiscovery()

		err = b.consume(ctx, conn)
		conn.Close()
		b.setState(StateDisconnected, backoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		reconnects.Inc()
		b.countReconnect()
		b.logger.Printf("WS error: %v - retrying in %s", err, backoff)
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

// Status returns the current supervisor snapshot.
func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Status{
		State:           b.state,
		Backoff:         b.backoff.String(),
		BrokerConnected: b.publisher.Connected(),
		Frames:          b.frameCount,
		FramesDropped:   b.droppedCount,
		Reconnects:      b.reconnectCount,
		Uptime:          time.Since(b.started).Round(time.Second).String(),
		RawFramesLeft:   b.rawLeft,
	}
}

// publishDiscovery announces every mapping once per (re)connect. The
// records are idempotent; the hub sees the same retained payload after
// every reconnect.
func (b *Bridge) publishDiscovery() {
	for _, m := range b.cfg.Mappings {
		if err := b.publisher.PublishDiscovery(m); err != nil {
			b.logger.Printf("Failed to publish discovery for %s: %v", m.UniqueID, err)
			continue
		}
		discoveryPublished.Inc()
	}
}

// consume reads frames until the connection fails or ctx is cancelled.
// Closing the connection is the only way to unblock a pending read.
func (b *Bridge) consume(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		b.handleFrame(msg)
	}
}

// handleFrame decodes one frame and publishes every mapped field. A
// frame that does not decode is dropped without touching the
// connection.
func (b *Bridge) handleFrame(msg []byte) {
	framesReceived.Inc()
	b.countFrame()

	data, err := oj.Parse(msg)
	if err != nil {
		framesDropped.Inc()
		b.countDrop()
		if b.rawLeft > 0 {
			b.logger.Printf("RAW(nonjson) = %s", truncate(msg, rawLogBytes))
			b.decrementRawQuota()
		}
		return
	}

	if b.rawLeft > 0 {
		b.logger.Printf("RAW(json) = %s", truncate([]byte(oj.JSON(data)), rawLogBytes))
		b.decrementRawQuota()
	}

	for uid, val := range b.extractor.Values(data) {
		if err := b.publisher.PublishState(uid, val); err != nil {
			b.logger.Printf("Failed to publish state for %s: %v", uid, err)
			continue
		}
		statesPublished.Inc()
	}
}

func (b *Bridge) headers() http.Header {
	if len(b.cfg.WSHeaders) == 0 {
		return nil
	}
	h := make(http.Header, len(b.cfg.WSHeaders))
	for k, v := range b.cfg.WSHeaders {
		h.Set(k, v)
	}
	return h
}

func (b *Bridge) setState(s ConnState, backoff time.Duration) {
	b.mu.Lock()
	b.state = s
	b.backoff = backoff
	b.mu.Unlock()
}

func (b *Bridge) countFrame() {
	b.mu.Lock()
	b.frameCount++
	b.mu.Unlock()
}

func (b *Bridge) countDrop() {
	b.mu.Lock()
	b.droppedCount++
	b.mu.Unlock()
}

func (b *Bridge) countReconnect() {
	b.mu.Lock()
	b.reconnectCount++
	b.mu.Unlock()
}

func (b *Bridge) decrementRawQuota() {
	b.mu.Lock()
	b.rawLeft--
	b.mu.Unlock()
}

// nextBackoff doubles the delay, capped at the ceiling.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > backoffCeil {
		return backoffCeil
	}
	return d
}

// sleep waits for d or until ctx is cancelled; it reports whether the
// full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
