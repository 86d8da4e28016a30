// Package publish mirrors focus events to an MQTT broker so other tools (home
// automation, status lights) can react to the user's state.
//
// Topics, all under a configurable prefix:
//
//	<prefix>/state        retained, on every state transition
//	<prefix>/calibration  on every calibration
//	<prefix>/summary      retained, once at session end
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/teslashibe/poliscope/pkg/focus"
	"github.com/teslashibe/poliscope/pkg/monitor"
)

const (
	DefaultPrefix = "poliscope"

	queueSize      = 64
	publishTimeout = 5 * time.Second
)

// StatePayload is published on <prefix>/state.
type StatePayload struct {
	Session   string       `json:"session"`
	Timestamp time.Time    `json:"timestamp"`
	Frame     int          `json:"frame"`
	State     focus.State  `json:"state"`
	Previous  *focus.State `json:"previous,omitempty"`
}

// CalibrationPayload is published on <prefix>/calibration.
type CalibrationPayload struct {
	Session   string         `json:"session"`
	Timestamp time.Time      `json:"timestamp"`
	Frame     int            `json:"frame"`
	Baseline  focus.Baseline `json:"baseline"`
}

// SummaryPayload is published on <prefix>/summary.
type SummaryPayload struct {
	Session   string                  `json:"session"`
	Timestamp time.Time               `json:"timestamp"`
	Frames    int                     `json:"frames"`
	Duration  float64                 `json:"duration_seconds"`
	Percent   map[focus.State]float64 `json:"percent"`
	Counts    map[focus.State]int     `json:"counts"`
}

type message struct {
	topic    string
	retained bool
	payload  []byte
}

// Publisher is a monitor.Observer that publishes to MQTT. Observe only queues;
// a background goroutine does the network I/O.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *slog.Logger

	queue chan message
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// Connect dials broker (e.g. "tcp://localhost:1883") and returns a Publisher.
func Connect(broker, clientID, prefix string, logger *slog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return New(client, prefix, logger), nil
}

// New wraps a connected client.
func New(client mqtt.Client, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "mqtt"),
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Topic returns the full topic for a suffix.
func (p *Publisher) Topic(suffix string) string {
	return p.prefix + "/" + suffix
}

// Observe implements monitor.Observer.
func (p *Publisher) Observe(e monitor.Event) {
	switch e.Kind {
	case monitor.EventTransition:
		p.enqueue("state", true, StatePayload{
			Session:   e.Session,
			Timestamp: e.At,
			Frame:     e.Frame,
			State:     e.State,
			Previous:  e.Previous,
		})
	case monitor.EventCalibrated:
		if e.Baseline == nil {
			return
		}
		p.enqueue("calibration", false, CalibrationPayload{
			Session:   e.Session,
			Timestamp: e.At,
			Frame:     e.Frame,
			Baseline:  *e.Baseline,
		})
	case monitor.EventSummary:
		if e.Report == nil {
			return
		}
		r := e.Report
		p.enqueue("summary", true, SummaryPayload{
			Session:   r.Session,
			Timestamp: e.At,
			Frames:    r.Frames,
			Duration:  r.Duration.Seconds(),
			Percent:   r.Summary.Percent,
			Counts:    r.Summary.Counts,
		})
	}
}

func (p *Publisher) enqueue(suffix string, retained bool, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("encode payload", "topic", suffix, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- message{topic: p.Topic(suffix), retained: retained, payload: data}:
	default:
		p.dropped++
		p.logger.Warn("publish queue full, dropping message", "topic", suffix, "dropped", p.dropped)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for m := range p.queue {
		token := p.client.Publish(m.topic, p.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn("publish timed out", "topic", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("publish failed", "topic", m.topic, "error", err)
			continue
		}
		p.logger.Debug("published", "topic", m.topic, "bytes", len(m.payload))
	}
}

// Close flushes queued messages and disconnects.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	p.client.Disconnect(250)
	return nil
}
