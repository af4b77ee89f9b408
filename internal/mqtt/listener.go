package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"tirep/internal/snapshot"
)

// DefaultTopic is where a host announces saved snapshots.
const DefaultTopic = "tirep/snapshots/saved"

const queueSize = 16

// Notice announces a snapshot file written by the host.
type Notice struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// ParseNotice accepts a JSON object or a bare path. The path must name a
// snapshot file (.yml, .yaml or .json).
func ParseNotice(payload []byte) (Notice, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return Notice{}, errors.New("empty notice")
	}
	var n Notice
	if payload[0] == '{' {
		if err := json.Unmarshal(payload, &n); err != nil {
			return Notice{}, fmt.Errorf("decode notice: %w", err)
		}
	} else {
		n.Path = string(payload)
	}
	n.Path = strings.TrimSpace(n.Path)
	if n.Path == "" {
		return Notice{}, errors.New("notice without path")
	}
	if !snapshot.IsSnapshotFile(n.Path) {
		return Notice{}, fmt.Errorf("notice path %q is not a snapshot file", n.Path)
	}
	return n, nil
}

// Handler processes one notice.
type Handler func(ctx context.Context, n Notice) error

// Listener subscribes to the notice topic and runs the handler for each
// notice, one at a time, outside the paho callback goroutine.
type Listener struct {
	sub    Subscriber
	topic  string
	qos    byte
	handle Handler
	log    *zap.Logger
	queue  chan Notice
}

func NewListener(sub Subscriber, topic string, qos byte, handle Handler, log *zap.Logger) *Listener {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{
		sub:    sub,
		topic:  topic,
		qos:    qos,
		handle: handle,
		log:    log.With(zap.String("topic", topic)),
		queue:  make(chan Notice, queueSize),
	}
}

// Run subscribes and processes notices until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.sub.Subscribe(l.topic, l.qos, l.onMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", l.topic, err)
	}
	l.log.Info("listening for snapshot notices")
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-l.queue:
			if err := l.handle(ctx, n); err != nil {
				l.log.Error("snapshot notice failed", zap.String("path", n.Path), zap.Error(err))
				continue
			}
			l.log.Info("snapshot notice handled", zap.String("path", n.Path))
		}
	}
}

func (l *Listener) onMessage(_ paho.Client, msg paho.Message) {
	n, err := ParseNotice(msg.Payload())
	if err != nil {
		l.log.Warn("ignoring malformed notice", zap.Error(err))
		return
	}
	select {
	case l.queue <- n:
	default:
		l.log.Warn("notice queue full, dropping", zap.String("path", n.Path))
	}
}
