package cells

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// BoundaryUpdate is the payload published for one layout's computed
// boundaries.
type BoundaryUpdate struct {
	Layout    string `json:"layout"`
	Lines     []Line `json:"lines"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes computed boundary networks to MQTT. Each layout gets
// its own retained topic plus a combined topic listing all tracked layouts,
// so late subscribers immediately receive the latest boundaries.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	updates       map[string]*BoundaryUpdate
	mu            sync.RWMutex
}

// NewPublisher creates a boundary publisher. A nil client disables
// publishing (for testing).
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "cellbounds"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // retain so new subscribers get the latest boundaries
		updates:       make(map[string]*BoundaryUpdate),
	}
}

// PublishBoundaries publishes a layout's boundary lines to its individual
// topic and refreshes the combined topic.
func (p *Publisher) PublishBoundaries(layout string, lines []Line) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	update := &BoundaryUpdate{
		Layout:    layout,
		Lines:     lines,
		Count:     len(lines),
		Timestamp: time.Now().Unix(),
	}

	p.mu.Lock()
	p.updates[layout] = update
	p.mu.Unlock()

	if err := p.publishIndividual(update); err != nil {
		log.Printf("[MQTT] Error publishing boundaries for %s: %v", layout, err)
		return err
	}
	if err := p.publishCombined(); err != nil {
		log.Printf("[MQTT] Error publishing combined boundaries: %v", err)
		return err
	}
	return nil
}

// publishIndividual publishes one layout's boundaries to
// <prefix>/<layout>/lines.
func (p *Publisher) publishIndividual(update *BoundaryUpdate) error {
	topic := fmt.Sprintf("%s/%s/lines", p.publishPrefix, update.Layout)

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshaling boundary update: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("[MQTT] Published %d boundary lines for %s", update.Count, update.Layout)
	return nil
}

// publishCombined publishes all layouts' latest updates to <prefix>/layouts.
func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	updates := make([]*BoundaryUpdate, 0, len(p.updates))
	for _, u := range p.updates {
		updates = append(updates, u)
	}
	p.mu.RUnlock()

	if len(updates) == 0 {
		return nil
	}

	topic := fmt.Sprintf("%s/layouts", p.publishPrefix)
	message := map[string]interface{}{
		"layouts":   updates,
		"timestamp": time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined update: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// GetUpdate returns the last published update for a layout.
func (p *Publisher) GetUpdate(layout string) (*BoundaryUpdate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.updates[layout]
	return u, ok
}

// ClearUpdate removes a layout's stored update.
func (p *Publisher) ClearUpdate(layout string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.updates, layout)
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages are retained by the broker.
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
