package cells

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// LayoutHandler is called when a rectangle update arrives on a layout topic.
// rects is nil when the payload failed to parse; err carries the reason.
type LayoutHandler func(layoutName string, rects []Rect, err error)

// MQTTClient manages the MQTT connection and the per-layout rectangle
// subscriptions for the live service mode. An interactive editor publishes
// the full rectangle set on every change; the service recomputes boundaries
// and publishes them back (see Publisher).
type MQTTClient struct {
	client        mqtt.Client
	config        *Config
	layoutHandler LayoutHandler
	isConnected   bool
	mu            sync.RWMutex
}

var (
	globalClient *MQTTClient
	clientMu     sync.Mutex
)

// InitMQTT initializes the global MQTT client. The broker, client id,
// username, and password can each be overridden through MQTT_* environment
// variables. If no broker is configured anywhere, MQTT is disabled and a nil
// client is returned.
func InitMQTT(config *Config, handler LayoutHandler) (*MQTTClient, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || len(config.Layouts) == 0 {
		return nil, fmt.Errorf("MQTT enabled but no layouts configured")
	}

	client := &MQTTClient{
		config:        config,
		layoutHandler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "cellbounds"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // preserve subscriptions on reconnect
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	globalClient = client
	return client, nil
}

// GetMQTTClient returns the global MQTT client instance.
func GetMQTTClient() *MQTTClient {
	clientMu.Lock()
	defer clientMu.Unlock()
	return globalClient
}

// connectWithRetry connects to the broker with exponential backoff.
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] Connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] Connected")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] Connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] Connection timeout")
		}

		log.Printf("[MQTT] Retrying in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to every configured layout's rectangle topic.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("[MQTT] Connected, subscribing to layout topics...")
	c.setConnected(true)

	prefix := c.publishPrefix()
	for _, layout := range c.config.Layouts {
		topic := layout.SubscribeTopic(prefix)
		log.Printf("[MQTT] Subscribing to %s for layout %s", topic, layout.Name)

		token := client.Subscribe(topic, 0, c.createLayoutHandler(layout.Name))
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("[MQTT] Error subscribing to %s: %v", topic, token.Error())
		}
	}
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] Connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] Reconnecting...")
}

// createLayoutHandler builds the message handler for one layout topic. The
// payload is a JSON rectangle array in either accepted form.
func (c *MQTTClient) createLayoutHandler(layoutName string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		log.Printf("[MQTT] Received layout update for %s (topic: %s, size: %d bytes)",
			layoutName, msg.Topic(), len(payload))

		rects, err := ParseLayout(payload)
		if err != nil {
			log.Printf("[MQTT] Error parsing layout %s: %v", layoutName, err)
			if c.layoutHandler != nil {
				c.layoutHandler(layoutName, nil, err)
			}
			return
		}

		if c.layoutHandler != nil {
			c.layoutHandler(layoutName, rects, nil)
		}
	}
}

// publishPrefix resolves the topic prefix from the environment or config.
func (c *MQTTClient) publishPrefix() string {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" && c.config != nil && c.config.MQTT.PublishPrefix != "" {
		prefix = c.config.MQTT.PublishPrefix
	}
	if prefix == "" {
		prefix = "cellbounds"
	}
	return prefix
}

// GetLayoutByTopic returns the layout name subscribed on the given topic.
func (c *MQTTClient) GetLayoutByTopic(topic string) (string, bool) {
	prefix := c.publishPrefix()
	for _, layout := range c.config.Layouts {
		if layout.SubscribeTopic(prefix) == topic {
			return layout.Name, true
		}
	}
	return "", false
}

// IsConnected reports whether the MQTT client is currently connected.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] Disconnecting...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing.
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock wires an MQTTClient around a provided mqtt.Client,
// used by tests with mock clients.
func newMQTTClientWithMock(client mqtt.Client, config *Config, handler LayoutHandler) *MQTTClient {
	return &MQTTClient{
		client:        client,
		config:        config,
		layoutHandler: handler,
	}
}
