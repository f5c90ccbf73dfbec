package mqtt

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/cenkalti/backoff"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ericogr/tamper-to-serial/pkg/config"
	"github.com/ericogr/tamper-to-serial/pkg/meter"
	"github.com/ericogr/tamper-to-serial/pkg/output"
)

const (
	// defaults
	DefaultServer     = "tcp://localhost:1883"
	DefaultClientID   = "tamper-node"
	DefaultStateTopic = "tamper-node/state"
	// discovery payload keys/values
	keyName                = "name"
	keyStateTopic          = "state_topic"
	keyDeviceClass         = "device_class"
	keyValueTemplate       = "value_template"
	keyJSONAttributesTopic = "json_attributes_topic"
	keyUniqueID            = "unique_id"
	deviceClassTamper      = "tamper"
	valueTemplateTamper    = "{{ 'ON' if value_json.tamper else 'OFF' }}"
	maxConnectRetries      = 5
)

type MQTTOutput struct {
	client     mqtt.Client
	stateTopic string
}

func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	server := cfg.Server
	if server == "" {
		server = DefaultServer
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	opts := mqtt.NewClientOptions().AddBroker(server).SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)

	connect := func() error {
		token := client.Connect()
		if token.Wait() && token.Error() != nil {
			return token.Error()
		}
		return nil
	}
	if err := backoff.Retry(connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxConnectRetries)); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	st := cfg.Topic
	if st == "" {
		st = DefaultStateTopic
	}
	m := &MQTTOutput{client: client, stateTopic: st}

	// Publish a Home Assistant discovery payload if requested, retained so
	// the entity survives broker restarts.
	if cfg.DiscoveryTopic != "" {
		payload := discoveryPayload(clientID, st)
		if err := publishJSON(client, cfg.DiscoveryTopic, true, payload); err != nil {
			log.Printf("mqtt discovery publish error: %v", err)
		}
	}

	return m, nil
}

func (m *MQTTOutput) Publish(r meter.Reading, _ []byte) error {
	field := 0
	if r.Field {
		field = 1
	}
	payload := map[string]interface{}{
		"voltage":     r.Voltage,
		"current":     r.Current,
		"field":       field,
		"tamper":      r.Tamper(),
		"volt_tamper": r.VoltTamper,
		"curr_tamper": r.CurrTamper,
		"hall_tamper": r.HallTamper,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.stateTopic, 0, false, b)
	token.Wait()
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

// helper: discovery payload for a tamper binary sensor
func discoveryPayload(clientID, stateTopic string) map[string]interface{} {
	return map[string]interface{}{
		keyName:                fmt.Sprintf("Tamper node %s", clientID),
		keyStateTopic:          stateTopic,
		keyDeviceClass:         deviceClassTamper,
		keyValueTemplate:       valueTemplateTamper,
		keyJSONAttributesTopic: stateTopic,
		keyUniqueID:            clientID,
	}
}

// helper: marshal and publish JSON payload
func publishJSON(client mqtt.Client, topic string, retained bool, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 0, retained, b)
	token.Wait()
	return token.Error()
}
