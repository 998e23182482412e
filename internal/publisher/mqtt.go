package publisher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/loadwatch/internal/config"
)

// Metric is the smoothed load reading pushed to Home Assistant
type Metric struct {
	Entity string    `json:"entity"`
	Date   time.Time `json:"date"`
	GW     float64   `json:"gw"`
}

// Publisher pushes rolling-mean readings to MQTT and/or the Home
// Assistant HTTP API
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, topicPrefix string, haCfg config.HAConfig) (*Publisher, error) {
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID("loadwatch")
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		haConfig:    haCfg,
	}, nil
}

// PublishMQTT sends the metric as a retained message on
// <prefix>/<entity>/load_7d_mean
func (p *Publisher) PublishMQTT(m Metric) error {
	if p.client == nil {
		return fmt.Errorf("MQTT publishing is not enabled in config")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/load_7d_mean", p.topicPrefix, m.Entity)
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// HAPayload matches the Home Assistant backfill service call data
type HAPayload struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// PublishHA sends the metric to Home Assistant via HTTP API
func (p *Publisher) PublishHA(m Metric) error {
	if !p.haConfig.Enabled {
		return fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	apiURL := fmt.Sprintf("%s/api/appdaemon/backfill_state", p.haConfig.URL)

	timestamp := m.Date.Format(time.RFC3339)
	payload := HAPayload{
		EntityID:    p.haConfig.EntityID,
		State:       fmt.Sprintf("%.2f", m.GW),
		LastChanged: timestamp,
		LastUpdated: timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// TriggerStatistics asks AppDaemon to recompile statistics from the
// backfilled states, so the Energy dashboard picks them up
func (p *Publisher) TriggerStatistics() (map[string]interface{}, error) {
	if !p.haConfig.Enabled {
		return nil, fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	apiURL := fmt.Sprintf("%s/api/appdaemon/generate_statistics", p.haConfig.URL)

	body, err := json.Marshal(map[string]string{"entity_id": p.haConfig.EntityID})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	client := &http.Client{Timeout: 60 * time.Second} // Longer timeout for statistics generation
	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return result, nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
