/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/pathways/core"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTT publishes events to a broker.
//
// Each event goes to Topic/TYPE, where TYPE is the event's type.
type MQTT struct {
	Client mqtt.Client

	Topic string
	QoS   byte

	// Timeout limits how long Record waits for a publication.
	Timeout time.Duration

	Logger *zap.Logger
}

// NewMQTT makes an MQTT sink.  The topic can have a ":QOS" suffix.
func NewMQTT(client mqtt.Client, topic string, logger *zap.Logger) *MQTT {
	if logger == nil {
		logger = zap.NewNop()
	}
	topic, qos := ParseTopic(topic)
	return &MQTT{
		Client:  client,
		Topic:   topic,
		QoS:     qos,
		Timeout: time.Second,
		Logger:  logger,
	}
}

// Record publishes the event as JSON.  Failures are logged.
func (m *MQTT) Record(ctx context.Context, e *core.Event) {
	js, err := json.Marshal(e)
	if err != nil {
		m.Logger.Warn("Failed to marshal event", zap.Error(err))
		return
	}

	topic := m.Topic + "/" + string(e.Type)

	token := m.Client.Publish(topic, m.QoS, false, js)
	if !token.WaitTimeout(m.Timeout) {
		m.Logger.Warn("Publish timeout", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		m.Logger.Warn("Publish error", zap.String("topic", topic), zap.Error(err))
	}
}

// ParseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func ParseTopic(s string) (string, byte) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.Atoi(s[i+1:])
	if err != nil || qos < 0 || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}

// MQTTConfig is what Connect needs to make a client.
type MQTTConfig struct {
	Broker    string
	ClientId  string
	KeepAlive time.Duration
	Username  string
	Password  string
	Reconnect bool
}

// Connect makes an MQTT client and connects it to the broker.
func Connect(ctx context.Context, cfg MQTTConfig, logger *zap.Logger) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("no MQTT broker")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 10 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientId)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.AutoReconnect = cfg.Reconnect
	opts.CleanSession = true

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)

	logger.Info("Attempting to connect to broker", zap.String("broker", cfg.Broker))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if err := ctx.Err(); err != nil {
		client.Disconnect(100)
		return nil, err
	}
	logger.Info("Connected to broker", zap.String("broker", cfg.Broker))

	return client, nil
}
