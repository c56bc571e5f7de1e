// SPDX-License-Identifier: AGPL-3.0-or-later
// dstargateway - a D-STAR repeater and reflector gateway
// Copyright (C) 2026 dstargateway contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package mqtt publishes gateway lifecycle events to the broker
// configured in [MQTT] (spec §6): one flat JSON document per topic,
// publish-only. github.com/eclipse/paho.mqtt.golang is the only real
// MQTT client library present anywhere in the examples pack (named in
// go.mod manifests for ka9q_ubersdr and GoCluster; neither repo's
// source was retrieved, so this package is authored directly against
// the library's published client API rather than adapted from example
// code — noted in DESIGN.md).
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	TopicAPRS       = "aprs-gateway/aprs"
	TopicStatus     = "dstar-gateway/status"
	TopicLinking    = "dstar-gateway/linking"
	TopicUnlinked   = "dstar-gateway/unlinked"
	TopicFailed     = "dstar-gateway/failed"
	TopicRelinking  = "dstar-gateway/relinking"
)

const publishTimeout = 5 * time.Second

// Publisher is a thin wrapper around a paho client restricted to the
// gateway's publish-only usage.
type Publisher struct {
	client paho.Client
	log    *slog.Logger
}

// New connects to the configured broker. If host is empty, the
// returned Publisher's Publish calls are no-ops (MQTT is optional).
func New(host string, port int, clientID, username, password string, log *slog.Logger) (*Publisher, error) {
	if host == "" {
		return &Publisher{log: log}, nil
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(clientID)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return nil, token.Error()
	}

	return &Publisher{client: client, log: log}, nil
}

// Publish marshals payload as JSON and publishes it to topic at QoS 0.
func (p *Publisher) Publish(topic string, payload any) {
	if p.client == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("failed to marshal MQTT payload", "topic", topic, "error", err)
		return
	}
	token := p.client.Publish(topic, 0, false, body)
	go func() {
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			p.log.Warn("MQTT publish failed", "topic", topic, "error", token.Error())
		}
	}()
}

// Close disconnects the client, if connected.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

// StatusPayload is the JSON document for TopicStatus. Nothing in the
// gateway publishes it on band state changes; it is sent only when a
// caller passes it to Publish.
type StatusPayload struct {
	Repeater string `json:"repeater"`
	Band     string `json:"band"`
	State    string `json:"state"`
}

// LinkEventPayload is the JSON document for TopicLinking/TopicUnlinked/
// TopicFailed/TopicRelinking. The gateway does not publish it on link
// transitions; it is sent only when a caller passes it to Publish.
type LinkEventPayload struct {
	Repeater string `json:"repeater"`
	Band     string `json:"band"`
	Target   string `json:"target"`
	Dialect  string `json:"dialect"`
}
