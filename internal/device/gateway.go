//
// Copyright (C) 2023 Alex Mihai
//
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"

	"github.com/AlexMihai1804/autowatering-smart-dashboard-sub003/internal/gatt"
	"github.com/pkg/errors"
)

const maxGatewayBody = 100 * 1024

// GatewayClient is an Exchanger that talks to a BLE gateway's REST bridge.
// The gateway owns the actual radio link and exposes each characteristic
// of a named device as a small JSON resource with a base64 value.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayClient builds a client for one device behind the gateway at
// host.
func NewGatewayClient(host *url.URL, deviceName string, c *http.Client) GatewayClient {
	base := url.URL{
		Scheme: host.Scheme,
		Host:   host.Host,
		Path:   "/api/v1/device/name/" + deviceName + "/characteristic/",
	}
	return GatewayClient{
		baseURL:    base.String(),
		httpClient: c,
	}
}

type gatewayValue struct {
	Value  string `json:"value"`
	Status int8   `json:"status"`
}

func (gc GatewayClient) characteristicURL(id gatt.CharacteristicID) string {
	return gc.baseURL + fmt.Sprintf("0x%02x", uint8(id))
}

// ReadCharacteristic fetches the characteristic's current raw bytes.
func (gc GatewayClient) ReadCharacteristic(ctx context.Context, id gatt.CharacteristicID) ([]byte, error) {
	req, err := http.NewRequest("GET", gc.characteristicURL(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create read request")
	}

	r, err := gc.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, transportErr(err, "read of "+id.String()+" failed")
	}
	defer r.Body.Close()

	if err := checkGatewayStatus(r.StatusCode); err != nil {
		return nil, err
	}

	content, err := ioutil.ReadAll(io.LimitReader(r.Body, maxGatewayBody))
	if err != nil {
		return nil, transportErr(err, "read of "+id.String()+" failed")
	}

	var gv gatewayValue
	if err := json.Unmarshal(content, &gv); err != nil {
		return nil, errors.Wrap(err, "bad gateway read response")
	}
	if gv.Status < 0 {
		return nil, &DeviceError{Code: gv.Status}
	}

	value, err := base64.StdEncoding.DecodeString(gv.Value)
	if err != nil {
		return nil, errors.Wrap(err, "bad gateway read payload")
	}
	return value, nil
}

// WriteCharacteristic pushes raw bytes to the characteristic.
func (gc GatewayClient) WriteCharacteristic(ctx context.Context, id gatt.CharacteristicID, value []byte) error {
	body, err := json.Marshal(gatewayValue{Value: base64.StdEncoding.EncodeToString(value)})
	if err != nil {
		return errors.Wrap(err, "failed to marshal write request")
	}

	req, err := http.NewRequest("PUT", gc.characteristicURL(id), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create write request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	r, err := gc.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return transportErr(err, "write of "+id.String()+" failed")
	}
	defer r.Body.Close()

	if err := checkGatewayStatus(r.StatusCode); err != nil {
		return err
	}

	content, err := ioutil.ReadAll(io.LimitReader(r.Body, maxGatewayBody))
	if err != nil || len(content) == 0 {
		// gateways may answer a bare 200 with no body
		return nil
	}

	var gv gatewayValue
	if err := json.Unmarshal(content, &gv); err != nil {
		return nil
	}
	if gv.Status < 0 {
		return &DeviceError{Code: gv.Status}
	}
	return nil
}

// checkGatewayStatus maps HTTP status codes onto the error taxonomy:
// server-side trouble is transient transport failure, anything else is a
// caller bug and not worth retrying.
func checkGatewayStatus(code int) error {
	switch {
	case 200 <= code && code < 300:
		return nil
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout:
		return &TransportError{Kind: Timeout, Err: errors.Errorf("gateway status %d", code)}
	case code >= 500:
		return &TransportError{Kind: Disconnected, Err: errors.Errorf("gateway status %d", code)}
	default:
		return errors.Errorf("unexpected gateway status %d", code)
	}
}

func transportErr(err error, msg string) error {
	kind := Disconnected
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		kind = Timeout
	}
	return &TransportError{Kind: kind, Err: errors.Wrap(err, msg)}
}
