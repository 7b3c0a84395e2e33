package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ppplink"
)

// APIClient talks to a running ppplink daemon over its REST API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(flags APIFlags) *APIClient {
	baseURL := flags.URL
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000/ppp"
	}
	timeout := flags.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Post issues a bodyless POST (run/stop/ack) and surfaces API errors.
func (c *APIClient) Post(path string) error {
	resp, err := c.client.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	fmt.Println("ok")
	return nil
}

// PrintStatus fetches and prints the supervisor snapshot.
func (c *APIClient) PrintStatus() error {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var st ppplink.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return err
	}
	fmt.Printf("state: %s\n", st.State)
	if st.PID != 0 {
		fmt.Printf("pid: %d\n", st.PID)
	}
	if !st.StartedAt.IsZero() {
		fmt.Printf("started: %s\n", st.StartedAt.Format(time.RFC3339))
	}
	if st.LastError != "" {
		fmt.Printf("last error: %s\n", st.LastError)
	}
	return nil
}

// PrintSettings fetches and prints the saved connection settings.
func (c *APIClient) PrintSettings() error {
	resp, err := c.client.Get(c.baseURL + "/settings")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var body struct {
		Settings ppplink.Settings `json:"settings"`
		Warning  string           `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Warning != "" {
		fmt.Printf("warning: %s\n", body.Warning)
	}
	s := body.Settings
	fmt.Printf("device: %s\nbaud rate: %d\nlocal address: %s\nremote address: %s\n",
		s.Device, s.BaudRate, s.LocalAddress, s.RemoteAddress)
	return nil
}

// SaveSettings posts the four connection parameters.
func (c *APIClient) SaveSettings(flags SettingsFlags) error {
	s := ppplink.Settings{
		Device:        flags.Device,
		BaudRate:      flags.BaudRate,
		LocalAddress:  flags.LocalAddress,
		RemoteAddress: flags.RemoteAddress,
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+"/settings", "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var body struct {
		Warning string `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Warning != "" {
		fmt.Printf("warning: %s\n", body.Warning)
	}
	fmt.Println("settings saved")
	return nil
}

// PrintDevices lists the serial ports the daemon can see.
func (c *APIClient) PrintDevices() error {
	resp, err := c.client.Get(c.baseURL + "/devices")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var body struct {
		Devices []string `json:"devices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	for _, d := range body.Devices {
		fmt.Println(d)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", body.Error)
}
