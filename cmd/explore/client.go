package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/Comcast/pathways/core"

	"golang.org/x/net/publicsuffix"
)

// Client talks to a reader service.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient makes a Client with a cookie jar, so the service's
// session cookie sticks.
func NewClient(base string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Client{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// ServiceError is an error reported by the service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(req *http.Request) (*core.Result, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var msg struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &msg); err != nil || msg.Error == "" {
			msg.Error = strings.TrimSpace(string(body))
		}
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    msg.Error,
		}
	}

	var res core.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Start loads the exploration.  With no id, the service picks a
// random public one.
func (c *Client) Start(ctx context.Context, explorationId string) (*core.Result, error) {
	u := c.Base + "/random"
	if explorationId != "" {
		u = c.Base + "/explore/" + url.PathEscape(explorationId)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Transition submits an answer to the state in the given Result.
func (c *Client) Transition(ctx context.Context, at *core.Result, answer interface{}) (*core.Result, error) {
	payload := map[string]interface{}{
		"block_number": at.BlockNumber,
		"params":       at.Params,
		"answer":       answer,
	}
	js, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	u := c.Base + "/explore/" + url.PathEscape(at.ExplorationId) + "/" + url.PathEscape(at.StateId)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(js))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// ParseAnswer reads a line of input as JSON if it can.  Otherwise the
// line is a string.
func ParseAnswer(line string) interface{} {
	line = strings.TrimSpace(line)
	var x interface{}
	if err := json.Unmarshal([]byte(line), &x); err == nil {
		return x
	}
	return line
}
