package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultFCMEndpoint is the FCM legacy HTTP send endpoint
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMClient sends notifications through the FCM legacy HTTP API. A transport
// or HTTP-level failure is returned as an error; per-token delivery failures
// come back inside the response body and are mapped to SendResult entries.
type FCMClient struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

// NewFCMClient returns a client for the given server key. An empty endpoint
// selects the production FCM endpoint.
func NewFCMClient(serverKey, endpoint string) *FCMClient {
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	return &FCMClient{
		serverKey: serverKey,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Sound string `json:"sound,omitempty"`
}

type fcmRequest struct {
	To               string            `json:"to,omitempty"`
	RegistrationIDs  []string          `json:"registration_ids,omitempty"`
	Notification     *fcmNotification  `json:"notification,omitempty"`
	Data             map[string]string `json:"data,omitempty"`
	Priority         string            `json:"priority,omitempty"`
	ContentAvailable bool              `json:"content_available,omitempty"`
}

type fcmResult struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

type fcmResponse struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Results []fcmResult `json:"results"`
	// topic sends report at the top level instead of in results
	MessageID int64  `json:"message_id"`
	Error     string `json:"error"`
}

// SendMulticast delivers one notification to up to the provider's batch limit
// of tokens in a single call
func (c *FCMClient) SendMulticast(ctx context.Context, tokens []string, note Notification, data map[string]string, opts Options) (*MulticastResult, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("fcm: no tokens supplied")
	}

	resp, err := c.post(ctx, fcmRequest{
		RegistrationIDs:  tokens,
		Notification:     buildFCMNotification(note, opts),
		Data:             data,
		Priority:         opts.Priority,
		ContentAvailable: opts.ContentAvailable,
	})
	if err != nil {
		return nil, err
	}

	out := &MulticastResult{
		SuccessCount: resp.Success,
		FailureCount: resp.Failure,
		Responses:    make([]SendResult, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Responses = append(out.Responses, SendResult{
			Success:   r.Error == "",
			ErrorCode: r.Error,
		})
	}
	return out, nil
}

// SendSingle delivers one notification to one token
func (c *FCMClient) SendSingle(ctx context.Context, token string, note Notification, data map[string]string, opts Options) error {
	resp, err := c.post(ctx, fcmRequest{
		To:               token,
		Notification:     buildFCMNotification(note, opts),
		Data:             data,
		Priority:         opts.Priority,
		ContentAvailable: opts.ContentAvailable,
	})
	if err != nil {
		return err
	}
	if len(resp.Results) > 0 && resp.Results[0].Error != "" {
		return &SendError{Code: resp.Results[0].Error}
	}
	return nil
}

// SendToTopic delivers one notification to every subscriber of a topic
func (c *FCMClient) SendToTopic(ctx context.Context, topic string, note Notification, data map[string]string, opts Options) error {
	resp, err := c.post(ctx, fcmRequest{
		To:               "/topics/" + topic,
		Notification:     buildFCMNotification(note, opts),
		Data:             data,
		Priority:         opts.Priority,
		ContentAvailable: opts.ContentAvailable,
	})
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return &SendError{Code: resp.Error}
	}
	return nil
}

func buildFCMNotification(note Notification, opts Options) *fcmNotification {
	return &fcmNotification{
		Title: note.Title,
		Body:  note.Body,
		Sound: opts.Sound,
	}
}

func (c *FCMClient) post(ctx context.Context, reqBody fcmRequest) (*fcmResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("fcm: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fcm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fcm: failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fcm: received status %d", resp.StatusCode)
	}

	var fcmResp fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&fcmResp); err != nil {
		return nil, fmt.Errorf("fcm: failed to decode response: %w", err)
	}
	return &fcmResp, nil
}
