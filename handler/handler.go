// Package handler adapts API Gateway webhook deliveries into repository
// dispatch events. It bridges the conferencing provider's webhooks to the
// workflow run that does the actual posting.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// DispatchEventType names the repository_dispatch event fired for completed
// recordings.
const DispatchEventType = "zoom_recording_completed"

// EventDispatcher forwards an event to the workflow runner.
// *github.Dispatcher satisfies this interface.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, clientPayload any) error
}

// Handler processes incoming webhook deliveries.
type Handler struct {
	dispatcher EventDispatcher
	log        *slog.Logger
}

// NewHandler validates dependencies and constructs a Handler.
func NewHandler(dispatcher EventDispatcher, log *slog.Logger) (*Handler, error) {
	if dispatcher == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{dispatcher: dispatcher, log: log}, nil
}

// webhookEvent is the envelope every delivery shares.
type webhookEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type validationPayload struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

type recordingPayload struct {
	Object struct {
		UUID      string `json:"uuid"`
		Topic     string `json:"topic"`
		Duration  int    `json:"duration"`
		StartTime string `json:"start_time"`
		HostEmail string `json:"host_email"`
	} `json:"object"`
}

type dispatchResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	MeetingUUID string `json:"meeting_uuid,omitempty"`
	Error       string `json:"error,omitempty"`
	Details     string `json:"details,omitempty"`
}

// Handle is the Lambda entrypoint. Every response carries a correlation id,
// either the caller's X-Correlation-Id header or a fresh one.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)
	log := h.log.With("correlation_id", corrID)

	resp := h.route(ctx, event, log)
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers["X-Correlation-Id"] = corrID
	return resp, nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest, log *slog.Logger) events.APIGatewayProxyResponse {
	if event.HTTPMethod == http.MethodOptions {
		return corsResponse()
	}
	if event.HTTPMethod != http.MethodPost {
		return textResponse(http.StatusMethodNotAllowed, "Method Not Allowed")
	}

	var hook webhookEvent
	if err := json.Unmarshal([]byte(event.Body), &hook); err != nil {
		log.Error("failed to parse webhook body", "err", err)
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}

	switch hook.Event {
	case "endpoint.url_validation":
		log.Info("endpoint validation request")
		return h.handleValidation(hook.Payload)
	case "recording.completed":
		log.Info("recording completed event received")
		return h.handleRecordingCompleted(ctx, hook.Payload, log)
	default:
		log.Info("ignoring event", "event", hook.Event)
		return textResponse(http.StatusOK, "Event received but not processed")
	}
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// handleValidation echoes the provider's validation tokens so the endpoint is
// accepted during webhook setup.
func (h *Handler) handleValidation(raw json.RawMessage) events.APIGatewayProxyResponse {
	var payload validationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}
	return jsonResponse(http.StatusOK, payload)
}

func (h *Handler) handleRecordingCompleted(ctx context.Context, raw json.RawMessage, log *slog.Logger) events.APIGatewayProxyResponse {
	var payload recordingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return jsonResponse(http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}

	topic := payload.Object.Topic
	if topic == "" {
		topic = "Untitled Meeting"
	}
	log.Info("dispatching recording",
		"meeting_uuid", payload.Object.UUID,
		"topic", topic,
		"duration_minutes", payload.Object.Duration)

	err := h.dispatcher.Dispatch(ctx, DispatchEventType, map[string]any{
		"meeting_uuid":  payload.Object.UUID,
		"meeting_topic": topic,
		"duration":      payload.Object.Duration,
		"start_time":    payload.Object.StartTime,
		"host_email":    payload.Object.HostEmail,
	})
	if err != nil {
		log.Error("failed to trigger workflow dispatch", "err", err)
		return jsonResponse(http.StatusInternalServerError, dispatchResult{
			Success: false,
			Error:   "Failed to trigger workflow dispatch",
			Details: err.Error(),
		})
	}

	return jsonResponse(http.StatusOK, dispatchResult{
		Success:     true,
		Message:     "Workflow dispatch triggered",
		MeetingUUID: payload.Object.UUID,
	})
}

func textResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

func corsResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
			"Access-Control-Max-Age":       "86400",
		},
	}
}
