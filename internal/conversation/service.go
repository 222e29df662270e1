package conversation

import (
	"context"
)

// MessageRequest is one inbound user message from any channel.
type MessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// Response is the assistant's reply to a single message.
type Response struct {
	Text string `json:"text"`
}

// Service is the conversational booking surface the channels talk to.
type Service interface {
	HandleMessage(ctx context.Context, req MessageRequest) (Response, error)
}
