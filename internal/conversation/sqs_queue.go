package conversation

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// sqsAPI is the subset of the SQS client the queue depends on. *sqs.Client
// implements it; tests substitute a stub.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue adapts AWS SQS (or a LocalStack endpoint in development) to the
// queueClient seam. Turns that are never deleted reappear after the
// visibility timeout, so a crashed worker loses no messages.
type SQSQueue struct {
	api sqsAPI
	url string
}

// NewSQSQueue wraps an SQS client for the given queue URL.
func NewSQSQueue(api sqsAPI, queueURL string) *SQSQueue {
	if api == nil || queueURL == "" {
		panic("conversation: SQSQueue requires a client and a queue URL")
	}
	return &SQSQueue{api: api, url: queueURL}
}

// Send publishes one payload to the queue.
func (q *SQSQueue) Send(ctx context.Context, body string) error {
	_, err := q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("conversation: sqs send: %w", err)
	}
	return nil
}

// Receive long-polls for a batch of messages. The requested batch size and
// wait time are clamped to what the SQS API accepts.
func (q *SQSQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	} else if maxMessages > maxReceiveBatchMessages {
		maxMessages = maxReceiveBatchMessages
	}
	if waitSeconds < 0 {
		waitSeconds = 0
	} else if waitSeconds > maxReceiveWaitSeconds {
		waitSeconds = maxReceiveWaitSeconds
	}

	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: sqs receive: %w", err)
	}

	batch := make([]queueMessage, len(out.Messages))
	for i, m := range out.Messages {
		batch[i] = queueMessage{
			ID:            aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		}
	}
	return batch, nil
}

// Delete acknowledges a delivered message. A message without a receipt
// handle has nothing to acknowledge.
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return nil
	}
	if _, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	}); err != nil {
		return fmt.Errorf("conversation: sqs delete: %w", err)
	}
	return nil
}
