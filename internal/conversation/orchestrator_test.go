package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/hadasqueen/booking-assistant/pkg/logging"
)

func TestOrchestratorHandleMessage(t *testing.T) {
	service := &fakeProcessor{resp: Response{Text: "hola Marta"}}
	queue := NewMemoryQueue(8)

	o := NewOrchestrator(
		service,
		queue,
		logging.Default(),
		WithWorkerCount(1),
		WithReceiveBatchSize(1),
		WithReceiveWaitSeconds(0),
	)
	t.Cleanup(func() {
		_ = o.Shutdown(context.Background())
	})

	req := MessageRequest{SenderID: "whatsapp:+3466600001", Text: "hola"}
	resp, err := o.HandleMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if resp.Text != "hola Marta" {
		t.Fatalf("expected processed reply, got %q", resp.Text)
	}
	if service.lastReq.SenderID != req.SenderID {
		t.Fatalf("expected sender %s, got %s", req.SenderID, service.lastReq.SenderID)
	}
}

func TestOrchestratorContextCancellation(t *testing.T) {
	block := make(chan struct{})
	service := &blockingProcessor{block: block}
	queue := NewMemoryQueue(8)

	o := NewOrchestrator(
		service,
		queue,
		logging.Default(),
		WithWorkerCount(1),
		WithReceiveBatchSize(1),
		WithReceiveWaitSeconds(0),
	)
	t.Cleanup(func() {
		_ = o.Shutdown(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := o.HandleMessage(ctx, MessageRequest{SenderID: "first", Text: "hola"}); err != context.DeadlineExceeded {
		t.Fatalf("expected context deadline exceeded, got %v", err)
	}

	close(block)
}

func TestOrchestratorShutdownStopsWorkers(t *testing.T) {
	service := &fakeProcessor{resp: Response{Text: "ok"}}
	queue := NewMemoryQueue(8)

	o := NewOrchestrator(service, queue, logging.Default(), WithWorkerCount(2), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

type fakeProcessor struct {
	resp    Response
	lastReq MessageRequest
}

func (f *fakeProcessor) HandleMessage(_ context.Context, req MessageRequest) (Response, error) {
	f.lastReq = req
	return f.resp, nil
}

type blockingProcessor struct {
	block chan struct{}
}

func (b *blockingProcessor) HandleMessage(ctx context.Context, _ MessageRequest) (Response, error) {
	select {
	case <-b.block:
	case <-ctx.Done():
	}
	return Response{Text: "late"}, nil
}
