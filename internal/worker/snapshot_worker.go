package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"antrelay/internal/model"
)

// ObjectStore is the subset of the object-storage client the worker needs.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string, metadata map[string]string) error
}

// SnapshotWorker consumes turn events and archives each one as a JSON
// object under snapshots/<session>/.
type SnapshotWorker struct {
	conn      *amqp.Connection
	store     ObjectStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSnapshotWorker(conn *amqp.Connection, store ObjectStore, queueName string) *SnapshotWorker {
	return &SnapshotWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *SnapshotWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("snapshot worker: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// handle archives one turn event. Split out of the consume loop so it can
// be exercised without a broker.
func (w *SnapshotWorker) handle(ctx context.Context, body []byte) error {
	var event model.TurnEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode turn event failed: %w", err)
	}
	if event.SessionIdentifier == "" {
		return fmt.Errorf("turn event without session identifier")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	name := fmt.Sprintf("snapshots/%s/%d.json", event.SessionIdentifier, event.CreatedAt.UnixNano())
	if err := w.store.Put(ctx, name, payload, "application/json", nil); err != nil {
		return fmt.Errorf("store snapshot failed: %w", err)
	}
	return nil
}

func (w *SnapshotWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
