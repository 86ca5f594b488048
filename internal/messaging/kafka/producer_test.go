package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishTransferEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "1:6000001" {
			t.Errorf("expected partition key 1:6000001, got %s", key)
		}
		return nil
	})

	event := NewTransferEvent(
		EventTypeTransferSucceeded,
		1,
		"6000001",
		map[string]interface{}{
			"document_number": "91202611",
			"line_count":      2,
		},
	)

	if err := producer.PublishTransferEvent(event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewTransferEvent(EventTypeTransferFailed, 1, "6000001", nil)

	if err := producer.PublishEvent(TopicTransferEvents, "6000001", event); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewTransferEvent(t *testing.T) {
	metadata := map[string]interface{}{
		"document_number": "91202611",
	}

	event := NewTransferEvent(EventTypeTransferStarted, 3, "6000001", metadata)

	if event.EventType != EventTypeTransferStarted {
		t.Errorf("expected event type %s, got %s", EventTypeTransferStarted, event.EventType)
	}
	if event.StoreID != 3 {
		t.Errorf("expected store id 3, got %d", event.StoreID)
	}
	if event.OrderID != "6000001" {
		t.Errorf("expected order id 6000001, got %s", event.OrderID)
	}
	if event.Metadata["document_number"] != "91202611" {
		t.Error("metadata not set correctly")
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
