package domain

import "context"

// Adapter is the interface for a chat service backend plugged into the robot.
type Adapter interface {
	Name() string
	// Run blocks until ctx is done, then shuts the adapter down.
	Run(ctx context.Context) error
	ShutDown() error
	SendMessages(ctx context.Context, dest Destination, lines []string) error
	SetTopic(ctx context.Context, dest Destination, topic string) error
}

// DeliveryRecorder observes delivery outcomes (metrics, journal).
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d Delivery)
}
