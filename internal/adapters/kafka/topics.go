package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicScreeningEvents carries one event per finished agent run
	TopicScreeningEvents = "ossy.screening.events"
)
