package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (production-style: event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Topics emitted by the event service.
const (
	TopicEventCreated = "event.created.v1"
	TopicEventDeleted = "event.deleted.v1"
)
