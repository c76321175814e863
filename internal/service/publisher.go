package service

// Publisher is the slice of the bus the services need. Satisfied by
// internal/mq.Publisher; tests inject a recording fake.
type Publisher interface {
	Publish(routingKey string, payload any) error
}
