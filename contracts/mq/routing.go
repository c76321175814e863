package mq

// Routing keys on the "events" exchange. Broadcast fan-out works by binding
// several queues to the same key.
const (
	RoutingKeyUserSync      = "user.sync"
	RoutingKeyCourseItemNew = "course.item.new"
)

// Queue names, one per consumer group.
const (
	QueueScrapeCMS   = "user.sync.cms.q"
	QueueScrapeMail  = "user.sync.mail.q"
	QueueTodoistTask = "course.item.todoist.q"
	QueueEmailNotify = "course.item.email.q"
)
