package kafkax

// Topics shared by the producing site-service and the notification-service.
// The outbox event type doubles as the topic name.
const (
	TopicAppointmentBooked = "appointment.booked.v1"
	TopicAppointmentStatus = "appointment.status_changed.v1"
)
