package worker

// HandlerRegistrar subscribes notification handlers to domain events.
type HandlerRegistrar interface {
	RegisterHandlers()
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifications HandlerRegistrar) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}
