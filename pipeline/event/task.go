package event

import "context"

// task is one unit of asynchronous delivery: an event, the subscriber's
// handler, and its error routing.
type task[T Event] struct {
	ctx          context.Context
	event        T
	handler      Handler[T]
	errorHandler ErrorHandler[T]
}
