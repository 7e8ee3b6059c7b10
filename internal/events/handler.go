package events

import "context"

// Handler обрабатывает события операций одного типа.
// Ошибка обработчика логируется шиной и не прерывает других подписчиков.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc адаптер для обычных функций.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher сторона шины, от которой зависит transaction.Sender.
type Publisher interface {
	PublishSync(ctx context.Context, event Event) error
}

// Subscription отписка журнала или метрик при закрытии приложения.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id        string
	bus       *Bus
	eventType EventType
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.eventType)
}
