package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/pkg/serrors"
)

// EventBus delivers published arguments to every subscribed func whose
// parameter list matches them.
type EventBus interface {
	Publish(args ...any)
	PublishE(args ...any) error
	Subscribe(handler any)
	Unsubscribe(handler any)
	Clear()
	SubscribersCount() int
}

var (
	ErrNoSubscribers        = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no matching subscribers", "")
	ErrInvalidHandlerReturn = serrors.NewError("EVENTBUS_INVALID_HANDLER_RETURN", "invalid handler return signature", "")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type bus struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers []reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &bus{log: log}
}

func MatchSignature(handler any, args []any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != len(args) {
		return false
	}
	for i, arg := range args {
		paramType := t.In(i)
		if arg == nil {
			if paramType.Kind() != reflect.Interface && paramType.Kind() != reflect.Ptr {
				return false
			}
			continue
		}
		if !reflect.TypeOf(arg).AssignableTo(paramType) {
			return false
		}
	}
	return true
}

func (b *bus) matching(args []any) []reflect.Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []reflect.Value
	for _, h := range b.handlers {
		if MatchSignature(h.Interface(), args) {
			out = append(out, h)
		}
	}
	return out
}

func callArgs(fn reflect.Value, args []any) []reflect.Value {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(fn.Type().In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	return in
}

// invoke calls fn and converts panics and error returns into an error.
func invoke(fn reflect.Value, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("eventbus: handler %s panicked: %v", fn.Type(), r)
		}
	}()

	out := fn.Call(callArgs(fn, args))
	switch {
	case len(out) == 0:
		return nil
	case len(out) > 1:
		return fmt.Errorf("%w: handler %s returned %d values", ErrInvalidHandlerReturn, fn.Type(), len(out))
	case out[0].Type() != errorType:
		return fmt.Errorf("%w: handler %s return type is %s", ErrInvalidHandlerReturn, fn.Type(), out[0].Type())
	case out[0].IsNil():
		return nil
	default:
		return out[0].Interface().(error)
	}
}

// Publish is fire-and-forget: failures are logged, never returned.
func (b *bus) Publish(args ...any) {
	handlers := b.matching(args)
	if len(handlers) == 0 {
		if b.log != nil {
			b.log.Warnf("eventbus.Publish: no matching subscribers for event with args: %v", args)
		}
		return
	}
	for _, h := range handlers {
		if err := invoke(h, args); err != nil && b.log != nil {
			b.log.WithError(err).Errorf("eventbus: handler %s failed", h.Type())
		}
	}
}

// PublishE runs every matching handler and joins their errors.
func (b *bus) PublishE(args ...any) error {
	handlers := b.matching(args)
	if len(handlers) == 0 {
		return ErrNoSubscribers
	}
	var errs []error
	for _, h := range handlers {
		if err := invoke(h, args); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *bus) Subscribe(handler any) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, v)
	b.mu.Unlock()
}

func (b *bus) Unsubscribe(handler any) {
	target := reflect.ValueOf(handler)
	if target.Kind() != reflect.Func {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.Pointer() == target.Pointer() {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

func (b *bus) Clear() {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
}

func (b *bus) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
