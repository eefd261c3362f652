package submission

import (
	"fmt"
	"time"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// StatusEmitter recibe mensajes de progreso, de forma síncrona y en orden de ejecución.
type StatusEmitter interface {
	Emit(message string)
}

// StatusSink destino del llamador para los eventos ya numerados (log de UI, SSE, consola).
type StatusSink interface {
	Publish(event entity.StatusEvent)
}

// SinkFunc adapta una función a StatusSink.
type SinkFunc func(event entity.StatusEvent)

// Publish implementa StatusSink.
func (f SinkFunc) Publish(event entity.StatusEvent) { f(event) }

// EventLog StatusEmitter de una ejecución: numera, sella la hora, guarda y reenvía al sink.
// No es seguro para uso concurrente; una ejecución es una sola línea de control.
type EventLog struct {
	sink   StatusSink
	now    func() time.Time
	events []entity.StatusEvent
}

// NewEventLog construye el registro. sink puede ser nil.
func NewEventLog(sink StatusSink, now func() time.Time) *EventLog {
	if now == nil {
		now = time.Now
	}
	return &EventLog{sink: sink, now: now}
}

// Emit agrega el evento con la siguiente secuencia y lo publica de inmediato.
func (l *EventLog) Emit(message string) {
	ev := entity.StatusEvent{
		Sequence:  len(l.events) + 1,
		Message:   message,
		Timestamp: l.now(),
	}
	l.events = append(l.events, ev)
	if l.sink != nil {
		l.sink.Publish(ev)
	}
}

// Events copia de los eventos emitidos hasta ahora.
func (l *EventLog) Events() []entity.StatusEvent {
	out := make([]entity.StatusEvent, len(l.events))
	copy(out, l.events)
	return out
}

func emitf(e StatusEmitter, format string, args ...any) {
	e.Emit(fmt.Sprintf(format, args...))
}
