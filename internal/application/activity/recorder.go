// Package activity registra el log de actividad de usuario como efecto secundario best-effort.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/pkg/logger"
)

// Sink destino del log de actividad (tabla user_logs en PostgreSQL).
type Sink interface {
	Log(ctx context.Context, actorID, message, sourceAddress string) error
}

// DefaultTimeout tiempo máximo de una escritura al sink.
const DefaultTimeout = 3 * time.Second

// Recorder envía entradas al sink en segundo plano. Un fallo del sink se registra y se descarta:
// nunca revierte ni bloquea la operación que lo originó.
type Recorder struct {
	sink    Sink
	log     *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRecorder construye el recorder. sink puede ser nil (no registra nada).
func NewRecorder(sink Sink, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{sink: sink, log: log.Component("activity"), timeout: DefaultTimeout}
}

// Record encola una entrada. Llamar solo después del commit de la operación.
// No recibe el contexto del request: fasthttp recicla el RequestCtx al terminar el
// handler, así que la escritura parte de context.Background con su propio timeout.
func (r *Recorder) Record(actor entity.Actor, format string, args ...any) {
	if r == nil || r.sink == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.Log(ctx, actor.UserID, msg, actor.Address); err != nil {
			r.log.Warn().Err(err).Str("actor", actor.UserID).Msg("no se pudo registrar la actividad")
		}
	}()
}

// Wait espera a que terminen las escrituras pendientes (shutdown y tests).
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
