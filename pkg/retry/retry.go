// Package retry ofrece una política de reintentos acotada para operaciones
// transaccionales que pueden abortar por condiciones transitorias (deadlocks).
package retry

import (
	"context"
	"time"
)

// BackoffFunc devuelve la espera antes del siguiente intento; attempt empieza en 1
// (espera tras el primer fallo).
type BackoffFunc func(attempt int) time.Duration

// Linear espera attempt*base: 100ms, 200ms, 300ms... para base=100ms.
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Policy define cuántas veces se ejecuta una operación y cuánto esperar entre intentos.
type Policy struct {
	MaxAttempts int // intentos totales, incluido el primero
	Backoff     BackoffFunc
	// OnRetry se invoca antes de esperar, con el número de intento fallido y su error.
	OnRetry func(attempt int, err error)
}

// Do ejecuta fn hasta que devuelva nil, un error no reintentable, o se agoten los intentos.
// Devuelve el último error observado. La espera se interrumpe si ctx se cancela.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || retryable == nil || !retryable(err) {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Backoff == nil {
			continue
		}
		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
