package billing

import (
	"fmt"
	"sync"
)

// numberingLock serializa la autonumeración por (tipo, punto de venta) dentro del proceso.
// Dos solicitudes sin número explícito para la misma clave no pueden leer el mismo
// "último autorizado". No coordina entre réplicas: ese caso termina en un rechazo de AFIP.
type numberingLock struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newNumberingLock() *numberingLock {
	return &numberingLock{locks: make(map[string]*keyLock)}
}

func numberingKey(production bool, tipoCbte, puntoVta int) string {
	env := "homo"
	if production {
		env = "prod"
	}
	return fmt.Sprintf("%s/%d/%d", env, tipoCbte, puntoVta)
}

// Lock bloquea la clave y devuelve la función que la libera.
func (l *numberingLock) Lock(key string) (unlock func()) {
	l.mu.Lock()
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// size cantidad de claves con solicitudes en curso.
func (l *numberingLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
