package memory

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// IDGenerator выдаёт строго возрастающие идентификаторы одного типа сущности.
// Безопасен для конкурентного вызова.
type IDGenerator[I domain.ID] struct {
	last atomic.Uint32
}

// NewIDGenerator создаёт генератор, первый выданный идентификатор которого равен 1.
func NewIDGenerator[I domain.ID]() *IDGenerator[I] {
	return &IDGenerator[I]{}
}

// ResumeIDGenerator продолжает нумерацию после last (например, после максимального
// идентификатора в начальных данных).
func ResumeIDGenerator[I domain.ID](last I) *IDGenerator[I] {
	g := &IDGenerator[I]{}
	g.last.Store(uint32(last))
	return g
}

// Next возвращает следующий идентификатор. При переполнении счётчика паникует.
func (g *IDGenerator[I]) Next() I {
	for {
		current := g.last.Load()
		if current == math.MaxUint32 {
			panic(fmt.Sprintf("identifier space exhausted after %d", current))
		}
		if g.last.CompareAndSwap(current, current+1) {
			return I(current + 1)
		}
	}
}

// Last возвращает последний выданный идентификатор (0, если ещё не выдавался).
func (g *IDGenerator[I]) Last() I {
	return I(g.last.Load())
}
