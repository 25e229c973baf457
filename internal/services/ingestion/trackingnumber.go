package ingestion

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

type Rand interface {
	Intn(n int) int
}

// Generator выдаёт номера вида <PREFIX><8 цифр unix ms><3 цифры random>.
// Миллисекундная часть внутри процесса строго растёт, поэтому два номера
// одного генератора никогда не совпадают, даже при одинаковом random.
type Generator struct {
	prefix string
	now    func() time.Time
	rnd    Rand

	mu     sync.Mutex
	lastMs int64
}

func NewGenerator(prefix string) *Generator {
	return NewGeneratorWith(prefix, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewGeneratorWith(prefix string, now func() time.Time, r Rand) *Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "WC"
	}
	return &Generator{prefix: prefix, now: now, rnd: r}
}

func (g *Generator) Prefix() string { return g.prefix }

func (g *Generator) Next() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.lastMs {
		ms = g.lastMs + 1
	}
	g.lastMs = ms
	suffix := g.rnd.Intn(1000)
	g.mu.Unlock()

	return fmt.Sprintf("%s%08d%03d", g.prefix, ms%100_000_000, suffix)
}
