// Package motivation выбирает мотивационную фразу, сопровождающую
// сообщение о результате проверки входа. Набор фраз фиксированный,
// выбор равномерно случайный; источник случайности задаётся снаружи,
// что позволяет детерминированно тестировать выбор.
package motivation

import (
	"math/rand"
	"sync"
)

var phrases = []string{
	"Pěkně si zacvič!",
	"Dnes to zvládneš na jedničku!",
	"Každý dřep se počítá!",
	"Síla roste s každým vstupem!",
	"Tvůj budoucí já ti poděkuje!",
}

// Picker выдаёт случайные мотивационные фразы из фиксированного набора.
// Один экземпляр делят все одновременные проверки входа, поэтому доступ
// к источнику случайности сериализуется мьютексом.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New создаёт Picker с заданным источником случайности.
func New(src rand.Source) *Picker {
	return &Picker{rnd: rand.New(src)}
}

// Text возвращает одну из фраз набора, выбранную равномерно случайно.
func (p *Picker) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return phrases[p.rnd.Intn(len(phrases))]
}

// Phrases возвращает копию полного набора фраз.
func Phrases() []string {
	out := make([]string, len(phrases))
	copy(out, phrases)
	return out
}
