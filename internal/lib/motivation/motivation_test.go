package motivation

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_ReturnsPhraseFromSet(t *testing.T) {
	p := New(rand.NewSource(1))
	set := Phrases()

	for range 100 {
		assert.Contains(t, set, p.Text())
	}
}

func TestText_DeterministicWithSeed(t *testing.T) {
	first := New(rand.NewSource(42))
	second := New(rand.NewSource(42))

	for range 20 {
		assert.Equal(t, first.Text(), second.Text())
	}
}

func TestPhrases_ReturnsCopy(t *testing.T) {
	set := Phrases()
	set[0] = "changed"

	assert.NotEqual(t, set[0], Phrases()[0])
}

func TestText_SafeForConcurrentUse(t *testing.T) {
	p := New(rand.NewSource(7))
	set := Phrases()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Contains(t, set, p.Text())
			}
		}()
	}
	wg.Wait()
}
