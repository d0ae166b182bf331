package chat

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return NewEngine(rand.New(rand.NewSource(1)))
}

func TestReplyMatchesTopic(t *testing.T) {
	e := newTestEngine()

	assert.Contains(t, strings.ToLower(e.Reply("tell me about dengue")), "dengue")
	assert.Contains(t, strings.ToLower(e.Reply("is corona still around")), "covid")
	assert.Contains(t, strings.ToLower(e.Reply("hello")), "hello")
}

func TestReplyFirstTopicWins(t *testing.T) {
	e := newTestEngine()
	// dengue is ordered before covid
	assert.Contains(t, strings.ToLower(e.Reply("dengue vs covid")), "dengue")
}

func TestReplyDefaultFallback(t *testing.T) {
	e := newTestEngine()

	reply := e.Reply("what's your favourite colour")
	assert.NotEmpty(t, reply)
	assert.Contains(t, reply, "ask")
}
