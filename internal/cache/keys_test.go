package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey_Deterministic(t *testing.T) {
	ns := Namespace("tickets")
	a := GenerateKey(ns, OpList, map[string]any{"page": 1, "limit": 10, "scope": "u-1"})
	b := GenerateKey(ns, OpList, map[string]any{"scope": "u-1", "limit": 10, "page": 1})

	assert.Equal(t, a, b)
	assert.Equal(t, "ems:tickets:list:limit=10:page=1:scope=u-1", a)
}

func TestGenerateKey_DistinguishesParams(t *testing.T) {
	ns := Namespace("hardware")
	assert.NotEqual(t,
		GenerateKey(ns, OpList, map[string]any{"page": 1, "scope": ""}),
		GenerateKey(ns, OpList, map[string]any{"page": 1, "scope": "u-2"}),
	)
	assert.Equal(t, "ems:hardware:detail:id=abc", DetailKey(ns, "abc"))
	assert.Equal(t, "ems:hardware:list:*", ListPattern(ns))
}
