package idgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
)

func TestSequential(t *testing.T) {
	gen := idgen.NewSequential("evt")
	assert.Equal(t, "evt_1", gen.Generate())
	assert.Equal(t, "evt_2", gen.Generate())

	bare := idgen.NewSequential("")
	assert.Equal(t, "1", bare.Generate())
}

func TestUUID(t *testing.T) {
	gen := idgen.NewUUID("evt")
	first := gen.Generate()
	second := gen.Generate()

	assert.True(t, strings.HasPrefix(first, "evt_"))
	assert.Len(t, first, len("evt_")+32)
	assert.NotContains(t, strings.TrimPrefix(first, "evt_"), "-")
	assert.NotEqual(t, first, second)
}

func TestFunc(t *testing.T) {
	var gen idgen.Generator = idgen.Func(func() string { return "fixed" })
	assert.Equal(t, "fixed", gen.Generate())
}
