package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveForcedModes(t *testing.T) {
	t.Parallel()

	p := Builtin(PaletteClassic)

	t.Run("forced light ignores dark signal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, p.Light, Resolve(p, ModeLight, true))
		assert.Equal(t, p.Light, Resolve(p, ModeLight, false))
	})

	t.Run("forced dark ignores dark signal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, p.Dark, Resolve(p, ModeDark, false))
	})

	t.Run("auto follows dark signal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, p.Dark, Resolve(p, ModeAuto, true))
		assert.Equal(t, p.Light, Resolve(p, ModeAuto, false))
	})
}

func TestAutoDark(t *testing.T) {
	t.Parallel()

	t.Run("valid snapshot reporting night is dark", func(t *testing.T) {
		t.Parallel()
		assert.True(t, AutoDark(true, false, 12))
	})

	t.Run("valid snapshot reporting day is light", func(t *testing.T) {
		t.Parallel()
		assert.False(t, AutoDark(true, true, 23))
	})

	t.Run("invalid snapshot falls back to fixed window", func(t *testing.T) {
		t.Parallel()
		assert.True(t, AutoDark(false, true, 23))
		assert.True(t, AutoDark(false, true, 3))
		assert.False(t, AutoDark(false, false, 12))
		assert.False(t, AutoDark(false, false, 7))
		assert.True(t, AutoDark(false, false, 22))
	})
}

func TestBuiltinBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Classic", Builtin(PaletteClassic).Name)
	assert.Equal(t, "Minecraft", Builtin(PaletteMinecraft).Name)
	// custom and out-of-range indices fall back to Classic
	assert.Equal(t, "Classic", Builtin(PaletteCustom).Name)
	assert.Equal(t, "Classic", Builtin(-1).Name)

	assert.True(t, IsBuiltin(PaletteClassic))
	assert.True(t, IsBuiltin(PaletteMinecraft))
	assert.False(t, IsBuiltin(PaletteCustom))
}
