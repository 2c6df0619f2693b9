package chainage

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"4+100", 4100, false},
		{"362+500", 362500, false},
		{"0+0", 0, false},
		{"250", 250, false},
		{" 12+40 ", 12040, false},
		{"abc", 0, true},
		{"4+abc", 0, true},
		{"4+100+5", 0, true},
		{"-4+100", 0, true},
		{"4+-100", 0, true},
		{"", 0, true},
		{"4.5+100", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate(t *testing.T) {
	start := orb.Point{10.0, 77.0}
	end := orb.Point{11.0, 78.0}

	t.Run("at range start returns start exactly", func(t *testing.T) {
		assert.Equal(t, start, Interpolate(100, 100, 200, start, end))
	})

	t.Run("at or past range end returns end exactly", func(t *testing.T) {
		assert.Equal(t, end, Interpolate(200, 100, 200, start, end))
		assert.Equal(t, end, Interpolate(5000, 100, 200, start, end))
	})

	t.Run("below range start clamps to start", func(t *testing.T) {
		assert.Equal(t, start, Interpolate(0, 100, 200, start, end))
	})

	t.Run("midpoint", func(t *testing.T) {
		got := Interpolate(150, 100, 200, start, end)
		assert.InDelta(t, 10.5, got[0], 1e-9)
		assert.InDelta(t, 77.5, got[1], 1e-9)
	})

	t.Run("degenerate range falls back to start", func(t *testing.T) {
		assert.Equal(t, start, Interpolate(150, 100, 100, start, end))
	})
}

func TestReferenceLine(t *testing.T) {
	start := orb.Point{10.310709, 77.944926}
	end := orb.Point{10.306490, 77.943170}

	line, err := NewReferenceLine("4+100", "362+500", start, end)
	require.NoError(t, err)
	assert.Equal(t, 4100, line.StartM)
	assert.Equal(t, 362500, line.EndM)

	assert.Equal(t, start, line.Locate(4100))
	assert.Equal(t, end, line.Locate(362500))
	assert.Equal(t, start, line.Locate(0))

	_, err = NewReferenceLine("bad", "362+500", start, end)
	require.Error(t, err)
}
