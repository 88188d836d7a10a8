package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCoordRegion(t *testing.T) {
	valid := [][2]int{{6, 9}, {2, 3}, {5, 0}, {9, 0}, {10, 2}, {13, 5}, {14, 6}, {14, 8}, {7, 7}, {0, 5}}
	for _, xy := range valid {
		_, err := NewCoord(xy[0], xy[1])
		require.NoError(t, err, "expected %v on the board", xy)
	}
	invalid := [][2]int{{0, 0}, {4, 0}, {10, 0}, {14, 4}, {14, 10}, {-1, 7}, {7, -1}, {15, 7}, {7, 15}}
	for _, xy := range invalid {
		_, err := NewCoord(xy[0], xy[1])
		require.ErrorIs(t, err, ErrInvalidPosition, "expected %v off the board", xy)
	}
}

func TestNewCoordMatchesInequalities(t *testing.T) {
	count := 0
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			want := x+y >= 5 && x+y <= 23 && 15-x+y >= 6 && 15+x-y >= 6
			_, err := NewCoord(x, y)
			require.Equal(t, want, err == nil, "(%d,%d)", x, y)
			if want {
				count++
			}
		}
	}
	require.Equal(t, count, len(AllCoords()))
	require.Equal(t, 165, count)
}

func TestNewCoordOneBased(t *testing.T) {
	c, err := NewCoordOneBased(8, 8)
	require.NoError(t, err)
	require.Equal(t, MustCoord(7, 7), c)

	_, err = NewCoordOneBased(1, 1)
	require.ErrorIs(t, err, ErrInvalidPosition)
	_, err = NewCoordOneBased(0, 8)
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestMustCoordPanicsOffBoard(t *testing.T) {
	require.Panics(t, func() { MustCoord(0, 0) })
}

func TestMaxAxisDistance(t *testing.T) {
	cases := []struct {
		a, b [2]int
		want int
	}{
		{[2]int{7, 7}, [2]int{8, 8}, 1},
		{[2]int{8, 8}, [2]int{7, 7}, 1},
		{[2]int{7, 8}, [2]int{8, 8}, 1},
		{[2]int{7, 7}, [2]int{9, 8}, 2},
		{[2]int{7, 7}, [2]int{10, 7}, 3},
		{[2]int{7, 7}, [2]int{10, 10}, 3},
		{[2]int{7, 7}, [2]int{12, 7}, 5},
	}
	for _, tc := range cases {
		a, b := MustCoord(tc.a[0], tc.a[1]), MustCoord(tc.b[0], tc.b[1])
		require.Equal(t, tc.want, a.MaxAxisDistance(b), "%s to %s", a, b)
	}
}

func TestCoordJSON(t *testing.T) {
	data, err := json.Marshal(MustCoord(5, 0))
	require.NoError(t, err)
	require.JSONEq(t, `{"x":5,"y":0}`, string(data))

	var c Coord
	require.NoError(t, json.Unmarshal([]byte(`{"x":14,"y":8}`), &c))
	require.Equal(t, MustCoord(14, 8), c)

	err = json.Unmarshal([]byte(`{"x":0,"y":0}`), &c)
	require.True(t, errors.Is(err, ErrInvalidPosition), "got %v", err)
}

func TestZeroCoordAddressesNothing(t *testing.T) {
	var zero Coord
	require.False(t, zero.Valid())
	require.True(t, MustCoord(7, 7).Valid())
	require.NotEqual(t, zero, MustCoord(5, 0))

	_, err := Up.Step(zero)
	require.ErrorIs(t, err, ErrInvalidPosition)
	_, err = DirectionFromRoute(MustCoord(5, 0), zero)
	require.ErrorIs(t, err, ErrInvalidPosition)

	data, err := json.Marshal(zero)
	require.NoError(t, err)
	require.Equal(t, "null", string(data))
	var back Coord
	require.ErrorIs(t, json.Unmarshal([]byte(`null`), &back), ErrInvalidPosition)
}
