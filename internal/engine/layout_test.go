package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

func TestRowLayout_WrapsAtThreshold(t *testing.T) {
	l := RowLayout{Threshold: 8}

	for _, p := range l.Place(7, -1, false) {
		assert.Equal(t, 0, p.Row)
	}

	got := l.Place(9, -1, false)
	require.Len(t, got, 9)
	rows := map[int]int{}
	for _, p := range got {
		rows[p.Row]++
	}
	assert.Equal(t, map[int]int{0: 5, 1: 4}, rows)
	assert.Empty(t, l.Place(0, -1, false))
}

func TestFanLayout_CentersAndSpreadsAroundActive(t *testing.T) {
	l := DefaultFanLayout()

	got := l.Place(3, -1, false)
	// total width 2*60+120 = 240, so the fan starts at -120
	assert.Equal(t, []Placement{{Offset: -120, Z: 1}, {Offset: -60, Z: 2}, {Offset: 0, Z: 3}}, got)

	got = l.Place(3, 1, false)
	assert.Equal(t, []Placement{{Offset: -150, Z: 1}, {Offset: -60, Z: activeZ}, {Offset: 30, Z: 3}}, got)

	got = l.Place(2, -1, true)
	// compact: 40+80 = 120
	assert.Equal(t, []Placement{{Offset: -60, Z: 1}, {Offset: -20, Z: 2}}, got)

	assert.Nil(t, l.Place(0, -1, false))
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("fan")
	require.NoError(t, err)
	assert.Equal(t, "fan", l.Name())

	l, err = LayoutByName("")
	require.NoError(t, err)
	assert.Equal(t, "rows", l.Name())

	_, err = LayoutByName("spiral")
	assert.Error(t, err)
}

func TestCardDisplay(t *testing.T) {
	tests := []struct {
		card types.Card
		want string
	}{
		{types.Card{Type: types.CategoryLength, Value: "7", Display: "7"}, "7+"},
		{types.Card{Type: types.CategoryLength, Value: "3", Display: "3"}, "3"},
		{types.Card{Type: types.CategoryRow, Value: "かきくけこ", Display: "か行"}, "か行"},
		{types.Card{Type: types.CategoryChar, Value: "ん"}, "ん"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CardDisplay(tt.card))
	}
}
