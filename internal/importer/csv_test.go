package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `,track_id,track_name,artist_name,energy,valence,ignored
0,a1,Circles,Post Malone,0.76,0.55,x
1,,Orphan,,0.1,,x
5,c3,Sunflower,Post Malone,0.5,0.9,x
`
	got, err := ReadCSV(strings.NewReader(input), []string{"energy", "valence", "tempo"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, 0, got[0].Index)
	require.Equal(t, "a1", got[0].TrackID)
	require.Equal(t, "Circles", got[0].Name)
	require.Equal(t, "Post Malone", got[0].Artist)
	require.Equal(t, map[string]float64{"energy": 0.76, "valence": 0.55}, got[0].Features)

	require.False(t, got[1].HasTrackID())
	require.Equal(t, map[string]float64{"energy": 0.1}, got[1].Features)

	require.Equal(t, 5, got[2].Index)
}

func TestReadCSV_WithoutIndexColumn(t *testing.T) {
	input := "track_id,track_name,energy\na,One,0.1\nb,Two,0.2\n"

	got, err := ReadCSV(strings.NewReader(input), []string{"energy"})
	require.NoError(t, err)
	require.Equal(t, 0, got[0].Index)
	require.Equal(t, 1, got[1].Index)
	require.Empty(t, got[0].Artist)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "no track id", input: "track_name,energy\nOne,0.1\n"},
		{name: "no track name", input: "track_id,energy\na,0.1\n"},
		{name: "bad feature", input: "track_id,track_name,energy\na,One,loud\n"},
		{name: "bad index", input: "index,track_id,track_name\nx,a,One\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), []string{"energy"})
			require.Error(t, err)
		})
	}
}
