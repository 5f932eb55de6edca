package spotify

import "testing"

func TestMapTrackToDomain(t *testing.T) {
	tests := []struct {
		name        string
		releaseDate string
		withImage   bool
		wantYear    string
		wantCover   string
	}{
		{name: "full date", releaseDate: "2019-08-30", withImage: true, wantYear: "2019", wantCover: "http://img.test/1.jpg"},
		{name: "year precision", releaseDate: "1999", wantYear: "1999"},
		{name: "missing date", releaseDate: "", wantYear: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st spotifyTrack
			st.ID = "abc123"
			st.Name = "Circles"
			st.Album.Name = "Hollywood's Bleeding"
			st.Album.ReleaseDate = tt.releaseDate
			if tt.withImage {
				st.Album.Images = []spotifyImage{{URL: "http://img.test/1.jpg", Height: 640, Width: 640}}
			}

			got := mapTrackToDomain(st)
			if got.ReleaseYear != tt.wantYear {
				t.Errorf("year: got %q, want %q", got.ReleaseYear, tt.wantYear)
			}
			if got.CoverURL != tt.wantCover {
				t.Errorf("cover: got %q, want %q", got.CoverURL, tt.wantCover)
			}
			if got.ID != "abc123" || got.Album != "Hollywood's Bleeding" {
				t.Errorf("unexpected record: %+v", got)
			}
		})
	}
}
