// Package catalog supplies the content both games draw from: spectrum
// cards for the guessing game and song decks for the timeline game.
// Sources are interfaces so production can back them with an external
// music catalog while tests and the default server use the in-memory
// seed data.
package catalog

// Spectrum is one left/right axis card.
type Spectrum struct {
	ID         string `json:"id"`
	LeftLabel  string `json:"leftLabel"`
	RightLabel string `json:"rightLabel"`
	Category   string `json:"category"`
}

// Song is one playable timeline card.
type Song struct {
	ID          string `json:"id"`
	DeckID      string `json:"deckId"`
	Name        string `json:"name"`
	ArtistName  string `json:"artistName"`
	AlbumName   string `json:"albumName"`
	ReleaseYear int    `json:"releaseYear"`
	PreviewURL  string `json:"previewUrl"`
	CoverURL    string `json:"coverUrl"`
}

// Deck groups songs, typically one processed playlist.
type Deck struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
	IsPublic  bool   `json:"isPublic"`
}

// SpectrumSource yields the active spectrum cards.
type SpectrumSource interface {
	Spectrums() []Spectrum
}

// SongSource yields decks and their songs, loaded in bulk before a
// timeline game starts.
type SongSource interface {
	Decks() []Deck
	Songs(deckIDs ...string) ([]Song, error)
	Song(id string) (Song, bool)
}
