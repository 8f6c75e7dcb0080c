package catalog

import "fmt"

// MemorySource is the built-in catalog used by the default server and
// the tests. Content is fixed at construction; reads are lock-free.
type MemorySource struct {
	spectrums []Spectrum
	decks     []Deck
	songs     map[string]Song
	byDeck    map[string][]Song
}

// NewMemorySource builds a source from explicit content.
func NewMemorySource(spectrums []Spectrum, decks []Deck, songs []Song) *MemorySource {
	s := &MemorySource{
		spectrums: spectrums,
		decks:     decks,
		songs:     make(map[string]Song, len(songs)),
		byDeck:    make(map[string][]Song),
	}
	for _, song := range songs {
		s.songs[song.ID] = song
		s.byDeck[song.DeckID] = append(s.byDeck[song.DeckID], song)
	}
	return s
}

// NewSeededSource returns a source preloaded with the default spectrum
// cards and song decks.
func NewSeededSource() *MemorySource {
	return NewMemorySource(seedSpectrums(), seedDecks(), seedSongs())
}

func (s *MemorySource) Spectrums() []Spectrum {
	out := make([]Spectrum, len(s.spectrums))
	copy(out, s.spectrums)
	return out
}

func (s *MemorySource) Decks() []Deck {
	out := make([]Deck, len(s.decks))
	copy(out, s.decks)
	return out
}

func (s *MemorySource) Songs(deckIDs ...string) ([]Song, error) {
	var out []Song
	for _, id := range deckIDs {
		songs, ok := s.byDeck[id]
		if !ok {
			return nil, fmt.Errorf("deck %s not found", id)
		}
		out = append(out, songs...)
	}
	return out, nil
}

func (s *MemorySource) Song(id string) (Song, bool) {
	song, ok := s.songs[id]
	return song, ok
}
