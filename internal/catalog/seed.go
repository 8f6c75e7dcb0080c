package catalog

import "fmt"

func seedSpectrums() []Spectrum {
	pairs := []struct{ left, right, category string }{
		{"Chaos", "Order", "Abstract"},
		{"Objective", "Subjective", "Abstract"},
		{"Simple", "Complex", "Abstract"},
		{"Fair", "Unfair", "Abstract"},
		{"Realistic", "Fantastical", "Abstract"},
		{"Natural", "Artificial", "Abstract"},
		{"Predictable", "Unpredictable", "Abstract"},
		{"Deep", "Shallow", "Abstract"},
		{"Introverted", "Extroverted", "Personality"},
		{"Polite", "Rude", "Personality"},
		{"Boring", "Exciting", "Personality"},
		{"Normal", "Weird", "Personality"},
		{"Safe", "Risky", "Personality"},
		{"Serious", "Ridiculous", "Personality"},
		{"Friendly", "Hostile", "Personality"},
		{"Overrated", "Underrated", "Taste"},
		{"Delicious", "Disgusting", "Taste"},
		{"Healthy", "Unhealthy", "Taste"},
		{"Traditional", "Modern", "Taste"},
		{"Homemade", "Commercial", "Taste"},
		{"Passing fad", "Timeless", "Taste"},
		{"Casual", "Hardcore", "Gaming"},
		{"Slow", "Fast", "Gaming"},
		{"Retro", "Futuristic", "Gaming"},
		{"Indie", "Mainstream", "Gaming"},
		{"Buggy", "Polished", "Gaming"},
		{"Harmless", "Offensive", "Feelings"},
		{"Cold", "Hot", "Feelings"},
		{"Relaxing", "Stressful", "Feelings"},
		{"Smart", "Dumb", "Feelings"},
		{"Frustrating", "Satisfying", "Feelings"},
	}
	out := make([]Spectrum, len(pairs))
	for i, p := range pairs {
		out[i] = Spectrum{
			ID:         fmt.Sprintf("spectrum-%02d", i+1),
			LeftLabel:  p.left,
			RightLabel: p.right,
			Category:   p.category,
		}
	}
	return out
}

func seedDecks() []Deck {
	return []Deck{
		{ID: "deck-classics", Name: "Decade Classics", SongCount: 20, IsPublic: true},
		{ID: "deck-modern", Name: "Modern Hits", SongCount: 16, IsPublic: true},
	}
}

func seedSongs() []Song {
	type entry struct {
		name, artist, album string
		year                int
	}
	classics := []entry{
		{"Bohemian Rhapsody", "Queen", "A Night at the Opera", 1975},
		{"Hotel California", "Eagles", "Hotel California", 1976},
		{"Stayin' Alive", "Bee Gees", "Saturday Night Fever", 1977},
		{"Beat It", "Michael Jackson", "Thriller", 1982},
		{"Sweet Child O' Mine", "Guns N' Roses", "Appetite for Destruction", 1987},
		{"Like a Prayer", "Madonna", "Like a Prayer", 1989},
		{"Smells Like Teen Spirit", "Nirvana", "Nevermind", 1991},
		{"Wonderwall", "Oasis", "(What's the Story) Morning Glory?", 1995},
		{"My Heart Will Go On", "Celine Dion", "Let's Talk About Love", 1997},
		{"Baby One More Time", "Britney Spears", "Baby One More Time", 1999},
		{"In the End", "Linkin Park", "Hybrid Theory", 2000},
		{"Hey Ya!", "OutKast", "Speakerboxxx/The Love Below", 2003},
		{"Mr. Brightside", "The Killers", "Hot Fuss", 2004},
		{"Crazy in Love", "Beyonce", "Dangerously in Love", 2003},
		{"Rehab", "Amy Winehouse", "Back to Black", 2006},
		{"Umbrella", "Rihanna", "Good Girl Gone Bad", 2007},
		{"Viva la Vida", "Coldplay", "Viva la Vida", 2008},
		{"Poker Face", "Lady Gaga", "The Fame", 2008},
		{"Rolling in the Deep", "Adele", "21", 2010},
		{"Somebody That I Used to Know", "Gotye", "Making Mirrors", 2011},
	}
	modern := []entry{
		{"Get Lucky", "Daft Punk", "Random Access Memories", 2013},
		{"Happy", "Pharrell Williams", "G I R L", 2013},
		{"Uptown Funk", "Mark Ronson", "Uptown Special", 2014},
		{"Shake It Off", "Taylor Swift", "1989", 2014},
		{"Hello", "Adele", "25", 2015},
		{"Despacito", "Luis Fonsi", "Vida", 2017},
		{"Shape of You", "Ed Sheeran", "Divide", 2017},
		{"God's Plan", "Drake", "Scorpion", 2018},
		{"Old Town Road", "Lil Nas X", "7", 2019},
		{"Bad Guy", "Billie Eilish", "When We All Fall Asleep", 2019},
		{"Blinding Lights", "The Weeknd", "After Hours", 2019},
		{"Watermelon Sugar", "Harry Styles", "Fine Line", 2019},
		{"Levitating", "Dua Lipa", "Future Nostalgia", 2020},
		{"drivers license", "Olivia Rodrigo", "SOUR", 2021},
		{"As It Was", "Harry Styles", "Harry's House", 2022},
		{"Flowers", "Miley Cyrus", "Endless Summer Vacation", 2023},
	}
	var out []Song
	add := func(deckID string, entries []entry) {
		for _, e := range entries {
			id := fmt.Sprintf("%s-%03d", deckID, len(out)+1)
			out = append(out, Song{
				ID:          id,
				DeckID:      deckID,
				Name:        e.name,
				ArtistName:  e.artist,
				AlbumName:   e.album,
				ReleaseYear: e.year,
				PreviewURL:  fmt.Sprintf("https://preview.partygames.local/%s.mp3", id),
				CoverURL:    fmt.Sprintf("https://covers.partygames.local/%s.jpg", id),
			})
		}
	}
	add("deck-classics", classics)
	add("deck-modern", modern)
	return out
}
