// ABOUTME: Built-in sample catalog served by the development service
// ABOUTME: Twelve classics with authors, genres, ratings and cover URLs

package devserver

import "github.com/markalston/bookshelf/internal/client"

type seedBook struct {
	title   string
	authors []string
	genres  []string
	rating  float64
	ratings int
	pages   int
	isbn    string
	cover   string
	summary string
}

var seedBooks = []seedBook{
	{"To Kill a Mockingbird", []string{"Harper Lee"}, []string{"Classics", "Fiction", "Historical Fiction"}, 4.8, 5240311, 324, "0061120081", "8231490",
		"A lawyer in the Depression-era South defends a Black man accused of a terrible crime, seen through the eyes of his young daughter."},
	{"1984", []string{"George Orwell"}, []string{"Classics", "Fiction", "Dystopia", "Science Fiction"}, 4.7, 4132895, 328, "0451524934", "8575761",
		"Winston Smith works for the Ministry of Truth in a state where Big Brother watches everything."},
	{"Pride and Prejudice", []string{"Jane Austen"}, []string{"Classics", "Fiction", "Romance"}, 4.5, 3981544, 279, "0141439513", "8479576",
		"Elizabeth Bennet and Mr. Darcy misjudge each other across the drawing rooms of Regency England."},
	{"The Great Gatsby", []string{"F. Scott Fitzgerald"}, []string{"Classics", "Fiction"}, 4.3, 4765497, 180, "0743273567", "8417462",
		"Nick Carraway recounts a summer among the wealthy of Long Island and the mysterious Jay Gatsby."},
	{"The Catcher in the Rye", []string{"J.D. Salinger"}, []string{"Classics", "Fiction", "Young Adult"}, 4.1, 3249158, 277, "0316769487", "8739161",
		"Holden Caulfield wanders New York City after being expelled from prep school."},
	{"Lord of the Flies", []string{"William Golding"}, []string{"Classics", "Fiction"}, 4.0, 2692343, 182, "0399501487", "8903298",
		"Schoolboys stranded on an island try to govern themselves, with disastrous results."},
	{"Animal Farm", []string{"George Orwell"}, []string{"Classics", "Fiction", "Dystopia"}, 4.2, 3496010, 141, "0452284244", "8395241",
		"The animals of Manor Farm overthrow their farmer, only to find new masters among themselves."},
	{"The Hobbit", []string{"J.R.R. Tolkien"}, []string{"Classics", "Fantasy", "Fiction"}, 4.7, 3824209, 366, "0618260307", "8323742",
		"Bilbo Baggins is swept into a quest to reclaim a dwarf kingdom from the dragon Smaug."},
	{"Brave New World", []string{"Aldous Huxley"}, []string{"Classics", "Dystopia", "Science Fiction"}, 4.4, 1780421, 288, "0060850523", "8231990",
		"An engineered society keeps its citizens content with conditioning and soma."},
	{"The Alchemist", []string{"Paulo Coelho"}, []string{"Fiction", "Philosophy", "Fantasy"}, 4.6, 2951826, 197, "0062315005", "8578396",
		"A shepherd boy travels from Spain to Egypt in search of treasure and his personal legend."},
	{"Fahrenheit 451", []string{"Ray Bradbury"}, []string{"Classics", "Dystopia", "Science Fiction"}, 4.3, 2182371, 194, "1451673310", "8406786",
		"Fireman Guy Montag burns books for a living until he begins to read them."},
	{"The Little Prince", []string{"Antoine de Saint-Exupéry"}, []string{"Classics", "Fantasy", "Childrens"}, 4.8, 1630744, 96, "0156012197", "8393164",
		"A pilot stranded in the desert meets a young prince visiting Earth from a tiny asteroid."},
}

// SeedBooks returns the sample catalog with stable ids for books, authors
// and genres.
func SeedBooks() []client.Book {
	authorIDs := map[string]int{}
	genreIDs := map[string]int{}
	idFor := func(ids map[string]int, name string) int {
		if id, ok := ids[name]; ok {
			return id
		}
		ids[name] = len(ids) + 1
		return ids[name]
	}

	books := make([]client.Book, 0, len(seedBooks))
	for i, s := range seedBooks {
		b := client.Book{
			BookID:        i + 1,
			Title:         s.title,
			Description:   ptr(s.summary),
			Format:        ptr("Paperback"),
			PageCount:     ptr(s.pages),
			AverageRating: ptr(s.rating),
			TotalRatings:  ptr(s.ratings),
			ISBN:          s.isbn,
			ImageURL:      ptr("https://covers.openlibrary.org/b/id/" + s.cover + "-L.jpg"),
		}
		for _, name := range s.authors {
			b.Authors = append(b.Authors, client.AuthorRef{ID: idFor(authorIDs, name), Name: name})
		}
		for _, name := range s.genres {
			b.Genres = append(b.Genres, client.GenreRef{ID: idFor(genreIDs, name), Name: name})
		}
		books = append(books, b)
	}
	return books
}

func ptr[T any](v T) *T { return &v }
