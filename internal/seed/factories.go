package seed

import (
	"fmt"
	"strings"
	"unicode"

	"nextfilm/internal/models"
	"nextfilm/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Movie is a catalog entry reviews can point at.
type Movie struct {
	ID    string
	Title string
}

// Catalog is a fixed slice of the external movie catalog. Reviews cluster on
// these ids so ratings aggregate across users.
var Catalog = []Movie{
	{"tt0047396", "Rear Window"},
	{"tt0071315", "Chinatown"},
	{"tt0054215", "Psycho"},
	{"tt0062622", "2001: A Space Odyssey"},
	{"tt0078748", "Alien"},
	{"tt0083658", "Blade Runner"},
	{"tt0087843", "Once Upon a Time in America"},
	{"tt0095765", "Cinema Paradiso"},
	{"tt0118694", "In the Mood for Love"},
	{"tt0245429", "Spirited Away"},
	{"tt0364569", "Oldboy"},
	{"tt0405094", "The Lives of Others"},
	{"tt1375666", "Inception"},
	{"tt2582802", "Whiplash"},
	{"tt6751668", "Parasite"},
}

var postOpeners = []string{
	"Just rewatched %s.",
	"Finally saw %s on a big screen.",
	"Hot take on %s:",
	"Can't stop thinking about %s.",
	"%s deserves more love.",
}

// Factory builds service inputs from a deterministic faker.
type Factory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewFactory returns a Factory; equal seeds produce equal data.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// User builds a signup with a unique username and email.
func (f *Factory) User(password string) service.CreateUserInput {
	f.seq++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := usernameFor(first, last, f.seq)
	return service.CreateUserInput{
		FirstName: first,
		LastName:  last,
		Username:  username,
		Email:     username + "@nextfilm.dev",
		Password:  password,
		Bio:       f.faker.Sentence(10),
		City:      f.faker.City(),
	}
}

// PostContent is a short opinion about a catalog movie.
func (f *Factory) PostContent() string {
	movie := f.Movie()
	opener := postOpeners[f.faker.Number(0, len(postOpeners)-1)]
	return fmt.Sprintf(opener, movie.Title) + " " + f.faker.Sentence(f.faker.Number(6, 18))
}

// Comment is a one-sentence reply.
func (f *Factory) Comment() string {
	return f.faker.Sentence(f.faker.Number(3, 12))
}

// Review builds a review of a catalog movie by userID.
func (f *Factory) Review(userID uint) service.CreateReviewInput {
	movie := f.Movie()
	return service.CreateReviewInput{
		UserID:      userID,
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), "."),
		Description: f.faker.Paragraph(1, f.faker.Number(2, 5), 12, "\n"),
		Rating:      f.faker.Number(models.MinRating, models.MaxRating),
		MovieID:     movie.ID,
	}
}

// Movie picks a catalog entry.
func (f *Factory) Movie() Movie {
	return Catalog[f.faker.Number(0, len(Catalog)-1)]
}

// Pick returns up to n distinct indexes in [0, size) excluding skip.
func (f *Factory) Pick(size, n, skip int) []int {
	candidates := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if i != skip {
			candidates = append(candidates, i)
		}
	}
	f.faker.ShuffleInts(candidates)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// usernameFor keeps letters and digits and appends seq, within the 30 character limit.
func usernameFor(first, last string, seq int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(first + last) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "member"
	}
	suffix := fmt.Sprintf("%d", seq)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}
