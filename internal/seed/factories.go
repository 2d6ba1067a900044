// Package seed creates demo data for development databases. It writes through
// the services so seeded rows obey the same rules as API traffic.
package seed

import (
	"fmt"
	"math/rand"
	"strings"

	"appfeed/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Password is shared by every seeded account.
const Password = "password123"

// Factory builds service inputs filled with fake content.
type Factory struct {
	faker *gofakeit.Faker
	rnd   *rand.Rand
}

// NewFactory returns a factory. The same seed yields the same data.
func NewFactory(seed int64) *Factory {
	return &Factory{
		faker: gofakeit.New(seed),
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// AppID returns an app id unique for index n.
func (f *Factory) AppID(n int) string {
	return fmt.Sprintf("demo-%s-%d", strings.ToLower(f.faker.Word()), n)
}

// SignUp returns a sign-up for appID. Usernames carry n so they never collide
// within the app.
func (f *Factory) SignUp(appID string, n int) service.SignUpInput {
	return service.SignUpInput{
		AppID:    appID,
		Username: fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), n),
		Name:     f.faker.Name(),
		Password: Password,
	}
}

// Profile returns a profile update for the user.
func (f *Factory) Profile(appID, userID string) service.UpdateProfileInput {
	return service.UpdateProfileInput{
		AppID:        appID,
		UserID:       userID,
		Name:         f.faker.Name(),
		Bio:          f.faker.HipsterSentence(8),
		ProfileImage: fmt.Sprintf("https://picsum.photos/seed/%s/200/200", f.faker.UUID()),
	}
}

// Location returns a location update with decimal coordinates.
func (f *Factory) Location(appID, userID string) service.UpdateLocationInput {
	return service.UpdateLocationInput{
		AppID:     appID,
		UserID:    userID,
		Latitude:  fmt.Sprintf("%.4f", f.faker.Latitude()),
		Longitude: fmt.Sprintf("%.4f", f.faker.Longitude()),
	}
}

// Feed returns a feed by userID, or by the app itself when userID is empty.
func (f *Factory) Feed(appID, userID string) service.CreateFeedInput {
	caption := f.faker.Sentence(6)
	for len([]rune(caption)) < 5 {
		caption += " " + f.faker.Word()
	}
	return service.CreateFeedInput{
		AppID:   appID,
		Caption: caption,
		Image:   fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		UserID:  userID,
	}
}

func (f *Factory) Comment(appID, feedID, userID string) service.AddCommentInput {
	return service.AddCommentInput{
		AppID:   appID,
		FeedID:  feedID,
		Comment: f.faker.Sentence(f.rnd.Intn(8) + 2),
		UserID:  userID,
	}
}

func (f *Factory) Reply(commentID, userID string) service.AddReplyInput {
	return service.AddReplyInput{
		CommentID: commentID,
		Reply:     f.faker.Sentence(f.rnd.Intn(6) + 1),
		UserID:    userID,
	}
}

// Pick returns a random element of ids, or "" for the app itself roughly one
// time in appShare.
func (f *Factory) Pick(ids []string, appShare int) string {
	if len(ids) == 0 || (appShare > 0 && f.rnd.Intn(appShare) == 0) {
		return ""
	}
	return ids[f.rnd.Intn(len(ids))]
}

// Intn exposes the factory's random source.
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.rnd.Intn(n)
}
