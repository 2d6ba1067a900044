package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"appfeed/internal/service"
)

// Options controls how much data Seed creates.
type Options struct {
	Apps            int
	UsersPerApp     int
	FeedsPerApp     int
	MaxComments     int
	MaxReplies      int
	MaxLikes        int
	RandomSeed      int64
	AppAuthoredEach int // one feed in N is posted by the app; 0 disables
}

// DefaultOptions is a small demo dataset.
func DefaultOptions() Options {
	return Options{
		Apps:            2,
		UsersPerApp:     8,
		FeedsPerApp:     20,
		MaxComments:     4,
		MaxReplies:      2,
		MaxLikes:        5,
		RandomSeed:      time.Now().UnixNano(),
		AppAuthoredEach: 5,
	}
}

// Services are the write paths Seed uses.
type Services struct {
	Identity     *service.IdentityService
	Feeds        *service.FeedService
	Interactions *service.InteractionService
}

// Summary counts what Seed created.
type Summary struct {
	Apps     []string
	Users    int
	Feeds    int
	Likes    int
	Comments int
	Replies  int
}

// Seed creates opts.Apps apps and fills each with users, feeds, likes,
// comments and replies.
func Seed(ctx context.Context, svc Services, opts Options, log *slog.Logger) (*Summary, error) {
	if log == nil {
		log = slog.Default()
	}
	f := NewFactory(opts.RandomSeed)
	sum := &Summary{}

	for a := 0; a < opts.Apps; a++ {
		appID := f.AppID(a)
		if err := svc.Identity.RegisterApp(ctx, appID); err != nil {
			return sum, fmt.Errorf("register app %s: %w", appID, err)
		}
		sum.Apps = append(sum.Apps, appID)

		userIDs, err := seedUsers(ctx, svc.Identity, f, appID, opts.UsersPerApp)
		sum.Users += len(userIDs)
		if err != nil {
			return sum, err
		}

		for i := 0; i < opts.FeedsPerApp; i++ {
			if err := seedFeed(ctx, svc, f, appID, userIDs, opts, sum); err != nil {
				return sum, err
			}
		}
		log.Info("seeded app", slog.String("app_id", appID), slog.Int("users", len(userIDs)))
	}
	return sum, nil
}

func seedUsers(ctx context.Context, identity *service.IdentityService, f *Factory, appID string, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		user, err := identity.SignUp(ctx, f.SignUp(appID, i))
		if err != nil {
			return ids, fmt.Errorf("sign up user %d in %s: %w", i, appID, err)
		}
		if err := identity.UpdateProfile(ctx, f.Profile(appID, user.ID)); err != nil {
			return ids, fmt.Errorf("update profile %s: %w", user.ID, err)
		}
		if err := identity.UpdateLocation(ctx, f.Location(appID, user.ID)); err != nil {
			return ids, fmt.Errorf("update location %s: %w", user.ID, err)
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func seedFeed(ctx context.Context, svc Services, f *Factory, appID string, userIDs []string, opts Options, sum *Summary) error {
	feed, err := svc.Feeds.CreateFeed(ctx, f.Feed(appID, f.Pick(userIDs, opts.AppAuthoredEach)))
	if err != nil {
		return fmt.Errorf("create feed in %s: %w", appID, err)
	}
	sum.Feeds++

	// Distinct actors only; a repeated actor would undo its own like.
	likers := map[string]bool{}
	for i, n := 0, f.Intn(opts.MaxLikes+1); i < n; i++ {
		actor := f.Pick(userIDs, len(userIDs)+1)
		if likers[actor] {
			continue
		}
		likers[actor] = true
		if _, err := svc.Feeds.ToggleLike(ctx, service.ToggleLikeInput{FeedID: feed.ID, AppID: appID, UserID: actor}); err != nil {
			return fmt.Errorf("like feed %s: %w", feed.ID, err)
		}
		sum.Likes++
	}

	for i, n := 0, f.Intn(opts.MaxComments+1); i < n; i++ {
		comment, err := svc.Interactions.AddComment(ctx, f.Comment(appID, feed.ID, f.Pick(userIDs, 4)))
		if err != nil {
			return fmt.Errorf("comment on feed %s: %w", feed.ID, err)
		}
		sum.Comments++
		for j, m := 0, f.Intn(opts.MaxReplies+1); j < m; j++ {
			if _, err := svc.Interactions.AddReply(ctx, f.Reply(comment.ID, f.Pick(userIDs, 4))); err != nil {
				return fmt.Errorf("reply to comment %s: %w", comment.ID, err)
			}
			sum.Replies++
		}
	}
	return nil
}
