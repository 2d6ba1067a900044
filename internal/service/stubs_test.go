package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"appfeed/internal/events"
	"appfeed/internal/models"
	"appfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnexpectedCall = errors.New("unexpected repository call")

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn            func(context.Context, *models.User) error
	findByCredentialsFn func(context.Context, string, string, string) (*models.User, error)
	listByAppFn         func(context.Context, string) ([]models.User, error)
	findInAppFn         func(context.Context, string, string) ([]models.User, error)
	updateLocationFn    func(context.Context, string, string, string, string) error
	updateProfileFn     func(context.Context, string, string, repository.ProfileUpdate) error
	authorByIDFn        func(context.Context, string) (models.Author, bool, error)
	authorsByIDsFn      func(context.Context, []string) (map[string]models.Author, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) FindByCredentials(ctx context.Context, appID, username, password string) (*models.User, error) {
	return s.findByCredentialsFn(ctx, appID, username, password)
}
func (s *userRepoStub) ListByApp(ctx context.Context, appID string) ([]models.User, error) {
	return s.listByAppFn(ctx, appID)
}
func (s *userRepoStub) FindInApp(ctx context.Context, appID, userID string) ([]models.User, error) {
	return s.findInAppFn(ctx, appID, userID)
}
func (s *userRepoStub) UpdateLocation(ctx context.Context, appID, userID, lat, lon string) error {
	return s.updateLocationFn(ctx, appID, userID, lat, lon)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, appID, userID string, in repository.ProfileUpdate) error {
	return s.updateProfileFn(ctx, appID, userID, in)
}
func (s *userRepoStub) AuthorByID(ctx context.Context, userID string) (models.Author, bool, error) {
	return s.authorByIDFn(ctx, userID)
}
func (s *userRepoStub) AuthorsByIDs(ctx context.Context, ids []string) (map[string]models.Author, error) {
	return s.authorsByIDsFn(ctx, ids)
}

// failingUserRepo fails every call so tests can assert validation runs first.
func failingUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(context.Context, *models.User) error { return errUnexpectedCall },
		findByCredentialsFn: func(context.Context, string, string, string) (*models.User, error) {
			return nil, errUnexpectedCall
		},
		listByAppFn:      func(context.Context, string) ([]models.User, error) { return nil, errUnexpectedCall },
		findInAppFn:      func(context.Context, string, string) ([]models.User, error) { return nil, errUnexpectedCall },
		updateLocationFn: func(context.Context, string, string, string, string) error { return errUnexpectedCall },
		updateProfileFn: func(context.Context, string, string, repository.ProfileUpdate) error {
			return errUnexpectedCall
		},
		authorByIDFn: func(context.Context, string) (models.Author, bool, error) {
			return models.Author{}, false, errUnexpectedCall
		},
		authorsByIDsFn: func(context.Context, []string) (map[string]models.Author, error) {
			return nil, errUnexpectedCall
		},
	}
}

// appRepoStub is a stub for repository.AppRepository.
type appRepoStub struct {
	mu      sync.Mutex
	ensured []string
	err     error
}

func (s *appRepoStub) Ensure(_ context.Context, appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, appID)
	return s.err
}

// feedRepoStub is a stub for repository.FeedRepository.
type feedRepoStub struct {
	createFn           func(context.Context, *models.Feed) error
	getByIDFn          func(context.Context, string) (*models.Feed, error)
	listByAppFn        func(context.Context, string) ([]*models.Feed, error)
	listByAppAndUserFn func(context.Context, string, string) ([]*models.Feed, error)
	toggleLikeFn       func(context.Context, string, string) (bool, error)
	deleteFn           func(context.Context, string) (*repository.DeleteFeedResult, error)
}

func (s *feedRepoStub) Create(ctx context.Context, f *models.Feed) error { return s.createFn(ctx, f) }
func (s *feedRepoStub) GetByID(ctx context.Context, id string) (*models.Feed, error) {
	return s.getByIDFn(ctx, id)
}
func (s *feedRepoStub) ListByApp(ctx context.Context, appID string) ([]*models.Feed, error) {
	return s.listByAppFn(ctx, appID)
}
func (s *feedRepoStub) ListByAppAndUser(ctx context.Context, appID, userID string) ([]*models.Feed, error) {
	return s.listByAppAndUserFn(ctx, appID, userID)
}
func (s *feedRepoStub) ToggleLike(ctx context.Context, feedID, actor string) (bool, error) {
	return s.toggleLikeFn(ctx, feedID, actor)
}
func (s *feedRepoStub) Delete(ctx context.Context, feedID string) (*repository.DeleteFeedResult, error) {
	return s.deleteFn(ctx, feedID)
}

func noopFeedRepo() *feedRepoStub {
	return &feedRepoStub{
		createFn: func(_ context.Context, f *models.Feed) error {
			f.ID = "feed-1"
			f.Likes = map[string]bool{}
			return nil
		},
		getByIDFn:          func(context.Context, string) (*models.Feed, error) { return &models.Feed{}, nil },
		listByAppFn:        func(context.Context, string) ([]*models.Feed, error) { return []*models.Feed{}, nil },
		listByAppAndUserFn: func(context.Context, string, string) ([]*models.Feed, error) { return []*models.Feed{}, nil },
		toggleLikeFn:       func(context.Context, string, string) (bool, error) { return true, nil },
		deleteFn: func(_ context.Context, _ string) (*repository.DeleteFeedResult, error) {
			return &repository.DeleteFeedResult{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	listByFeedFn   func(context.Context, string, string) ([]*models.Comment, error)
	listByAppFn    func(context.Context, string) ([]*models.Comment, error)
	deleteByFeedFn func(context.Context, string) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByFeed(ctx context.Context, appID, feedID string) ([]*models.Comment, error) {
	return s.listByFeedFn(ctx, appID, feedID)
}
func (s *commentRepoStub) ListByApp(ctx context.Context, appID string) ([]*models.Comment, error) {
	return s.listByAppFn(ctx, appID)
}
func (s *commentRepoStub) DeleteByFeed(ctx context.Context, feedID string) (int64, error) {
	return s.deleteByFeedFn(ctx, feedID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = "comment-1"
			return nil
		},
		listByFeedFn:   func(context.Context, string, string) ([]*models.Comment, error) { return []*models.Comment{}, nil },
		listByAppFn:    func(context.Context, string) ([]*models.Comment, error) { return []*models.Comment{}, nil },
		deleteByFeedFn: func(context.Context, string) (int64, error) { return 0, nil },
	}
}

// replyRepoStub is a stub for repository.ReplyRepository.
type replyRepoStub struct {
	createFn        func(context.Context, *models.Reply) error
	listByCommentFn func(context.Context, string) ([]*models.Reply, error)
}

func (s *replyRepoStub) Create(ctx context.Context, r *models.Reply) error { return s.createFn(ctx, r) }
func (s *replyRepoStub) ListByComment(ctx context.Context, commentID string) ([]*models.Reply, error) {
	return s.listByCommentFn(ctx, commentID)
}
func (s *replyRepoStub) CountOrphans(context.Context) (int64, error) { return 0, nil }

func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		createFn: func(_ context.Context, r *models.Reply) error {
			r.ID = "reply-1"
			return nil
		},
		listByCommentFn: func(context.Context, string) ([]*models.Reply, error) { return []*models.Reply{}, nil },
	}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// blockingPublisher waits for its context to end and records why.
type blockingPublisher struct {
	mu  sync.Mutex
	err error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = ctx.Err()
	return p.err
}

func (p *blockingPublisher) cause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

type publisherFunc func(context.Context, events.Event) error

func (f publisherFunc) Publish(ctx context.Context, e events.Event) error { return f(ctx, e) }

// assertAppErrorCode asserts that err is an AppError with the given code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is a validation AppError with msg.
func assertValidationError(t *testing.T, err error, msg string) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, msg, appErr.Message)
}
