package service

import (
	"context"

	"appfeed/internal/featureflags"
	"appfeed/internal/models"
)

// AuthorSource resolves author display snapshots.
type AuthorSource interface {
	AuthorByID(ctx context.Context, userID string) (models.Author, bool, error)
	AuthorsByIDs(ctx context.Context, userIDs []string) (map[string]models.Author, error)
}

// Enricher attaches {username, profileImage} to authored records at read time.
//
// A record with no userId gets the app placeholder. A record whose userId
// names no user gets an empty snapshot. Resolution is one batched lookup per
// list unless the per_record_enrichment flag is on for the app.
type Enricher struct {
	authors AuthorSource
	flags   *featureflags.Manager
}

func NewEnricher(authors AuthorSource, flags *featureflags.Manager) *Enricher {
	return &Enricher{authors: authors, flags: flags}
}

func enrich[T models.Authored](ctx context.Context, e *Enricher, appID string, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if e.flags.Enabled(featureflags.PerRecordEnrichment, appID) {
		return enrichEach(ctx, e, records)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id := r.AuthorID(); id != "" {
			ids = append(ids, id)
		}
	}
	var authors map[string]models.Author
	if len(ids) > 0 {
		var err error
		if authors, err = e.authors.AuthorsByIDs(ctx, ids); err != nil {
			return err
		}
	}
	for _, r := range records {
		id := r.AuthorID()
		if id == "" {
			r.SetAuthor(models.AppAuthor())
			continue
		}
		r.SetAuthor(authors[id])
	}
	return nil
}

func enrichEach[T models.Authored](ctx context.Context, e *Enricher, records []T) error {
	for _, r := range records {
		id := r.AuthorID()
		if id == "" {
			r.SetAuthor(models.AppAuthor())
			continue
		}
		a, _, err := e.authors.AuthorByID(ctx, id)
		if err != nil {
			return err
		}
		r.SetAuthor(a)
	}
	return nil
}
