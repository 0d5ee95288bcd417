package socialgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/profiles"
)

// errStale aborts a reconcile write when the list changed since the scan
var errStale = errors.New("list changed since scan")

// ReconcileOptions controls a repair pass
type ReconcileOptions struct {
	// DryRun computes the changes without writing them
	DryRun bool
}

// ListChange is one list rewrite made (or planned) by Reconcile
type ListChange struct {
	UserID string   `json:"userId"`
	Field  string   `json:"field"`
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// ReconcileReport summarises a repair pass
type ReconcileReport struct {
	UsersScanned int          `json:"usersScanned"`
	Changes      []ListChange `json:"changes"`
	// Applied counts changes written; Skipped counts changes abandoned because
	// the list was modified concurrently
	Applied int  `json:"applied"`
	Skipped int  `json:"skipped"`
	DryRun  bool `json:"dryRun"`
}

// Reconcile repairs follow edges. Follower lists are authoritative: ids of
// missing users and self references are dropped from them, and every following
// list is rebuilt to mirror them. Entries already present keep their order;
// new ones are appended in id order.
//
// A write only lands if the list still matches what was scanned, so edges
// changed during the pass are left for the next run.
func (s *graphService) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	snaps, err := s.store.List(ctx, profiles.Collection)
	if err != nil {
		return nil, docstore.Wrap("list", profiles.Collection, "", err)
	}

	exists := make(map[string]bool, len(snaps))
	for _, snap := range snaps {
		exists[snap.ID] = true
	}

	// followers after cleanup, and the following lists they imply
	cleanFollowers := make(map[string][]string, len(snaps))
	implied := make(map[string]map[string]bool, len(snaps))
	for _, snap := range snaps {
		var kept []string
		seen := map[string]bool{}
		for _, id := range snap.Data.GetStrings(profiles.FieldFollowerUserID) {
			if !exists[id] || id == snap.ID || seen[id] {
				continue
			}
			seen[id] = true
			kept = append(kept, id)
			if implied[id] == nil {
				implied[id] = map[string]bool{}
			}
			implied[id][snap.ID] = true
		}
		cleanFollowers[snap.ID] = nonNil(kept)
	}

	report := &ReconcileReport{UsersScanned: len(snaps), DryRun: opts.DryRun, Changes: []ListChange{}}
	for _, snap := range snaps {
		followers := snap.Data.GetStrings(profiles.FieldFollowerUserID)
		if !equal(followers, cleanFollowers[snap.ID]) {
			report.Changes = append(report.Changes, ListChange{
				UserID: snap.ID,
				Field:  profiles.FieldFollowerUserID,
				Before: nonNil(followers),
				After:  cleanFollowers[snap.ID],
			})
		}

		following := snap.Data.GetStrings(profiles.FieldFollowingUserID)
		want := mirror(following, implied[snap.ID])
		if !equal(following, want) {
			report.Changes = append(report.Changes, ListChange{
				UserID: snap.ID,
				Field:  profiles.FieldFollowingUserID,
				Before: nonNil(following),
				After:  want,
			})
		}
	}

	if !opts.DryRun {
		for _, change := range report.Changes {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			err := s.applyChange(ctx, change)
			switch {
			case err == nil:
				report.Applied++
				s.invalidate(ctx, change.UserID)
			case errors.Is(err, errStale), errors.Is(err, docstore.ErrNotFound):
				report.Skipped++
			default:
				return report, fmt.Errorf("failed to rewrite %s of %s: %w", change.Field, change.UserID, err)
			}
		}
	}

	s.logger.Info("follow reconcile finished",
		slog.Int("users", report.UsersScanned),
		slog.Int("changes", len(report.Changes)),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped),
		slog.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

func (s *graphService) applyChange(ctx context.Context, change ListChange) error {
	_, err := docstore.Mutate(ctx, s.store, profiles.Collection, change.UserID, func(current docstore.Document) (docstore.Document, error) {
		if current == nil {
			return nil, docstore.ErrNotFound
		}
		if !equal(current.GetStrings(change.Field), change.Before) {
			return nil, errStale
		}
		current[change.Field] = change.After
		return current, nil
	})
	if err != nil && !errors.Is(err, errStale) && !errors.Is(err, docstore.ErrNotFound) {
		return docstore.Wrap("mutate", profiles.Collection, change.UserID, err)
	}
	return err
}

// mirror keeps the entries of current that are in want, in order, then
// appends the rest of want sorted
func mirror(current []string, want map[string]bool) []string {
	out := []string{}
	placed := map[string]bool{}
	for _, id := range current {
		if want[id] && !placed[id] {
			out = append(out, id)
			placed[id] = true
		}
	}
	var missing []string
	for id := range want {
		if !placed[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
