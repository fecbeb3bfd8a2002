package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "taskdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProjectAndUser(t *testing.T, s *Store) (model.Project, model.User) {
	t.Helper()
	project, err := s.CreateProject("Alpha", "https://example.com/alpha.git")
	require.NoError(t, err)
	user, err := s.CreateUser("morgan", model.UserTypeHuman, "morgan@example.com")
	require.NoError(t, err)
	return project, user
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestCreateCardDefaultsAndNumbering(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)

	first, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "First", CreatedBy: user.ID})
	require.NoError(t, err)
	require.Equal(t, 1, first.CardNumber)
	require.Equal(t, model.StatusBacklog, first.Status)
	require.Equal(t, model.DefaultPriority, first.Priority)
	require.Equal(t, model.DefaultCardType, first.CardType)
	require.Nil(t, first.Description)
	require.Equal(t, int64(1), first.Version)

	second, err := s.CreateCard(model.NewCard{
		ProjectID:   project.ID,
		Title:       "Second",
		Description: strPtr("details"),
		Status:      model.StatusInProgress,
		Priority:    intPtr(80),
		CardType:    "bug",
		CreatedBy:   user.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, second.CardNumber)
	require.Equal(t, model.StatusInProgress, second.Status)
	require.Equal(t, 80, second.Priority)
	require.Equal(t, "bug", second.CardType)
	require.NotNil(t, second.Description)
	require.Equal(t, "details", *second.Description)

	other, err := s.CreateProject("Beta", "https://example.com/beta.git")
	require.NoError(t, err)
	third, err := s.CreateCard(model.NewCard{ProjectID: other.ID, Title: "Other project", CreatedBy: user.ID})
	require.NoError(t, err)
	require.Equal(t, 1, third.CardNumber)

	_, err = s.CreateCard(model.NewCard{ProjectID: 999, Title: "Orphan", CreatedBy: user.ID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCardBumpsVersionAndWritesAudit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Task", CreatedBy: user.ID})
	require.NoError(t, err)

	updated, err := s.UpdateCard(card.ID, model.CardPatch{Status: strPtr(model.StatusInProgress)}, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)
	require.Equal(t, model.StatusInProgress, updated.Status)

	updated, err = s.UpdateCard(card.ID, model.CardPatch{Title: strPtr("Renamed"), Priority: intPtr(90)}, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), updated.Version)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, 90, updated.Priority)

	audits, err := s.ListAudits(card.ID)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.Equal(t, model.StatusBacklog, audits[0].OldStatus)
	require.Equal(t, model.StatusInProgress, audits[0].NewStatus)
	require.Equal(t, "Task", audits[0].OldTitle)
	require.Equal(t, "Task", audits[0].NewTitle)
	require.Equal(t, "Task", audits[1].OldTitle)
	require.Equal(t, "Renamed", audits[1].NewTitle)
	require.Equal(t, 50, audits[1].OldPriority)
	require.Equal(t, 90, audits[1].NewPriority)
	require.Equal(t, user.ID, audits[1].ChangedBy)
}

func TestUpdateCardNoopLeavesVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Task", CreatedBy: user.ID})
	require.NoError(t, err)

	same, err := s.UpdateCard(card.ID, model.CardPatch{Title: strPtr("Task"), Status: strPtr(model.StatusBacklog)}, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, card.Version, same.Version)
	require.Equal(t, card.UpdatedAt, same.UpdatedAt)

	// The attempt still lands in the audit trail.
	audits, err := s.ListAudits(card.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, audits[0].OldTitle, audits[0].NewTitle)
}

func TestUpdateCardVersionConflict(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Task", CreatedBy: user.ID})
	require.NoError(t, err)

	// First writer wins with the version it read.
	updated, err := s.UpdateCard(card.ID, model.CardPatch{Status: strPtr(model.StatusInProgress)}, user.ID, int64Ptr(1))
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	// Second writer still holds version 1 and must conflict.
	_, err = s.UpdateCard(card.ID, model.CardPatch{Status: strPtr(model.StatusDone)}, user.ID, int64Ptr(1))
	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, int64(2), conflict.CurrentVersion)

	// Nothing mutated: no status change, no version bump, no audit row.
	cur, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusInProgress, cur.Status)
	require.Equal(t, int64(2), cur.Version)
	audits, err := s.ListAudits(card.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)

	// Omitting the version skips the check entirely.
	updated, err = s.UpdateCard(card.ID, model.CardPatch{Status: strPtr(model.StatusDone)}, user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), updated.Version)
}

func TestUpdateCardClearsDescription(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{
		ProjectID:   project.ID,
		Title:       "Task",
		Description: strPtr("old text"),
		CreatedBy:   user.ID,
	})
	require.NoError(t, err)

	// An unset description leaves the stored value alone.
	same, err := s.UpdateCard(card.ID, model.CardPatch{Title: strPtr("Task renamed")}, user.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, same.Description)
	require.Equal(t, "old text", *same.Description)

	// An explicit null clears it.
	cleared, err := s.UpdateCard(card.ID, model.CardPatch{Description: model.OptionalString{Set: true}}, user.ID, nil)
	require.NoError(t, err)
	require.Nil(t, cleared.Description)

	audits, err := s.ListAudits(card.ID)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.NotNil(t, audits[1].OldDescription)
	require.Nil(t, audits[1].NewDescription)
}

func TestCommentLifecycleBumpsCardVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Task", CreatedBy: user.ID})
	require.NoError(t, err)

	comment, err := s.AddComment(card.ID, "needs review", user.ID)
	require.NoError(t, err)
	require.Equal(t, model.CommentStatusCreated, comment.Status)

	cur, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), cur.Version)

	deleted, err := s.DeleteComment(comment.ID)
	require.NoError(t, err)
	require.Equal(t, model.CommentStatusDeleted, deleted.Status)
	require.Equal(t, "needs review", deleted.Message)

	cur, err = s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), cur.Version)

	// Soft delete: the row and its message stay listable.
	comments, err := s.ListComments(card.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "needs review", comments[0].Message)
	require.Equal(t, model.CommentStatusDeleted, comments[0].Status)

	_, err = s.DeleteComment(comment.ID)
	require.ErrorIs(t, err, ErrCommentDeleted)

	// The failed delete did not bump the card again.
	cur, err = s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), cur.Version)

	_, err = s.AddComment(999, "ghost", user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteComment(999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferenceLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	source, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Source", CreatedBy: user.ID})
	require.NoError(t, err)
	target, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Target", CreatedBy: user.ID})
	require.NoError(t, err)

	ref, err := s.CreateReference(source.ID, target.ID, model.RefBlocks)
	require.NoError(t, err)
	require.Equal(t, source.ID, ref.CardID)
	require.Equal(t, target.ID, ref.TargetCardID)
	require.Equal(t, "Target", ref.OtherCardTitle)
	require.Equal(t, "Blocks", ref.Label)

	// Only the source card's version moves.
	cur, err := s.GetCard(source.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), cur.Version)
	cur, err = s.GetCard(target.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), cur.Version)

	// Same triple is rejected, same pair under another type is fine.
	_, err = s.CreateReference(source.ID, target.ID, model.RefBlocks)
	require.ErrorIs(t, err, ErrExists)
	_, err = s.CreateReference(source.ID, target.ID, model.RefRelatesTo)
	require.NoError(t, err)

	_, err = s.CreateReference(999, target.ID, model.RefBlocks)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "source card")
	_, err = s.CreateReference(source.ID, 999, model.RefBlocks)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "target card")

	list, err := s.ListReferences(source.ID)
	require.NoError(t, err)
	require.Len(t, list.Outgoing, 2)
	require.Empty(t, list.Incoming)

	// The target sees the same edges inbound, labeled from its side.
	list, err = s.ListReferences(target.ID)
	require.NoError(t, err)
	require.Empty(t, list.Outgoing)
	require.Len(t, list.Incoming, 2)
	require.Equal(t, "Blocked by", list.Incoming[0].Label)
	require.Equal(t, "Source", list.Incoming[0].OtherCardTitle)

	require.NoError(t, s.DeleteReference(source.ID, ref.ID))
	cur, err = s.GetCard(source.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), cur.Version)

	// Deleting through the wrong card is a not-found, not a delete.
	err = s.DeleteReference(target.ID, ref.ID)
	require.ErrorIs(t, err, ErrNotFound)
	err = s.DeleteReference(source.ID, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListCardsFilters(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	other, err := s.CreateProject("Beta", "https://example.com/beta.git")
	require.NoError(t, err)

	_, err = s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Low", Priority: intPtr(10), CreatedBy: user.ID})
	require.NoError(t, err)
	high, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "High", Priority: intPtr(90), Status: model.StatusInProgress, CardType: "bug", CreatedBy: user.ID})
	require.NoError(t, err)
	_, err = s.CreateCard(model.NewCard{ProjectID: other.ID, Title: "Elsewhere", CreatedBy: user.ID})
	require.NoError(t, err)

	all, err := s.ListCards(model.CardFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "High", all[0].Title)

	byProject, err := s.ListCards(model.CardFilters{ProjectID: &project.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 2)

	status := model.StatusInProgress
	cardType := "bug"
	priority := 90
	narrowed, err := s.ListCards(model.CardFilters{
		ProjectID: &project.ID,
		Status:    &status,
		CardType:  &cardType,
		Priority:  &priority,
	})
	require.NoError(t, err)
	require.Len(t, narrowed, 1)
	require.Equal(t, high.ID, narrowed[0].ID)

	byID, err := s.ListCards(model.CardFilters{ID: &high.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)

	none, err := s.ListCards(model.CardFilters{ID: int64Ptr(999)})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSearchRanksTitleOverDescription(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)

	inDescription, err := s.CreateCard(model.NewCard{
		ProjectID:   project.ID,
		Title:       "Login page polish",
		Description: strPtr("The crash handler needs a retry"),
		CreatedBy:   user.ID,
	})
	require.NoError(t, err)
	inTitle, err := s.CreateCard(model.NewCard{
		ProjectID:   project.ID,
		Title:       "Fix crash on startup",
		Description: strPtr("Stack trace attached"),
		CreatedBy:   user.ID,
	})
	require.NoError(t, err)
	_, err = s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Unrelated chore", CreatedBy: user.ID})
	require.NoError(t, err)

	results, err := s.ListCards(model.CardFilters{Search: "crash"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, inTitle.ID, results[0].ID)
	require.Equal(t, inDescription.ID, results[1].ID)
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Plain title", CreatedBy: user.ID})
	require.NoError(t, err)

	results, err := s.ListCards(model.CardFilters{Search: "flaky"})
	require.NoError(t, err)
	require.Empty(t, results)

	_, err = s.UpdateCard(card.ID, model.CardPatch{Title: strPtr("Flaky websocket test")}, user.ID, nil)
	require.NoError(t, err)

	results, err = s.ListCards(model.CardFilters{Search: "flaky"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, card.ID, results[0].ID)

	// Version-only bumps must not disturb the index.
	_, err = s.AddComment(card.ID, "still flaky", user.ID)
	require.NoError(t, err)
	results, err = s.ListCards(model.CardFilters{Search: "flaky"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchQuotingNeutralizesOperators(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	_, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Ordinary card", CreatedBy: user.ID})
	require.NoError(t, err)

	// Raw FTS5 operators in user input must not produce query errors.
	for _, search := range []string{`NEAR(`, `title:"x`, `card AND`, `*`} {
		_, err := s.ListCards(model.CardFilters{Search: search})
		require.NoError(t, err, search)
	}

	// Whitespace-only input has no tokens and falls back to the plain scan.
	for _, search := range []string{" ", "\t", "  \n "} {
		cards, err := s.ListCards(model.CardFilters{Search: search})
		require.NoError(t, err, "%q", search)
		require.Len(t, cards, 1, "%q", search)
	}
}

// Racing writers on one card must only ever lose with a version conflict,
// never with a raw driver error, and every retry with the version the
// conflict reports must eventually land.
func TestConcurrentWritersLoseWithVersionConflict(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	project, user := seedProjectAndUser(t, s)
	card, err := s.CreateCard(model.NewCard{ProjectID: project.ID, Title: "Contended", CreatedBy: user.ID})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("Contended rev %d", i)
			version := card.Version
			for {
				_, err := s.UpdateCard(card.ID, model.CardPatch{Title: &title}, user.ID, &version)
				if err == nil {
					return
				}
				var conflict *VersionConflictError
				if !errors.As(err, &conflict) {
					errCh <- err
					return
				}
				version = conflict.CurrentVersion
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("update failed with a non-conflict error: %v", err)
	}

	got, err := s.GetCard(card.ID)
	require.NoError(t, err)
	require.Equal(t, card.Version+writers, got.Version)

	audits, err := s.ListAudits(card.ID)
	require.NoError(t, err)
	require.Len(t, audits, writers)
}

func TestProjectsAndUsers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	project, err := s.CreateProject("Alpha", "https://example.com/alpha.git")
	require.NoError(t, err)
	require.NotZero(t, project.ID)

	_, err = s.CreateProject("Alpha copy", "https://example.com/alpha.git")
	require.ErrorIs(t, err, ErrExists)

	got, err := s.GetProject(project.ID)
	require.NoError(t, err)
	require.Equal(t, "Alpha", got.Name)
	_, err = s.GetProject(999)
	require.ErrorIs(t, err, ErrNotFound)

	projects, err := s.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 1)

	user, err := s.CreateUser("morgan", model.UserTypeHuman, "")
	require.NoError(t, err)
	require.Empty(t, user.Email)

	_, err = s.CreateUser("morgan", model.UserTypeAI, "")
	require.ErrorIs(t, err, ErrExists)

	bot, err := s.CreateUser("deckbot", model.UserTypeAI, "bot@example.com")
	require.NoError(t, err)
	require.Equal(t, model.UserTypeAI, bot.UserType)

	users, err := s.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = s.GetUser(999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetCardNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetCard(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.ListAudits(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.ListComments(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateCard(1, model.CardPatch{Title: strPtr("x")}, 1, nil)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, errors.As(err, new(*VersionConflictError)))
}

func TestOpenCreatesParentlessPathError(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "taskdeck.db"))
	require.Error(t, err)
}
