package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theEricHoang/coal/models"
)

var testUsers = fakeDirectory{1: "alice", 2: "bob", 3: "carol"}

func newTestProjector(t *testing.T, e *Engine, store Store, catalog Catalog) *Projector {
	t.Helper()
	p := NewProjector(store, catalog, testUsers)
	p.now = func() time.Time { return e.now() }
	return p
}

func TestGetLibraryLoanViews(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return start }
	p := newTestProjector(t, e, store, testGames)

	rec := addGame(t, e, alice, 10)
	_, err := e.UpdatePlaytime(ctx, alice, UpdatePlaytime{OwnershipID: rec.ID, DeltaHours: 12})
	require.NoError(t, err)
	_, err = e.Loan(ctx, alice, Loan{OwnershipID: rec.ID, BorrowerID: bob.UserID, DurationDays: 7})
	require.NoError(t, err)

	e.now = func() time.Time { return start.Add(2*24*time.Hour + time.Hour) }

	owner, err := p.GetLibrary(ctx, alice.UserID, Query{})
	require.NoError(t, err)
	require.Len(t, owner.Games, 1)
	item := owner.Games[0]
	assert.True(t, item.IsLoanedOut)
	assert.False(t, item.IsBorrowed)
	assert.Equal(t, "bob", item.LoanedToUsername)
	assert.Nil(t, item.HoursPlayed)
	assert.Nil(t, item.Price)
	assert.Nil(t, item.AcquiredAt)
	require.NotNil(t, item.DaysRemaining)
	assert.Equal(t, 5, *item.DaysRemaining)

	borrower, err := p.GetLibrary(ctx, bob.UserID, Query{})
	require.NoError(t, err)
	require.Len(t, borrower.Games, 1)
	item = borrower.Games[0]
	assert.True(t, item.IsBorrowed)
	assert.Equal(t, "alice", item.OwnerUsername)
	assert.Nil(t, item.AcquiredAt)
	require.NotNil(t, item.HoursPlayed)
	assert.Equal(t, 12.0, *item.HoursPlayed)
	assert.Equal(t, 5, *item.DaysRemaining)
	assert.False(t, item.LoanExpired)

	e.now = func() time.Time { return start.Add(10 * 24 * time.Hour) }
	borrower, err = p.GetLibrary(ctx, bob.UserID, Query{})
	require.NoError(t, err)
	assert.Equal(t, 0, *borrower.Games[0].DaysRemaining)
	assert.True(t, borrower.Games[0].LoanExpired)

	_, err = e.ReturnLoan(ctx, bob, rec.ID)
	require.NoError(t, err)

	borrower, err = p.GetLibrary(ctx, bob.UserID, Query{})
	require.NoError(t, err)
	assert.Empty(t, borrower.Games)

	owner, err = p.GetLibrary(ctx, alice.UserID, Query{})
	require.NoError(t, err)
	require.Len(t, owner.Games, 1)
	item = owner.Games[0]
	assert.False(t, item.IsLoanedOut)
	assert.Nil(t, item.DaysRemaining)
	require.NotNil(t, item.HoursPlayed)
	assert.Equal(t, 12.0, *item.HoursPlayed)
	require.NotNil(t, item.AcquiredAt)
}

func TestGetLibrarySkipsUnknownGames(t *testing.T) {
	e, store := newTestEngine(t)
	addGame(t, e, alice, 10)
	addGame(t, e, alice, 20)

	partial := fakeCatalog{20: testGames[20]}
	p := newTestProjector(t, e, store, partial)

	lib, err := p.GetLibrary(context.Background(), alice.UserID, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, lib.TotalGames)
	require.Len(t, lib.Games, 1)
	assert.Equal(t, "Celeste", lib.Games[0].Title)
}

func TestGetLibraryEmpty(t *testing.T) {
	e, store := newTestEngine(t)
	p := newTestProjector(t, e, store, testGames)

	lib, err := p.GetLibrary(context.Background(), carol.UserID, Query{})
	require.NoError(t, err)
	assert.Equal(t, carol.UserID, lib.ViewerID)
	assert.Zero(t, lib.TotalGames)
	assert.NotNil(t, lib.Games)
	assert.Empty(t, lib.Games)
}

func TestGetLibraryQuery(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newTestProjector(t, e, store, testGames)

	var ids []uint
	for i, gameID := range []uint{10, 20, 30} {
		e.now = func() time.Time { return base.Add(time.Duration(i) * 24 * time.Hour) }
		ids = append(ids, addGame(t, e, alice, gameID).ID)
	}
	_, err := e.UpdatePlaytime(ctx, alice, UpdatePlaytime{OwnershipID: ids[1], DeltaHours: 40})
	require.NoError(t, err)
	_, err = e.UpdatePlaytime(ctx, alice, UpdatePlaytime{OwnershipID: ids[2], DeltaHours: 5})
	require.NoError(t, err)
	_, err = e.SetStatus(ctx, alice, SetStatus{OwnershipID: ids[2], Status: models.StatusPlaying})
	require.NoError(t, err)

	titles := func(lib *Library) []string {
		out := make([]string, len(lib.Games))
		for i, g := range lib.Games {
			out[i] = g.Title
		}
		return out
	}

	tests := []struct {
		name  string
		query Query
		want  []string
		total int
	}{
		{"insertion order", Query{}, []string{"Hollow Knight", "Celeste", "Hades"}, 3},
		{"by title", Query{Sort: SortTitle}, []string{"Celeste", "Hades", "Hollow Knight"}, 3},
		{"by hours", Query{Sort: SortHours}, []string{"Celeste", "Hades", "Hollow Knight"}, 3},
		{"most recent", Query{Sort: SortRecent}, []string{"Hades", "Celeste", "Hollow Knight"}, 3},
		{"title substring", Query{Title: "ho"}, []string{"Hollow Knight"}, 1},
		{"genre any case", Query{Genre: "platformer"}, []string{"Celeste"}, 1},
		{"status", Query{Status: models.StatusPlaying}, []string{"Hades"}, 1},
		{"paged", Query{Sort: SortTitle, Limit: 1, Offset: 1}, []string{"Hades"}, 3},
		{"past the end", Query{Offset: 5}, []string{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := p.GetLibrary(ctx, alice.UserID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(lib))
			assert.Equal(t, tt.total, lib.TotalGames)
		})
	}

	_, err = p.GetLibrary(ctx, alice.UserID, Query{Limit: 101})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = p.GetLibrary(ctx, alice.UserID, Query{Sort: "price"})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestLoanedOut(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	p := newTestProjector(t, e, store, testGames)

	first := addGame(t, e, alice, 10)
	addGame(t, e, alice, 20)
	_, err := e.Loan(ctx, alice, Loan{OwnershipID: first.ID, BorrowerID: carol.UserID, DurationDays: 3})
	require.NoError(t, err)

	items, err := p.LoanedOut(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].OwnershipID)
	assert.Equal(t, "carol", items[0].LoanedToUsername)
	assert.Equal(t, 3, *items[0].DaysRemaining)
}

func TestSortItemsTiesByID(t *testing.T) {
	items := []LibraryItem{
		{OwnershipID: 3, Title: "b"},
		{OwnershipID: 1, Title: "B"},
		{OwnershipID: 2, Title: "a"},
	}
	SortItems(items, SortTitle)
	assert.Equal(t, uint(2), items[0].OwnershipID)
	assert.Equal(t, uint(1), items[1].OwnershipID)
	assert.Equal(t, uint(3), items[2].OwnershipID)
}
