package roster

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Armandorocha13/Finance.io/ledger"
	"github.com/Armandorocha13/Finance.io/mirror"
)

func newRoster(t *testing.T) (*Roster, *mirror.MemoryStore) {
	t.Helper()
	store := mirror.NewMemoryStore()
	return New(store, nil), store
}

func TestAddAndOrdering(t *testing.T) {
	r, _ := newRoster(t)
	_, err := r.Add("Juninho", 24, "meia")
	require.NoError(t, err)
	_, err = r.Add("William", 40, "atacante")
	require.NoError(t, err)
	_, err = r.Add("Ivan", 0, "")
	require.NoError(t, err)

	players := r.Players()
	require.Len(t, players, 3)
	assert.Equal(t, "William", players[0].Name)
	assert.Equal(t, "Juninho", players[1].Name)
	assert.Equal(t, "Ivan", players[2].Name)
}

func TestAdd_RequiresName(t *testing.T) {
	r, _ := newRoster(t)
	_, err := r.Add("  ", 0, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGoalClamp(t *testing.T) {
	r, _ := newRoster(t)
	p, err := r.Add("Ezequiel", 0, "")
	require.NoError(t, err)

	r.DecrementGoal(p.ID)
	r.DecrementGoal(p.ID)
	assert.Equal(t, 0, r.Players()[0].Goals)

	r.IncrementGoal(p.ID)
	r.IncrementGoal(p.ID)
	r.DecrementGoal(p.ID)
	assert.Equal(t, 1, r.Players()[0].Goals)
}

func TestUpdateAndRemove(t *testing.T) {
	r, _ := newRoster(t)
	p, err := r.Add("Bob", 7, "")
	require.NoError(t, err)

	name := "Bob Silva"
	goals := -3
	r.Update(p.ID, &name, &goals, nil)
	got := r.Players()[0]
	assert.Equal(t, "Bob Silva", got.Name)
	assert.Equal(t, 0, got.Goals) // negative update clamps

	r.Update("no-such-id", &name, nil, nil) // no-op
	require.Len(t, r.Players(), 1)

	r.Remove(p.ID)
	assert.Empty(t, r.Players())
	r.Remove(p.ID) // absence is a no-op
}

func TestPersistenceAcrossInstances(t *testing.T) {
	store := mirror.NewMemoryStore()
	r := New(store, nil)
	_, err := r.Add("Daniel", 11, "")
	require.NoError(t, err)

	again := New(store, nil)
	players := again.Players()
	require.Len(t, players, 1)
	assert.Equal(t, "Daniel", players[0].Name)
}

func TestCorruptMirrorStartsEmpty(t *testing.T) {
	store := mirror.NewMemoryStore()
	require.NoError(t, store.Set(mirror.KeyPlayers, []byte(`{oops`)))
	r := New(store, nil)
	assert.Empty(t, r.Players())
}

type fakeImporter struct {
	existing map[string]struct{}
	inserted []ledger.Player
	fail     bool
}

func (f *fakeImporter) ListPlayerNames(context.Context, string) (map[string]struct{}, error) {
	if f.fail {
		return nil, fmt.Errorf("remote store unavailable")
	}
	return f.existing, nil
}

func (f *fakeImporter) InsertPlayers(_ context.Context, _ string, players []ledger.Player) (int, error) {
	f.inserted = append(f.inserted, players...)
	return len(players), nil
}

func TestImportAll_SkipsCaseInsensitiveDuplicates(t *testing.T) {
	r, _ := newRoster(t)
	_, err := r.Add("William", 40, "")
	require.NoError(t, err)
	_, err = r.Add("Juninho", 24, "")
	require.NoError(t, err)

	imp := &fakeImporter{existing: map[string]struct{}{"william": {}}}
	result, err := r.ImportAll(context.Background(), imp, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, imp.inserted, 1)
	assert.Equal(t, "Juninho", imp.inserted[0].Name)
}

func TestImportAll_AllDuplicates(t *testing.T) {
	r, _ := newRoster(t)
	_, err := r.Add("William", 40, "")
	require.NoError(t, err)

	imp := &fakeImporter{existing: map[string]struct{}{"william": {}}}
	result, err := r.ImportAll(context.Background(), imp, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, imp.inserted)
}

func TestImportAll_RemoteFailure(t *testing.T) {
	r, _ := newRoster(t)
	_, err := r.Add("William", 40, "")
	require.NoError(t, err)

	_, err = r.ImportAll(context.Background(), &fakeImporter{fail: true}, "owner-1")
	require.Error(t, err)
}
