package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listCall struct {
	changes *ListChanges
	batch   json.RawMessage
}

func newTestList() (*List, *[]listCall) {
	calls := &[]listCall{}
	l := NewList(func(_ *List, changes *ListChanges, batch json.RawMessage) {
		*calls = append(*calls, listCall{changes, batch})
	})
	return l, calls
}

func TestListInitialSorted(t *testing.T) {
	l, calls := newTestList()

	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",[3,1,2],1]]`)))

	assert.Equal(t, []any{1.0, 2.0, 3.0}, l.Items())
	assert.Equal(t, 1, l.SortDirection())
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	// Changesets keep application order; only the list itself is sorted.
	assert.Equal(t, []any{3.0, 1.0, 2.0}, c.changes.Items)
	assert.Equal(t, []any{3.0, 1.0, 2.0}, c.changes.Added)
	assert.Empty(t, c.changes.Deleted)
	assert.NotNil(t, c.batch)
}

func TestListInitialIdempotent(t *testing.T) {
	l, _ := newTestList()
	batch := json.RawMessage(`[["i",["b","a","c"],-1]]`)

	require.NoError(t, l.ApplyDiff(batch))
	once := l.Items()
	require.NoError(t, l.ApplyDiff(batch))

	assert.Equal(t, once, l.Items())
	assert.Equal(t, []any{"c", "b", "a"}, l.Items())
}

func TestListOps(t *testing.T) {
	tests := []struct {
		name        string
		batches     []string
		wantItems   []any
		wantAdded   []any
		wantDeleted []any
		wantDir     int
	}{
		{
			name:      "add appends unsorted",
			batches:   []string{`[["i",[1],0]]`, `[["a",3],["a",2]]`},
			wantItems: []any{1.0, 3.0, 2.0},
			wantAdded: []any{3.0, 2.0},
		},
		{
			name:      "add skips duplicates",
			batches:   []string{`[["i",[1,2],0]]`, `[["a",2]]`},
			wantItems: []any{1.0, 2.0},
		},
		{
			name:      "add re-sorts descending",
			batches:   []string{`[["i",[1,3],-1]]`, `[["a",2]]`},
			wantItems: []any{3.0, 2.0, 1.0},
			wantAdded: []any{2.0},
			wantDir:   -1,
		},
		{
			name:        "delete removes first equal",
			batches:     []string{`[["i",["x","y"],0]]`, `[["d","x"],["d","missing"]]`},
			wantItems:   []any{"y"},
			wantDeleted: []any{"x"},
		},
		{
			name:        "unknown op clears and continues",
			batches:     []string{`[["i",[1,2],1]]`, `[["zz"],["a",5]]`},
			wantItems:   []any{5.0},
			wantAdded:   []any{5.0},
			wantDeleted: []any{1.0, 2.0},
		},
		{
			name:        "initial reports dropped items",
			batches:     []string{`[["i",[1,2],0]]`, `[["i",[2,3],0]]`},
			wantItems:   []any{2.0, 3.0},
			wantAdded:   []any{2.0, 3.0},
			wantDeleted: []any{1.0},
		},
		{
			name:      "add then delete in one batch nets out",
			batches:   []string{`[["i",[1],0]]`, `[["a",2],["d",2]]`},
			wantItems: []any{1.0},
		},
		{
			name:      "initial dedupes",
			batches:   []string{`[["i",[1,1,2],0]]`},
			wantItems: []any{1.0, 2.0},
			wantAdded: []any{1.0, 2.0},
		},
		{
			name:        "non-array op clears",
			batches:     []string{`[["i",[1],0]]`, `[7]`},
			wantDeleted: []any{1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, calls := newTestList()
			for _, b := range tt.batches {
				require.NoError(t, l.ApplyDiff(json.RawMessage(b)))
			}

			assert.Equal(t, len(tt.wantItems), l.Len())
			if len(tt.wantItems) > 0 {
				assert.Equal(t, tt.wantItems, l.Items())
			}
			assert.Equal(t, tt.wantDir, l.SortDirection())

			last := (*calls)[len(*calls)-1].changes
			assert.ElementsMatch(t, tt.wantAdded, last.Added)
			assert.ElementsMatch(t, tt.wantDeleted, last.Deleted)
			assertListChangesConsistent(t, l, last)
		})
	}
}

func assertListChangesConsistent(t *testing.T, l *List, c *ListChanges) {
	t.Helper()
	for _, a := range c.Added {
		assert.True(t, l.Contains(a), "added %v must be held", a)
	}
	for _, d := range c.Deleted {
		assert.False(t, l.Contains(d), "deleted %v must be absent", d)
	}
	if dir := l.SortDirection(); dir != 0 {
		items := l.Items()
		cmp := directionCompare(dir)
		for i := 1; i < len(items); i++ {
			assert.LessOrEqual(t, cmp(items[i-1], items[i]), 0)
		}
	}
}

func TestListNullBatch(t *testing.T) {
	l, calls := newTestList()
	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",[1,2],1]]`)))

	require.NoError(t, l.ApplyDiff(json.RawMessage(`null`)))

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.SortDirection())
	last := (*calls)[1]
	assert.Nil(t, last.batch)
	assert.Empty(t, last.changes.Added)
	assert.ElementsMatch(t, []any{1.0, 2.0}, last.changes.Deleted)
}

func TestListEmptyBatchKeepsItems(t *testing.T) {
	l, calls := newTestList()
	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",[1,2],0]]`)))
	require.NoError(t, l.ApplyDiff(json.RawMessage(`[]`)))

	assert.Equal(t, []any{1.0, 2.0}, l.Items())
	require.Len(t, *calls, 2)
	assert.Equal(t, `[]`, string((*calls)[1].batch))
	assert.Zero(t, (*calls)[1].changes.Len())
}

func TestListUndecodableBatch(t *testing.T) {
	l, calls := newTestList()
	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",[1],0]]`)))

	err := l.ApplyDiff(json.RawMessage(`{"not":"a batch"}`))
	assert.Error(t, err)
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, (*calls)[1].batch)
}

func TestListUpdateHelpers(t *testing.T) {
	l, _ := newTestList()

	require.NoError(t, l.Update(ListInitial([]any{"b", "a"}, 1), ListAdd("c"), ListDelete("a")))
	assert.Equal(t, []any{"b", "c"}, l.Items())

	require.NoError(t, l.Update())
	assert.Equal(t, 0, l.Len())
}

func TestListSnapshot(t *testing.T) {
	l, _ := newTestList()
	assert.Nil(t, l.Snapshot())

	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",[2,1],1]]`)))
	assert.JSONEq(t, `[["i",[1,2],1]]`, string(l.Snapshot()))

	replay, _ := newTestList()
	require.NoError(t, replay.ApplyDiff(l.Snapshot()))
	assert.Equal(t, l.Items(), replay.Items())
	assert.Equal(t, 1, replay.SortDirection())

	changes, ok := l.SnapshotChanges().(*ListChanges)
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, changes.Added)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(data))
}

func TestListMixedValues(t *testing.T) {
	l, _ := newTestList()
	require.NoError(t, l.ApplyDiff(json.RawMessage(`[["i",["b",2,null,true,1,"a"],1]]`)))

	assert.Equal(t, []any{nil, true, 1.0, 2.0, "a", "b"}, l.Items())
}
