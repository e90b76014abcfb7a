package snapshot

import (
	"encoding/json"
	"testing"

	"livesync/core/errors"
	"livesync/core/reconcile"
	"livesync/core/subscription"
	"livesync/core/transport/mocks"
	"livesync/feature/group"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	r := reconcile.NewRecord(nil)
	r.Update(map[string]any{"theme": "dark"})
	l := reconcile.NewList(nil)

	g, err := group.New(nil, []group.Definition{
		group.ByValue("settings", r),
		group.ByValue("scores", l),
	}, group.WithDebounce(-1), group.WithItemDebounce(-1))
	require.NoError(t, err)

	entries := Capture(g)
	require.Len(t, entries, 2)

	assert.Equal(t, 0, entries[0].Seq)
	assert.Equal(t, "settings", entries[0].Name)
	assert.Equal(t, "object", entries[0].Kind)
	assert.JSONEq(t, `{"theme":"dark"}`, string(entries[0].Diff))

	assert.Equal(t, 1, entries[1].Seq)
	assert.Equal(t, "array", entries[1].Kind)
	assert.Equal(t, "null", string(entries[1].Diff))
}

func TestBatches(t *testing.T) {
	entries := []Entry{
		{Seq: 2, Diff: json.RawMessage(`"c"`)},
		{Seq: 0, Diff: json.RawMessage(`"a"`)},
		{Seq: 1, Diff: json.RawMessage(`"b"`)},
	}

	got := Batches(entries)
	require.Len(t, got, 3)
	assert.Equal(t, `"a"`, string(got[0]))
	assert.Equal(t, `"b"`, string(got[1]))
	assert.Equal(t, `"c"`, string(got[2]))
	assert.Equal(t, 2, entries[0].Seq, "input is left unsorted")
}

func TestPreloadFromCapture(t *testing.T) {
	entries := []Entry{
		{Seq: 0, Name: "settings", Kind: "object", Publication: "settings", Diff: json.RawMessage(`{"theme":"dark"}`)},
		{Seq: 1, Name: "scores", Kind: "array", Publication: "scores", Diff: json.RawMessage(`[["i",[3,1,2],1]]`)},
	}

	reg := subscription.New()
	reg.Bind(mocks.NewLoopback(false))
	reg.Preload(Batches(entries)...)

	g, err := group.New(reg, []group.Definition{
		group.ByPublication("settings", reconcile.KindRecord, ""),
		group.ByPublication("scores", reconcile.KindList, ""),
	}, group.WithDebounce(-1), group.WithItemDebounce(-1))
	require.NoError(t, err)

	assert.True(t, g.IsLoaded(), "loaded from the cache before the transport opens")
	scores, _ := g.Values().Get("scores")
	assert.Equal(t, []any{1.0, 2.0, 3.0}, scores.(*reconcile.List).Items())
	assert.False(t, reg.Preloaded())
}

func TestMatch(t *testing.T) {
	entries := []Entry{
		{Seq: 1, Name: "guests", Kind: "array", Publication: "users.guests"},
		{Seq: 0, Name: "admins", Kind: "array", Publication: "users.admins"},
	}

	tests := []struct {
		name    string
		defs    []group.Definition
		wantErr bool
	}{
		{"Same items", []group.Definition{
			group.ByPublication("admins", reconcile.KindList, "users.admins"),
			group.ByPublication("guests", reconcile.KindList, "users.guests"),
		}, false},
		{"Reordered", []group.Definition{
			group.ByPublication("guests", reconcile.KindList, "users.guests"),
			group.ByPublication("admins", reconcile.KindList, "users.admins"),
		}, true},
		{"Kind changed", []group.Definition{
			group.ByPublication("admins", reconcile.KindCollection, "users.admins"),
			group.ByPublication("guests", reconcile.KindList, "users.guests"),
		}, true},
		{"Publication changed", []group.Definition{
			group.ByPublication("admins", reconcile.KindList, "users.root"),
			group.ByPublication("guests", reconcile.KindList, "users.guests"),
		}, true},
		{"Item added", []group.Definition{
			group.ByPublication("admins", reconcile.KindList, "users.admins"),
			group.ByPublication("guests", reconcile.KindList, "users.guests"),
			group.ByPublication("bots", reconcile.KindList, ""),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Match(entries, tt.defs)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrStale))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPreloadSkipsReorderedItems(t *testing.T) {
	entries := []Entry{
		{Seq: 0, Name: "admins", Kind: "array", Publication: "admins", Diff: json.RawMessage(`[["i",["root"],0]]`)},
		{Seq: 1, Name: "guests", Kind: "array", Publication: "guests", Diff: json.RawMessage(`[["i",["anon"],0]]`)},
	}
	defs := []group.Definition{
		group.ByPublication("guests", reconcile.KindList, ""),
		group.ByPublication("admins", reconcile.KindList, ""),
	}

	reg := subscription.New()
	reg.Bind(mocks.NewLoopback(false))
	err := Preload(reg, entries, defs)
	require.ErrorIs(t, err, ErrStale)
	assert.False(t, reg.Preloaded())

	g, err := group.New(reg, defs, group.WithDebounce(-1), group.WithItemDebounce(-1))
	require.NoError(t, err)
	assert.False(t, g.IsLoaded(), "no stale data is delivered")
	guests, _ := g.Values().Get("guests")
	assert.Empty(t, guests.(*reconcile.List).Items())
}

func TestPreloadMatchingItems(t *testing.T) {
	entries := []Entry{
		{Seq: 0, Name: "admins", Kind: "array", Publication: "admins", Diff: json.RawMessage(`[["i",["root"],0]]`)},
		{Seq: 1, Name: "guests", Kind: "array", Publication: "guests", Diff: json.RawMessage(`[["i",["anon"],0]]`)},
	}
	defs := []group.Definition{
		group.ByPublication("admins", reconcile.KindList, ""),
		group.ByPublication("guests", reconcile.KindList, ""),
	}

	reg := subscription.New()
	reg.Bind(mocks.NewLoopback(false))
	require.NoError(t, Preload(reg, entries, defs))

	g, err := group.New(reg, defs, group.WithDebounce(-1), group.WithItemDebounce(-1))
	require.NoError(t, err)
	require.True(t, g.IsLoaded())
	guests, _ := g.Values().Get("guests")
	assert.Equal(t, []any{"anon"}, guests.(*reconcile.List).Items())
	admins, _ := g.Values().Get("admins")
	assert.Equal(t, []any{"root"}, admins.(*reconcile.List).Items())
}

func TestPreloadEmpty(t *testing.T) {
	reg := subscription.New()
	require.NoError(t, Preload(reg, nil, []group.Definition{group.ByPublication("a", "", "")}))
	assert.False(t, reg.Preloaded())
}
