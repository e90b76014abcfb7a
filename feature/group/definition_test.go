package group

import (
	"encoding/json"
	"testing"
	"time"

	"livesync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByPublication(t *testing.T) {
	tests := []struct {
		name        string
		def         Definition
		kind        reconcile.Kind
		publication string
		params      []any
	}{
		{"defaults", ByPublication("user", "", ""), reconcile.KindRecord, "user", []any{}},
		{"explicit", ByPublication("rooms", reconcile.KindCollection, "rooms.all", WithParams("lobby")), reconcile.KindCollection, "rooms.all", []any{"lobby"}},
		{"list", ByPublication("scores", reconcile.KindList, ""), reconcile.KindList, "scores", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.def.Err())
			assert.Equal(t, tt.kind, tt.def.Kind())
			assert.Equal(t, tt.publication, tt.def.Publication())
			assert.Equal(t, tt.params, tt.def.Params())
			assert.False(t, tt.def.External())
		})
	}
}

func TestByValue(t *testing.T) {
	l := reconcile.NewList(nil)
	d := ByValue("scores", l, WithPreventBind(), WithDebounceOverride(time.Second))

	require.NoError(t, d.Err())
	assert.True(t, d.External())
	assert.Equal(t, reconcile.KindList, d.Kind())
	assert.True(t, d.preventBind)
	require.NotNil(t, d.debounce)
	assert.Equal(t, time.Second, *d.debounce)
}

func TestSameFunc(t *testing.T) {
	a := func(*Group, reconcile.Changes) {}
	b := func(*Group, reconcile.Changes) { _ = 1 }

	assert.True(t, sameFunc(Handler(a), Handler(a)))
	assert.False(t, sameFunc(Handler(a), Handler(b)))
	assert.True(t, sameFunc(Handler(nil), Handler(nil)))
	assert.False(t, sameFunc(Handler(a), Handler(nil)))
}

func TestValues(t *testing.T) {
	r := reconcile.NewRecord(nil)
	r.Update(map[string]any{"a": 1})
	l := reconcile.NewList(nil)
	require.NoError(t, l.Update(reconcile.ListInitial([]any{2, 1}, 1)))

	g := newSyncGroup(t, nil, []Definition{ByValue("z", r), ByValue("a", l)})
	v := g.Values()

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"z", "a"}, v.Names())
	assert.Equal(t, []reconcile.Replica{r, l}, v.All())

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"a":1},"a":[1,2]}`, string(data))
}

func TestMapTarget(t *testing.T) {
	target := NewMapTarget()
	r := reconcile.NewRecord(nil)

	target.Bind("b", r)
	target.Bind("a", r)
	assert.Equal(t, []string{"a", "b"}, target.Names())

	target.Unbind("b")
	_, ok := target.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 1, target.Len())
}
