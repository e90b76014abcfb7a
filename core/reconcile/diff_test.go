package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatch(t *testing.T) {
	tests := []struct {
		name     string
		batch    string
		wantTags []string
		wantNil  bool
		wantErr  bool
	}{
		{name: "empty input", batch: ``, wantNil: true},
		{name: "null", batch: ` null `, wantNil: true},
		{name: "empty batch", batch: `[]`, wantTags: []string{}},
		{name: "ops", batch: `[["i",[1],1],["a",2]]`, wantTags: []string{"i", "a"}},
		{name: "malformed ops", batch: `[5,[],[7,1],null]`, wantTags: []string{"", "", "", ""}},
		{name: "not an array", batch: `{"i":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := DecodeBatch(json.RawMessage(tt.batch))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, ops)
				return
			}

			tags := make([]string, len(ops))
			for i, op := range ops {
				tags[i] = op.Tag
			}
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestOpArg(t *testing.T) {
	ops, err := DecodeBatch(json.RawMessage(`[["i",[1,2],null]]`))
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.JSONEq(t, `[1,2]`, string(ops[0].Arg(0)))
	assert.Nil(t, ops[0].Arg(1))
	assert.Nil(t, ops[0].Arg(2))
	assert.Nil(t, ops[0].Arg(-1))
}

func TestEncode(t *testing.T) {
	batch, err := Encode(
		ListInitial(nil, 0),
		ListAdd("x"),
		CollectionInitial(nil, SortSpec{{Path: "n", Direction: -1}}),
		CollectionCreate(map[string]any{"_id": "a"}),
		CollectionUpdate(map[string]any{"_id": "a", "n": 1}, "n"),
		CollectionAtomicUpdate(map[string]any{"_id": "a"}),
		CollectionDelete("a"),
	)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		["i",[],0],
		["a","x"],
		["i",[],{"n":-1}],
		["c",{"_id":"a"}],
		["u",{"_id":"a","n":1},["n"]],
		["u",{"_id":"a"},true],
		["d","a"]
	]`, string(batch))

	empty, err := Encode()
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(empty))

	_, err = Encode([]any{OpAdd, func() {}})
	assert.Error(t, err)
}
