package familytree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTree = `{
  "name": "Lakshmi",
  "born": 2019,
  "milkStarts": "2022",
  "children": [
    {"name": "Ganga", "born": 2021, "milkStarts": 2024, "children": [
      {"name": "Yamuna", "born": 2023, "milkStarts": 2026}
    ]},
    {"name": "Kaveri", "born": "2022", "milkStarts": null, "children": []}
  ]
}`

func TestConvertPreservesShape(t *testing.T) {
	root, err := Decode(strings.NewReader(sampleTree))
	require.NoError(t, err)

	out := Convert(root)
	require.NotNil(t, out)

	assert.Equal(t, "Lakshmi", out.Name)
	assert.Equal(t, Attributes{Born: "2019", MilkStarts: "2022", TotalChildren: 2}, out.Attributes)
	require.Len(t, out.Children, 2)

	ganga := out.Children[0]
	assert.Equal(t, "Ganga", ganga.Name)
	assert.Equal(t, 1, ganga.Attributes.TotalChildren)
	require.Len(t, ganga.Children, 1)
	assert.Equal(t, "Yamuna", ganga.Children[0].Name)
	assert.Equal(t, 0, ganga.Children[0].Attributes.TotalChildren)
	assert.NotNil(t, ganga.Children[0].Children)

	kaveri := out.Children[1]
	assert.Equal(t, Value("2022"), kaveri.Attributes.Born)
	assert.Equal(t, Value(""), kaveri.Attributes.MilkStarts)

	assert.Equal(t, 4, Size(out))
	assert.Equal(t, 3, Depth(out))
}

func TestConvertLeafAndNil(t *testing.T) {
	assert.Nil(t, Convert(nil))

	leaf := Convert(&Node{Name: "Solo"})
	assert.Equal(t, 0, leaf.Attributes.TotalChildren)
	assert.Empty(t, leaf.Children)

	skip := Convert(&Node{Name: "Root", Children: []*Node{nil, {Name: "Child"}}})
	assert.Equal(t, 1, skip.Attributes.TotalChildren)
}

func TestDisplayNodeJSON(t *testing.T) {
	out := Convert(&Node{Name: "Solo", Born: "2020"})
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Solo","attributes":{"born":"2020","milkStarts":"","totalChildren":0},"children":[]}`, string(data))
}

func TestDecodeRejectsBadAttribute(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"name":"x","born":{"y":1}}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTree), 0o600))

	root, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Lakshmi", root.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
