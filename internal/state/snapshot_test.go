package state

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	snap := Default(fixedNow, "abc")
	data, err := Encode(snap)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"window\": {\n    \"width\": 300,"), text)
	assert.NotContains(t, text, `"x"`, "unplaced window omits x/y")
	assert.Contains(t, text, `"selectedNoteId": "abc"`)
	assert.Contains(t, text, `"theme": "dark"`)

	empty, err := Encode(Snapshot{})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"selectedNoteId": null`)
	assert.Contains(t, string(empty), `"notes": []`)
}

func TestDecode_RoundTrip(t *testing.T) {
	x, y := 40, 50
	snap := Default(fixedNow, "abc")
	snap.Window.X, snap.Window.Y = &x, &y
	snap.Window.AlwaysOnTop = false

	data, err := Encode(snap)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, snap, got)
	assert.True(t, got.Window.Positioned())
}

func TestDecode_RejectsBadDocuments(t *testing.T) {
	for _, doc := range []string{`{`, `"text"`, `{"window": {"width": "wide"}}`, `{"selectedNoteId": 4}`} {
		_, err := Decode([]byte(doc))
		assert.ErrorIs(t, err, ErrCorrupt, doc)
	}
}

func TestSelection_JSON(t *testing.T) {
	data, err := json.Marshal(None)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var s Selection = "x"
	require.NoError(t, json.Unmarshal([]byte("null"), &s))
	assert.True(t, s.IsNone())

	require.NoError(t, json.Unmarshal([]byte(`"n1"`), &s))
	assert.Equal(t, "n1", s.ID())
}

func TestRepair(t *testing.T) {
	later := fixedNow.Add(time.Hour)
	ids := 0
	newID := func() string {
		ids++
		return "gen"
	}

	in := Snapshot{
		SelectedNoteID: Select("missing"),
		Notes: []Note{
			{ID: "a", CreatedAt: later, UpdatedAt: fixedNow},
			{ID: "a", Title: "dup"},
			{ID: "", Title: "no id", UpdatedAt: fixedNow},
		},
		Settings: Settings{Theme: "neon"},
	}
	out := Repair(in, newID)

	require.Len(t, out.Notes, 2)
	assert.Equal(t, later, out.Notes[0].UpdatedAt, "updatedAt raised to createdAt")
	assert.Equal(t, "gen", out.Notes[1].ID)
	assert.Equal(t, fixedNow, out.Notes[1].CreatedAt)
	assert.Equal(t, Select("a"), out.SelectedNoteID, "dangling selection moves to first note")
	assert.Equal(t, ThemeDark, out.Settings.Theme)
	assert.Equal(t, DefaultWidth, out.Window.Width)
	assert.Equal(t, 1, ids)

	assert.Equal(t, "dup", in.Notes[1].Title, "input is not modified")

	empty := Repair(Snapshot{SelectedNoteID: Select("ghost")}, newID)
	assert.True(t, empty.SelectedNoteID.IsNone())
	assert.NotNil(t, empty.Notes)
}

func TestClone_IsDeep(t *testing.T) {
	x := 1
	snap := Default(fixedNow, "a")
	snap.Window.X = &x

	dup := snap.Clone()
	dup.Notes[0].Title = "changed"
	*dup.Window.X = 99

	assert.Equal(t, WelcomeTitle, snap.Notes[0].Title)
	assert.Equal(t, 1, *snap.Window.X)
}

func TestTheme_Next(t *testing.T) {
	assert.Equal(t, ThemeYellow, ThemeDark.Next())
	assert.Equal(t, ThemeDark, ThemeYellow.Next())
	assert.Equal(t, ThemeDark, Theme("neon").Next())
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"window", "selectedNoteId", "notes", "settings"} {
		assert.Contains(t, props, key)
	}
}
