package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 5, UTF16Len("hello"))
	assert.Equal(t, 2, UTF16Len("日本"))
	assert.Equal(t, 1, UTF16Len("⏰"))
	assert.Equal(t, 2, UTF16Len("😀"))
}

func TestBuilderOffsets(t *testing.T) {
	var b Builder
	b.Text("😀 ").Bold("due").Text(" *not bold* ").Code("1234").Mention("Ana", 42)
	r := b.Result()

	assert.Equal(t, "😀 due *not bold* 1234Ana", r.Text)
	require.Len(t, r.Entities, 3)

	assert.Equal(t, "bold", r.Entities[0].Type)
	assert.Equal(t, 3, r.Entities[0].Offset)
	assert.Equal(t, 3, r.Entities[0].Length)

	assert.Equal(t, "code", r.Entities[1].Type)
	assert.Equal(t, 18, r.Entities[1].Offset)

	assert.Equal(t, "text_mention", r.Entities[2].Type)
	require.NotNil(t, r.Entities[2].User)
	assert.Equal(t, int64(42), r.Entities[2].User.ID)
}

func TestEmbedRender(t *testing.T) {
	r := Embed{
		Title:       "Reminder",
		Description: "stretch",
		Fields: []Field{
			{Name: "ID", Value: "1234", Code: true},
			{Name: "Repeats", Value: "Daily"},
		},
		Footer: "snoozed 2 times",
	}.Render()

	assert.Equal(t, "Reminder\nstretch\n\nID: 1234\nRepeats: Daily\n\nsnoozed 2 times", r.Text)
	types := make([]string, len(r.Entities))
	for i, e := range r.Entities {
		types[i] = e.Type
	}
	assert.Equal(t, []string{"bold", "bold", "code", "bold", "italic"}, types)
}

func TestMessageCarriesEntities(t *testing.T) {
	var b Builder
	msg := Message(7, b.Bold("hi").Result())
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, "hi", msg.Text)
	assert.Len(t, msg.Entities, 1)
}
