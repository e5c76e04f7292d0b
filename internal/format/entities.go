// Package format builds Telegram messages as plain text plus message
// entities, so user-supplied text is never interpreted as markup.
package format

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len calculates the UTF-16 length of a string
// This is required because Telegram uses UTF-16 code units for entity offsets/lengths
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2 // Non-BMP characters (surrogate pairs)
			} else {
				length += 1
			}
		}
	}
	return length
}

// Builder appends styled runs and tracks their entity offsets.
type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) Text(s string) *Builder {
	b.sb.WriteString(s)
	b.offset += UTF16Len(s)
	return b
}

func (b *Builder) Line() *Builder {
	return b.Text("\n")
}

func (b *Builder) Bold(s string) *Builder {
	return b.styled("bold", s, nil)
}

func (b *Builder) Italic(s string) *Builder {
	return b.styled("italic", s, nil)
}

func (b *Builder) Code(s string) *Builder {
	return b.styled("code", s, nil)
}

// Mention links name to a user without needing a username.
func (b *Builder) Mention(name string, userID int64) *Builder {
	return b.styled("text_mention", name, &tgbotapi.User{ID: userID, FirstName: name})
}

func (b *Builder) styled(kind, s string, user *tgbotapi.User) *Builder {
	if s == "" {
		return b
	}
	n := UTF16Len(s)
	b.entities = append(b.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: b.offset,
		Length: n,
		User:   user,
	})
	return b.Text(s)
}

func (b *Builder) Result() ParseResult {
	return ParseResult{
		Text:     strings.TrimRight(b.sb.String(), " \n"),
		Entities: b.entities,
	}
}

// Field is one labelled line of an Embed.
type Field struct {
	Name  string
	Value string
	Code  bool
}

// Embed is a titled card: bold title, free description, labelled fields,
// italic footer.
type Embed struct {
	Title       string
	Description string
	Fields      []Field
	Footer      string
}

func (e Embed) Render() ParseResult {
	var b Builder
	if e.Title != "" {
		b.Bold(e.Title).Line()
	}
	if e.Description != "" {
		b.Text(e.Description).Line()
	}
	if len(e.Fields) > 0 {
		b.Line()
	}
	for _, f := range e.Fields {
		b.Bold(f.Name + ":").Text(" ")
		if f.Code {
			b.Code(f.Value)
		} else {
			b.Text(f.Value)
		}
		b.Line()
	}
	if e.Footer != "" {
		b.Line().Italic(e.Footer)
	}
	return b.Result()
}

// Message builds a send config carrying r's text and entities.
func Message(chatID int64, r ParseResult) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.Entities = r.Entities
	return msg
}
