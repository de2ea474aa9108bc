package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookmarkSpec() *Spec {
	add := &Spec{
		Name: "add",
		Positionals: []Positional{
			{Name: "name", Parse: StringParser},
			{Name: "conference", Parse: StringParser},
		},
		Flags: []Flag{
			{Name: "autojoin", Parse: BoolParser},
		},
	}
	del := &Spec{
		Name:        "del",
		Positionals: []Positional{{Name: "name", Parse: StringParser}},
	}
	return &Spec{
		Name:        "bookmark",
		Positionals: []Positional{{Name: "action", Parse: StringParser}},
		Children: map[string]*Spec{
			"add": add,
			"del": del,
		},
	}
}

func TestParseBookmarkAdd(t *testing.T) {
	r := NewRegistry()
	r.Add(bookmarkSpec())

	cmd, err := r.Parse(`/bookmark add aparte aparte@conf.example/n autojoin=on`)
	require.NoError(t, err)
	assert.Equal(t, "add", cmd.Name)
	assert.Equal(t, "aparte", cmd.Values["name"])
	assert.Equal(t, "aparte@conf.example/n", cmd.Values["conference"])
	assert.Equal(t, true, cmd.Flags["autojoin"])
}

func TestParseMissingArgsYieldsParseError(t *testing.T) {
	r := NewRegistry()
	r.Add(bookmarkSpec())

	_, err := r.Parse(`/bookmark add`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestParseUnknownFlag(t *testing.T) {
	r := NewRegistry()
	r.Add(bookmarkSpec())

	_, err := r.Parse(`/bookmark add aparte aparte@conf.example bogus=1`)
	require.Error(t, err)
}

func TestTokenizeQuotingAndEscapes(t *testing.T) {
	toks, err := Tokenize(`foo "bar baz" qu\ ux`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar baz", "qu ux"}, toks)
}

func TestFormatRoundTrip(t *testing.T) {
	line := Format("msg", []string{"alice@example.com", "hello there"})
	r := NewRegistry()
	r.Add(&Spec{
		Name: "msg",
		Positionals: []Positional{
			{Name: "jid", Parse: StringParser},
			{Name: "text", Parse: StringParser},
		},
	})
	cmd, err := r.Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", cmd.Values["jid"])
	assert.Equal(t, "hello there", cmd.Values["text"])
}

func TestUnknownCommand(t *testing.T) {
	r := NewRegistry()
	_, err := r.Parse("/nope")
	require.Error(t, err)
}
