package generators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	cases := map[string]string{
		"plain text":                         "plain text",
		"<i>Unlike</i> other fox<br>spirits": "Unlike other fox spirits",
		"Tom &amp; Jerry":                    "Tom & Jerry",
		"<mainText><stats>50 Attack</stats></mainText>": "50 Attack",
		"":                                   "",
	}
	for in, want := range cases {
		require.Equal(t, want, StripTags(in), "input %q", in)
	}
}

func TestRedact(t *testing.T) {
	got := Redact("Ahri casts Orb of Deception. Ahri dashes.", "Ahri", "Orb of Deception", "")
	require.Equal(t, "----- casts -----. ----- dashes.", got)
}
