package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

func TestCorrect(t *testing.T) {
	tests := []struct {
		name string
		text string
		hint constants.Hint
		want string
	}{
		{name: "numeric maps letters to digits", text: "I0S", hint: constants.HintNumeric, want: "105"},
		{name: "numeric drops spaces", text: "98 76 B Z", hint: constants.HintNumeric, want: "987682"},
		{name: "numeric lower-case confusions", text: "o s l", hint: constants.HintNumeric, want: "051"},
		{name: "alpha maps digits to letters", text: "I0S", hint: constants.HintAlpha, want: "IOS"},
		{name: "alpha full table", text: "05182", hint: constants.HintAlpha, want: "OSIBZ"},
		{name: "alphanumeric is conservative", text: "OSlIB", hint: constants.HintAlphanumeric, want: "0S11B"},
		{name: "none behaves like alphanumeric", text: "OSlIB", hint: constants.HintNone, want: "0S11B"},
		{name: "empty stays empty", text: "", hint: constants.HintNumeric, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Correct(tt.text, tt.hint))
		})
	}
}

func TestCorrectHintsDisagreeOnMixedInput(t *testing.T) {
	for _, in := range []string{"I0S", "B8", "Z2O0"} {
		assert.NotEqual(t, Correct(in, constants.HintNumeric), Correct(in, constants.HintAlpha), in)
	}
}

func TestCorrectIsDeterministic(t *testing.T) {
	first := Correct("S0lIB2", constants.HintNumeric)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Correct("S0lIB2", constants.HintNumeric))
	}
}

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CleanWhitespace("  a \t b\n\nc  "))
	assert.Equal(t, "", CleanWhitespace(""))
}
