package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLines(t *testing.T) {
	items := ParseLines("first\n  second  \n\n\nthird\n")

	assert.Equal(t, []CreateItem{
		{Content: "first"},
		{Content: "second"},
		{Content: "third"},
	}, items)
}

func TestParseLinesEmpty(t *testing.T) {
	assert.Nil(t, ParseLines(""))
	assert.Nil(t, ParseLines("\n \n\t\n"))
}
