package samples

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatements(t *testing.T) {
	got := Statements()
	assert.Len(t, got, 12)
	assert.Equal(t, "Nunca podré superar este problema, es demasiado difícil", got[0])
	for _, s := range got {
		assert.NotEmpty(t, strings.TrimSpace(s))
	}
}

func TestStatements_ReturnsCopy(t *testing.T) {
	got := Statements()
	got[0] = "changed"
	assert.NotEqual(t, "changed", Statements()[0])
}
