package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternDeduplicates(t *testing.T) {
	p := New()
	a := p.Intern("example.com")
	b := p.Intern("example.com")
	c := p.Intern("example.org")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, p.Len())
}

func TestResolveRoundTrips(t *testing.T) {
	p := New()
	ref := p.Intern("192.168.1.1")
	assert.Equal(t, "192.168.1.1", p.Resolve(ref))
}

func TestEqualityTracksContent(t *testing.T) {
	p := New()
	refs := make(map[string]int)
	for _, s := range []string{"a", "b", "a", "c", "b", "a"} {
		ref := p.Intern(s)
		refs[s] = int(ref)
	}
	assert.Equal(t, 3, p.Len())
}
