package refserver

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	const token = "ABCDEF0123456789ABCDEF0123456789"

	assert.False(t, s.LoggedIn(token))
	assert.False(t, s.Logout(token), "logout of an unknown token reports non-existence")

	assert.True(t, s.Login(token), "first login creates the session")
	assert.True(t, s.LoggedIn(token))
	assert.False(t, s.Login(token), "second login reports the existing session")
	assert.True(t, s.LoggedIn(token))

	assert.True(t, s.Logout(token))
	assert.False(t, s.LoggedIn(token))
	assert.False(t, s.Logout(token))
}

func TestMemoryStoreTokensAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	s.Login("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	s.Login("BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")

	s.Logout("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	assert.False(t, s.LoggedIn("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"))
	assert.True(t, s.LoggedIn("BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreConcurrentAccessDoesNotCorrupt(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		token := fmt.Sprintf("TOKEN%027d", i%5) // several goroutines share each token
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Login(token)
				s.LoggedIn(token)
				s.Logout(token)
			}
		}(token)
	}
	wg.Wait()

	// Whatever interleaving happened, the store must end with a consistent count.
	count := 0
	for i := 0; i < 5; i++ {
		if s.LoggedIn(fmt.Sprintf("TOKEN%027d", i)) {
			count++
		}
	}
	assert.Equal(t, count, s.Len())
}
