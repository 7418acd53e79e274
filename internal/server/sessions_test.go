package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreVerify(t *testing.T) {
	st := newSessionStore([]byte("secret"), time.Hour)

	token, err := st.Issue()
	require.NoError(t, err)

	id, err := st.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, ScreenHome, st.State(id).Screen)

	_, err = st.Verify(token)
	assert.Error(t, err, "missing Bearer prefix")

	_, err = st.Verify("Bearer not-a-token")
	assert.Error(t, err)

	other := newSessionStore([]byte("different-secret"), time.Hour)
	otherToken, err := other.Issue()
	require.NoError(t, err)
	_, err = st.Verify("Bearer " + otherToken)
	assert.Error(t, err, "token signed with another secret")
}

func TestSessionStoreExpiry(t *testing.T) {
	st := newSessionStore([]byte("secret"), -time.Minute)
	token, err := st.Issue()
	require.NoError(t, err)

	_, err = st.Verify("Bearer " + token)
	assert.EqualError(t, err, "session expired")
}

func TestForgetStoryClearsEverySession(t *testing.T) {
	st := newSessionStore([]byte("secret"), time.Hour)

	tokenA, err := st.Issue()
	require.NoError(t, err)
	idA, err := st.Verify("Bearer " + tokenA)
	require.NoError(t, err)
	tokenB, err := st.Issue()
	require.NoError(t, err)
	idB, err := st.Verify("Bearer " + tokenB)
	require.NoError(t, err)

	st.EnterEditor(idA, "story-1")
	st.OpenPage(idA, "page-1")
	st.EnterEditor(idB, "story-1")

	st.ForgetStory("story-1")

	for _, id := range []string{idA, idB} {
		state := st.State(id)
		assert.Equal(t, ScreenHome, state.Screen)
		assert.Empty(t, state.StoryID)
		assert.Empty(t, state.PageID)
	}
}

func TestNavigateRules(t *testing.T) {
	st := newSessionStore([]byte("secret"), time.Hour)
	token, err := st.Issue()
	require.NoError(t, err)
	id, err := st.Verify("Bearer " + token)
	require.NoError(t, err)

	assert.ErrorIs(t, st.Navigate(id, ScreenEditor), errScreenNeedsStory)
	assert.ErrorIs(t, st.Navigate(id, Screen("lobby")), errInvalidScreen)
	require.NoError(t, st.Navigate(id, ScreenDashboard))

	st.EnterEditor(id, "story-1")
	require.NoError(t, st.Navigate(id, ScreenPreview))
	assert.Equal(t, ScreenPreview, st.State(id).Screen)
}
