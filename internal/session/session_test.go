package session

import (
	"context"
	"testing"
	"time"

	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionGate(t *testing.T) {
	assert.False(t, Anonymous.SignedIn())
	assert.ErrorIs(t, Anonymous.Require(), errs.ErrNotSignedIn)
	assert.Equal(t, "please sign in", Anonymous.Require().Error())

	flagOnly := Session{LoggedIn: true}
	assert.False(t, flagOnly.SignedIn())

	s := New(uuid.New(), "alice")
	assert.True(t, s.SignedIn())
	assert.NoError(t, s.Require())
}

func TestContext(t *testing.T) {
	assert.Equal(t, Anonymous, FromContext(context.Background()))

	s := New(uuid.New(), "alice")
	assert.Equal(t, s, FromContext(WithSession(context.Background(), s)))
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	s := New(uuid.New(), "alice")

	token, err := issuer.Issue(s)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestIssueAnonymous(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).Issue(Anonymous)
	assert.ErrorIs(t, err, errs.ErrNotSignedIn)
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Issue(New(uuid.New(), "alice"))
	require.NoError(t, err)

	t.Run("wrong_secret", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad_subject", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "not-a-uuid",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
