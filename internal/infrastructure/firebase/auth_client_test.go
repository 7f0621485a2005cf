package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDTokens struct {
	revokedCalls int
	plainCalls   int
	token        *auth.Token
	err          error
}

func (f *fakeIDTokens) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	f.plainCalls++
	return f.token, f.err
}

func (f *fakeIDTokens) VerifyIDTokenAndCheckRevoked(context.Context, string) (*auth.Token, error) {
	f.revokedCalls++
	return f.token, f.err
}

func TestVerifyTokenChecksRevocationWhenConfigured(t *testing.T) {
	fake := &fakeIDTokens{token: &auth.Token{UID: "user-1"}}

	uid, err := (&FirebaseAuthClient{client: fake}).VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.Equal(t, 1, fake.plainCalls)

	_, err = (&FirebaseAuthClient{client: fake, checkRevoked: true}).VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.revokedCalls)
}

func TestVerifyTokenRejectsFailures(t *testing.T) {
	c := &FirebaseAuthClient{client: &fakeIDTokens{err: errors.New("bad signature")}}
	_, err := c.VerifyToken(context.Background(), "tok")
	assert.EqualError(t, err, "bad signature")

	c = &FirebaseAuthClient{client: &fakeIDTokens{token: &auth.Token{}}}
	_, err = c.VerifyToken(context.Background(), "tok")
	assert.Error(t, err)
}
