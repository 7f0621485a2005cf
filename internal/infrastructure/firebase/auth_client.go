package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// TokenVerifier resolves a Firebase ID token to the caller's uid.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// idTokenVerifier is the part of *auth.Client used for sessions.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseAuthClient struct {
	client       idTokenVerifier
	checkRevoked bool
}

// NewFirebaseAuthClient verifies ID tokens; with checkRevoked every call
// also asks Firebase whether the session was revoked.
func NewFirebaseAuthClient(client *auth.Client, checkRevoked bool) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:       client,
		checkRevoked: checkRevoked,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	verify := f.client.VerifyIDToken
	if f.checkRevoked {
		verify = f.client.VerifyIDTokenAndCheckRevoked
	}

	result, err := verify(ctx, token)
	if err != nil {
		switch {
		case auth.IsIDTokenExpired(err):
			return "", fmt.Errorf("id token expired: %w", err)
		case auth.IsIDTokenRevoked(err):
			return "", fmt.Errorf("id token revoked: %w", err)
		}
		return "", err
	}
	if result.UID == "" {
		return "", fmt.Errorf("id token has no uid")
	}

	return result.UID, nil
}
