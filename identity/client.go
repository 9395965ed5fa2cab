// Package identity looks up rider contact details from the identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrNoPhone = errors.New("identity record has no phone number")

// Directory resolves a user's phone number from the identity provider.
type Directory interface {
	PhoneByUser(ctx context.Context, userID string) (string, error)
}

type firebaseDirectory struct {
	client *auth.Client
}

// NewFirebaseDirectory builds a Directory backed by the Firebase Admin SDK.
// If credentialsFile is empty, application-default credentials are used.
func NewFirebaseDirectory(ctx context.Context, projectID, credentialsFile string) (Directory, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseDirectory{client: client}, nil
}

func (d *firebaseDirectory) PhoneByUser(ctx context.Context, userID string) (string, error) {
	u, err := d.client.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("identity lookup for %s: %w", userID, err)
	}
	if u.PhoneNumber == "" {
		return "", ErrNoPhone
	}
	return u.PhoneNumber, nil
}
