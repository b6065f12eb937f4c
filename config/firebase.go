package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK from base64 or file credentials
func InitFirebase(ctx context.Context, cfg *Config) (*firebase.App, error) {
	fbConfig := &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.FirebaseBucket,
	}

	var opt option.ClientOption
	switch {
	case cfg.FirebaseCredentials64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseCredentials64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	case cfg.FirebaseCredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.FirebaseCredentialsFile)
	default:
		return nil, errors.New("firebase credentials missing: set FIREBASE_CREDENTIALS_BASE64 or GOOGLE_APPLICATION_CREDENTIALS")
	}

	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
