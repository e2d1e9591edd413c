// Package firebase holds the document-store boundary: the Firebase app
// bootstrap, the Firestore balance mirror (write projection) and the
// realtime balance watcher (read subscription). Everything here is read-side
// plumbing; the ledger never depends on it for correctness.
package firebase

import (
	"context"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

var App *firebase.App

// Configured reports whether Firebase credentials are present. Without them
// the mirror and watcher degrade to no-ops and the API keeps working off the
// relational store alone.
func Configured() bool {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

func Init() {
	credJSON := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	var opts []option.ClientOption

	if credJSON != "" {
		if strings.HasPrefix(credJSON, "{") {
			log.Println("Using Firebase credentials from environment variable")
			opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			// It's a file path
			log.Println("Using Firebase credentials from file:", credJSON)
			opts = append(opts, option.WithCredentialsFile(credJSON))
		}
	} else {
		log.Println("Warning: GOOGLE_APPLICATION_CREDENTIALS not set, using default credentials")
	}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		log.Fatalf("Firebase init failed: %v", err)
	}

	App = app
	log.Println("Firebase initialized successfully")
}

// NewFirestoreClient returns a Firestore client from the initialized app.
func NewFirestoreClient(ctx context.Context) (*firestore.Client, error) {
	return App.Firestore(ctx)
}
