package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// usersCollection is the Firestore collection holding one document per
// principal with a points.{shopId} map, the layout the web clients listen on.
const usersCollection = "users"

// FirestoreMirror publishes post-mutation balances into per-principal
// Firestore documents so presentation layers see changes without polling.
type FirestoreMirror struct {
	client *firestore.Client
}

func NewFirestoreMirror(client *firestore.Client) *FirestoreMirror {
	return &FirestoreMirror{client: client}
}

func (m *FirestoreMirror) PublishBalance(ctx context.Context, userID, shopID uuid.UUID, points int) error {
	_, err := m.client.Collection(usersCollection).Doc(userID.String()).Set(ctx, map[string]interface{}{
		"points": map[string]interface{}{
			shopID.String(): points,
		},
	}, firestore.MergeAll)
	if err != nil {
		switch status.Code(err) {
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("firestore unavailable: %w", err)
		}
		return fmt.Errorf("firestore write failed: %w", err)
	}
	return nil
}

// NoopMirror is used when Firebase is not configured.
type NoopMirror struct{}

func (NoopMirror) PublishBalance(ctx context.Context, userID, shopID uuid.UUID, points int) error {
	return nil
}
