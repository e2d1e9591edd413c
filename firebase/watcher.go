package firebase

import (
	"context"
	"errors"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// BalanceSnapshot is one observation of a principal's balances across all
// shops, as mirrored into their document.
type BalanceSnapshot struct {
	Points map[string]int64 `json:"points"`
	At     time.Time        `json:"at"`
}

// BalanceWatcher is the read-side realtime subscription: a lazy, infinite
// sequence of balance snapshots for one principal. The sequence ends when the
// context is cancelled or the upstream listener fails; calling Watch again
// restarts it. It never participates in the write path.
type BalanceWatcher interface {
	Watch(ctx context.Context, principalID string) (<-chan BalanceSnapshot, error)
}

// FirestoreWatcher subscribes to per-principal document snapshots.
type FirestoreWatcher struct {
	client *firestore.Client
}

func NewFirestoreWatcher(client *firestore.Client) *FirestoreWatcher {
	return &FirestoreWatcher{client: client}
}

func (w *FirestoreWatcher) Watch(ctx context.Context, principalID string) (<-chan BalanceSnapshot, error) {
	iter := w.client.Collection(usersCollection).Doc(principalID).Snapshots(ctx)
	ch := make(chan BalanceSnapshot)

	go func() {
		defer close(ch)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && !errors.Is(err, context.Canceled) {
					log.Printf("Balance watch for %s ended: %v", principalID, err)
				}
				return
			}

			snapshot := BalanceSnapshot{Points: map[string]int64{}, At: snap.ReadTime}
			if snap.Exists() {
				if raw, ok := snap.Data()["points"].(map[string]interface{}); ok {
					for shopID, v := range raw {
						if n, ok := v.(int64); ok {
							snapshot.Points[shopID] = n
						}
					}
				}
			}

			select {
			case ch <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
