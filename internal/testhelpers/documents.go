package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupMongo starts a disposable MongoDB container and returns a database
// private to the test.
func SetupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("Waiting for connections"),
		).WithStartupTimeout(60 * time.Second),
	}, "27017")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port)))
	require.NoError(t, err, "failed to connect to MongoDB")
	require.NoError(t, client.Ping(ctx, nil))
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("babcheck_" + uuid.NewString()[:8])
}

// SetupFirestore starts the Firestore emulator and returns a client bound to
// it. FIRESTORE_EMULATOR_HOST is set for the duration of the test.
func SetupFirestore(t *testing.T) *firestore.Client {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators",
		ExposedPorts: []string{"8080/tcp"},
		Cmd: []string{
			"gcloud", "emulators", "firestore", "start",
			"--host-port=0.0.0.0:8080",
		},
		WaitingFor: wait.ForLog("Dev App Server is now running").WithStartupTimeout(2 * time.Minute),
	}, "8080")

	t.Setenv("FIRESTORE_EMULATOR_HOST", host+":"+port)
	client, err := firestore.NewClient(context.Background(), "babcheck-test")
	require.NoError(t, err, "failed to create Firestore client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}
