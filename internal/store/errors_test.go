package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

func TestFirestoreErrorMapping(t *testing.T) {
	assert.NoError(t, firestoreError("ping", nil))
	assert.Equal(t, ErrNotFound, firestoreError("get", status.Error(codes.NotFound, "missing")))
	assert.ErrorIs(t, firestoreError("list", status.Error(codes.PermissionDenied, "rules")), ErrPermissionDenied)
	assert.ErrorIs(t, firestoreError("list", status.Error(codes.FailedPrecondition, "index")), ErrFailedPrecondition)
	assert.ErrorIs(t, firestoreError("list", status.Error(codes.Unavailable, "down")), ErrUnavailable)

	err := firestoreError("list", status.Error(codes.Internal, "boom"))
	assert.Contains(t, err.Error(), "failed to list")
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestMongoErrorMapping(t *testing.T) {
	assert.Equal(t, ErrNotFound, mongoError("get", mongo.ErrNoDocuments))
	assert.ErrorIs(t, mongoError("find", mongo.CommandError{Code: mongoUnauthorized, Message: "not authorized"}), ErrPermissionDenied)
	assert.ErrorIs(t, mongoError("find", context.DeadlineExceeded), ErrUnavailable)
}

func TestGormErrorMapping(t *testing.T) {
	assert.Equal(t, ErrNotFound, gormError("get", gorm.ErrRecordNotFound))
	assert.ErrorIs(t, gormError("get", context.DeadlineExceeded), ErrUnavailable)
}
