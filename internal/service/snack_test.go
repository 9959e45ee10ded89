package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/mocks"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestDecodeImage(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(pngBytes)

	data, ct, err := service.DecodeImage("data:image/jpeg;base64," + raw)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, pngBytes, data)

	_, ct, err = service.DecodeImage(raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct, "sniffed from bare base64")

	for _, bad := range []string{
		"",
		"data:image/png,notbase64",
		"!!!",
		base64.StdEncoding.EncodeToString([]byte("plain text, not an image")),
	} {
		_, _, err := service.DecodeImage(bad)
		assert.ErrorIs(t, err, service.ErrInvalidInput, bad)
	}
}

func TestSplitSnacks(t *testing.T) {
	assert.Equal(t, []string{"초콜릿 쿠키", "사과", "우유"}, service.SplitSnacks(`"초콜릿 쿠키, 사과, 우유"`))
	assert.Equal(t, []string{"빵 2개", "과자"}, service.SplitSnacks("빵 2개, 과자."))
	assert.Empty(t, service.SplitSnacks("  "))
}

func TestSnackAnalyze(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("KST", 9*60*60)
	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	t.Run("archives and names snacks", func(t *testing.T) {
		llm := new(mocks.MockChatCompleter)
		archive := new(mocks.MockPhotoArchive)

		llm.On("Complete", mock.Anything, mock.MatchedBy(func(req service.ChatRequest) bool {
			return req.Model == service.DefaultVisionModel &&
				*req.MaxTokens == service.VisionMaxTokens &&
				len(req.Messages) == 1
		})).Return(&service.Completion{Content: " 초콜릿 쿠키, 사과 "}, nil)

		keyMatch := mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "snacks/u1/2024-03-15/") && strings.HasSuffix(key, ".png")
		})
		archive.On("PutObject", mock.Anything, keyMatch, "image/png", pngBytes).Return(nil)
		archive.On("GeneratePresignedURL", mock.Anything, keyMatch, service.PhotoURLExpires).
			Return("https://bucket.example/snack.png?sig=1", nil)

		svc := service.NewSnackService(llm, archive, loc, logger.Discard())
		res, err := svc.Analyze(ctx, student, &types.SnackAnalyzeRequest{Image: image, Date: testDate})
		require.NoError(t, err)
		assert.Equal(t, []string{"초콜릿 쿠키", "사과"}, res.Snacks)
		assert.Equal(t, "초콜릿 쿠키, 사과", res.Raw)
		assert.Equal(t, "https://bucket.example/snack.png?sig=1", res.PhotoURL)
		assert.NotEmpty(t, res.PhotoKey)

		llm.AssertExpectations(t)
		archive.AssertExpectations(t)
	})

	t.Run("archive failure is not fatal", func(t *testing.T) {
		llm := new(mocks.MockChatCompleter)
		archive := new(mocks.MockPhotoArchive)
		llm.On("Complete", mock.Anything, mock.Anything).Return(&service.Completion{Content: "귤"}, nil)
		archive.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

		svc := service.NewSnackService(llm, archive, loc, logger.Discard())
		res, err := svc.Analyze(ctx, student, &types.SnackAnalyzeRequest{Image: image})
		require.NoError(t, err)
		assert.Equal(t, []string{"귤"}, res.Snacks)
		assert.Empty(t, res.PhotoURL)
		archive.AssertNotCalled(t, "GeneratePresignedURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("without archive", func(t *testing.T) {
		llm := new(mocks.MockChatCompleter)
		llm.On("Complete", mock.Anything, mock.Anything).Return(nil, service.ErrLLMNotConfigured)

		svc := service.NewSnackService(llm, nil, loc, logger.Discard())
		_, err := svc.Analyze(ctx, student, &types.SnackAnalyzeRequest{Image: image})
		assert.ErrorIs(t, err, service.ErrLLMNotConfigured)
	})

	t.Run("bad image never reaches the model", func(t *testing.T) {
		llm := new(mocks.MockChatCompleter)
		svc := service.NewSnackService(llm, nil, loc, logger.Discard())
		_, err := svc.Analyze(ctx, student, &types.SnackAnalyzeRequest{Image: "nope"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
		llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})
}
