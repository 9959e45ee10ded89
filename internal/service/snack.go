package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// SnackPrompt asks the vision model for a comma separated snack list.
const SnackPrompt = `이 사진에 있는 간식(음식)을 분석해주세요. 간식의 이름을 정확하게 알려주세요. 만약 여러 개의 간식이 있다면 쉼표로 구분하여 모두 나열해주세요. 한국어로 간단하게 답변해주세요. 예: "초콜릿 쿠키, 사과, 우유" 또는 "빵 2개, 과자" 등. 간식 이름만 나열하고 다른 설명은 하지 마세요.`

const (
	MaxPhotoBytes   = 5 << 20
	PhotoURLExpires = time.Hour
)

var photoExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// SnackService names the snacks in a photo.
type SnackService struct {
	llm     ChatCompleter
	archive PhotoArchive
	loc     *time.Location
	log     logrus.FieldLogger
}

var _ ISnackService = (*SnackService)(nil)

// NewSnackService creates a SnackService. archive may be nil, in which case
// photos are not kept.
func NewSnackService(llm ChatCompleter, archive PhotoArchive, loc *time.Location, log logrus.FieldLogger) *SnackService {
	return &SnackService{llm: llm, archive: archive, loc: loc, log: log.WithField("service", "snack")}
}

func (s *SnackService) Analyze(ctx context.Context, user types.Identity, req *types.SnackAnalyzeRequest) (*types.SnackAnalysis, error) {
	data, contentType, err := DecodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	day, err := menu.NormalizeDate(req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := &types.SnackAnalysis{}
	if s.archive != nil {
		out.PhotoKey, out.PhotoURL = s.store(ctx, user.UserID, menu.ISODate(day), contentType, data)
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	res, err := s.llm.Complete(ctx, VisionRequest(dataURL, SnackPrompt, DefaultVisionModel))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze snack photo: %w", err)
	}

	out.Raw = strings.TrimSpace(res.Content)
	out.Snacks = SplitSnacks(out.Raw)
	return out, nil
}

// store archives the photo. Failures are logged and leave key and URL empty.
func (s *SnackService) store(ctx context.Context, userID, date, contentType string, data []byte) (string, string) {
	ext, ok := photoExt[contentType]
	if !ok {
		ext = ".bin"
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := fmt.Sprintf("snacks/%s/%s/%s%s", userID, date, uuid.NewString(), ext)
	log := s.log.WithField("key", key)

	if err := s.archive.PutObject(ctx, key, contentType, data); err != nil {
		log.WithError(err).Warn("Failed to archive snack photo")
		return "", ""
	}
	url, err := s.archive.GeneratePresignedURL(ctx, key, PhotoURLExpires)
	if err != nil {
		log.WithError(err).Warn("Failed to presign snack photo")
		return key, ""
	}
	return key, url
}

// DecodeImage accepts a data URL or bare base64 and returns the bytes and
// their image content type.
func DecodeImage(in string) ([]byte, string, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return nil, "", fmt.Errorf("%w: image is required", ErrInvalidInput)
	}

	var declared string
	if strings.HasPrefix(in, "data:") {
		header, payload, ok := strings.Cut(in, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: image must be a base64 data URL", ErrInvalidInput)
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		in = payload
	}

	data, err := base64.StdEncoding.DecodeString(in)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image is not valid base64", ErrInvalidInput)
	}
	if len(data) > MaxPhotoBytes {
		return nil, "", fmt.Errorf("%w: image is larger than %d bytes", ErrInvalidInput, MaxPhotoBytes)
	}

	contentType := declared
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, contentType)
	}
	return data, contentType, nil
}

// SplitSnacks turns "초콜릿 쿠키, 사과" into its names.
func SplitSnacks(reply string) []string {
	out := []string{}
	for _, part := range strings.Split(reply, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'.`)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
