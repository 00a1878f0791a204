package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"math/rand/v2"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jamsesh/internal/config"
	"jamsesh/internal/middleware"
	"jamsesh/internal/models"
	"jamsesh/internal/observability"
	"jamsesh/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	AvatarMaxSize               = 512
	WebPQuality                 = 80
)

// ProfilePictureDir is the subdirectory of PUBLIC_DIR profile pictures are
// written to, and the URL path they are served from.
const ProfilePictureDir = "profiles"

type UploadInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// StoredObject locates an uploaded blob.
type StoredObject struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

type UploadService struct {
	store              storage.ObjectStorage
	publicDir          string
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewUploadService(store storage.ObjectStorage, cfg *config.Config) *UploadService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	publicDir := "public"
	if cfg != nil {
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.PublicDir != "" {
			publicDir = cfg.PublicDir
		}
	}
	return &UploadService{
		store:              store,
		publicDir:          publicDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                time.Now,
	}
}

// Upload validates an image and stores it in bucket under <user>/<uuid>.<ext>.
// Avatars are re-encoded as WebP no larger than AvatarMaxSize.
func (s *UploadService) Upload(ctx context.Context, bucket string, in UploadInput) (obj *StoredObject, err error) {
	ctx, span := observability.StartSpan(ctx, "uploads", "Upload")
	defer func() { observability.EndSpan(span, err) }()

	if !storage.ValidBucket(bucket) {
		return nil, models.NewValidationError("Unknown bucket")
	}
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	format, err := s.checkImage(in)
	if err != nil {
		return nil, err
	}

	data := in.Content
	contentType := decodedFormatToMime(format)
	ext := extensionFor(format)
	if bucket == storage.BucketAvatars {
		data, err = normalizeAvatar(in.Content)
		if err != nil {
			return nil, err
		}
		contentType, ext = "image/webp", ".webp"
	}

	key := fmt.Sprintf("%d/%s%s", in.UserID, uuid.NewString(), ext)
	if err := s.store.Put(ctx, bucket, key, data, contentType); err != nil {
		observability.Uploads.WithLabelValues(bucket, "error").Inc()
		return nil, models.NewInternalError(err)
	}
	observability.Uploads.WithLabelValues(bucket, "ok").Inc()

	return &StoredObject{Bucket: bucket, Key: key, URL: s.store.PublicURL(bucket, key)}, nil
}

// SaveProfilePicture writes the file to PUBLIC_DIR/profiles and returns its
// public path, e.g. "/profiles/profile-1700000000000-123456789.png".
func (s *UploadService) SaveProfilePicture(_ context.Context, in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	format, err := s.checkImage(in)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !extensionMatches(ext, format) {
		ext = extensionFor(format)
	}
	name := fmt.Sprintf("profile-%d-%d%s", s.now().UnixMilli(), rand.Int64N(1e9), ext)

	if err := writeBytesToFile(filepath.Join(s.publicDir, ProfilePictureDir, name), in.Content); err != nil {
		middleware.Logger.Error("Error uploading file", "error", err)
		return "", models.NewInternalError(err)
	}
	observability.Uploads.WithLabelValues(ProfilePictureDir, "ok").Inc()
	return "/" + ProfilePictureDir + "/" + name, nil
}

// checkImage enforces size, sniffed type and a decodable header, and returns
// the decoded format name.
func (s *UploadService) checkImage(in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Invalid image type")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Unsupported image format")
	}

	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return "", models.NewValidationError("Image content type mismatch")
	}
	return format, nil
}

func normalizeAvatar(content []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	out, err := encodeWebP(resizeToFit(decoded, AvatarMaxSize, AvatarMaxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpg"
	default:
		return "." + strings.ToLower(format)
	}
}

// extensionMatches reports whether ext is an accepted spelling for format.
func extensionMatches(ext, format string) bool {
	switch format {
	case "jpeg":
		return ext == ".jpg" || ext == ".jpeg"
	default:
		return ext == "."+format
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
