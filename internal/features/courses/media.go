package courses

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/angembang/college-en-ligne/internal/apperror"
)

// Attachment kinds. Each kind has its own MIME allowlist, subdirectory and
// French error messages.
const (
	kindImage = "image"
	kindAudio = "audio"
	kindPDF   = "pdf"
)

var allowedMimeTypes = map[string]map[string]bool{
	kindImage: {"image/jpeg": true, "image/png": true, "image/gif": true},
	kindAudio: {"audio/mpeg": true, "audio/wav": true},
	kindPDF:   {"application/pdf": true},
}

var mimeToExtension = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"application/pdf": ".pdf",
}

var kindDirs = map[string]string{
	kindImage: "images",
	kindAudio: "audios",
	kindPDF:   "pdfs",
}

var formatMessages = map[string]string{
	kindImage: "Le format de l'image n'est pas valide. Seuls les formats JPEG, PNG et GIF sont acceptés.",
	kindAudio: "Le format de l'audio n'est pas valide. Seuls les formats MP3 et WAV sont acceptés.",
	kindPDF:   "Le format du fichier PDF n'est pas valide. Seuls les fichiers PDF sont acceptés.",
}

var uploadFailedMessages = map[string]string{
	kindImage: "Erreur lors du téléchargement de l'image.",
	kindAudio: "Erreur lors du téléchargement de l'audio.",
	kindPDF:   "Erreur lors du téléchargement du fichier PDF.",
}

// MediaStore validates and stores course attachments on the local
// filesystem. Files get a fresh UUID name under a per-kind directory; the
// returned path is web-relative to the media root.
type MediaStore struct {
	root    string
	maxSize int64
}

// NewMediaStore creates a media store rooted at the given directory.
func NewMediaStore(root string, maxSize int64) *MediaStore {
	return &MediaStore{root: root, maxSize: maxSize}
}

// Save stores one uploaded attachment of the given kind and returns its
// web path. The declared content type must be on the kind's allowlist and
// match the file's magic bytes.
func (s *MediaStore) Save(kind string, header *multipart.FileHeader) (string, error) {
	allowed, ok := allowedMimeTypes[kind]
	if !ok {
		return "", apperror.NewInternal(fmt.Errorf("unknown attachment kind %q", kind))
	}

	if s.maxSize > 0 && header.Size > s.maxSize {
		return "", apperror.New(http.StatusBadRequest, "file_too_large",
			fmt.Sprintf("Le fichier dépasse la taille maximale autorisée (%d Mo).", s.maxSize/(1024*1024)))
	}

	mimeType := header.Header.Get("Content-Type")
	if !allowed[mimeType] {
		return "", apperror.NewValidation(formatMessages[kind])
	}

	src, err := header.Open()
	if err != nil {
		return "", apperror.New(http.StatusBadRequest, "upload_failed", uploadFailedMessages[kind])
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return "", apperror.New(http.StatusBadRequest, "upload_failed", uploadFailedMessages[kind])
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", apperror.New(http.StatusBadRequest, "file_too_large",
			fmt.Sprintf("Le fichier dépasse la taille maximale autorisée (%d Mo).", s.maxSize/(1024*1024)))
	}

	if !validateMagicBytes(data, mimeType) {
		return "", apperror.NewValidation(formatMessages[kind])
	}

	relDir := kindDirs[kind]
	dir := filepath.Join(s.root, relDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("creating media directory: %w", err))
	}

	filename := generateUUID() + mimeToExtension[mimeType]
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("writing media file: %w", err))
	}

	// Thumbnail is best effort; the course keeps the original either way.
	if kind == kindImage && mimeType != "image/gif" {
		if err := s.generateThumbnail(data, dir, filename, mimeType, 300); err != nil {
			slog.Warn("thumbnail generation failed",
				slog.String("file", filename),
				slog.Any("error", err),
			)
		}
	}

	slog.Info("course attachment stored",
		slog.String("kind", kind),
		slog.String("file", filename),
		slog.Int("size", len(data)),
	)
	return path.Join("/", "media", relDir, filename), nil
}

// Remove deletes a previously stored attachment and its thumbnail, if any.
// Missing files are not an error.
func (s *MediaStore) Remove(webPath string) {
	rel, ok := cutMediaPrefix(webPath)
	if !ok {
		return
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	os.Remove(full)
	os.Remove(thumbnailPath(full))
}

func cutMediaPrefix(webPath string) (string, bool) {
	const prefix = "/media/"
	if len(webPath) <= len(prefix) || webPath[:len(prefix)] != prefix {
		return "", false
	}
	rel := path.Clean(webPath[len(prefix):])
	if rel == "." || rel == ".." || len(rel) >= 3 && rel[:3] == "../" {
		return "", false
	}
	return rel, true
}

func thumbnailPath(full string) string {
	ext := filepath.Ext(full)
	return full[:len(full)-len(ext)] + "_300" + ext
}

// generateThumbnail writes a 300px-bounded copy next to the original.
func (s *MediaStore) generateThumbnail(data []byte, dir, filename, mimeType string, maxDim int) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return nil
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = h * maxDim / w
	} else {
		newW = w * maxDim / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	f, err := os.Create(thumbnailPath(filepath.Join(dir, filename)))
	if err != nil {
		return fmt.Errorf("creating thumbnail file: %w", err)
	}
	defer f.Close()

	switch mimeType {
	case "image/png":
		err = png.Encode(f, dst)
	default:
		err = jpeg.Encode(f, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	return nil
}

// validateMagicBytes checks that the content's leading bytes match the
// declared MIME type. Prevents spoofed Content-Type headers from smuggling
// arbitrary files into the media directory.
func validateMagicBytes(data []byte, declaredMIME string) bool {
	switch declaredMIME {
	case "image/jpeg":
		return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "image/png":
		return len(data) >= 8 &&
			data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
			data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A
	case "image/gif":
		return len(data) >= 6 && string(data[:3]) == "GIF"
	case "audio/mpeg":
		// ID3 tag or a bare MPEG frame sync.
		if len(data) >= 3 && string(data[:3]) == "ID3" {
			return true
		}
		return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
	case "audio/wav":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
	case "application/pdf":
		return len(data) >= 5 && string(data[:5]) == "%PDF-"
	default:
		return false
	}
}

// generateUUID creates a new v4 UUID string using crypto/rand.
func generateUUID() string {
	uuid := make([]byte, 16)
	_, _ = io.ReadFull(rand.Reader, uuid)
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}
