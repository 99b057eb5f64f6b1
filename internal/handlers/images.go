package handlers

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/repository"
)

// maxImageSize caps uploads at 5 MiB.
const maxImageSize = 5 << 20

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Upload accepts a multipart "image" file, dedupes it by content hash
// and stores it against the player.
func (g GameHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		sendError(w, g.logger, errNotAuthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		sendValidationError(w, g.logger, fmt.Errorf("image exceeds %d bytes", maxImageSize))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		sendValidationError(w, g.logger, fmt.Errorf("missing image file"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mime, ok := imageMimeTypes[ext]
	if !ok {
		sendValidationError(w, g.logger, fmt.Errorf("unsupported image type %q", ext))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to read uploaded image", "error", err)
		return
	}

	img := &repository.Image{
		PlayerID: &claims.PlayerID,
		Name:     header.Filename,
		Mime:     mime,
		Hash:     fmt.Sprintf("%X", sha256.Sum256(data)),
		Data:     data,
	}
	duplicate, err := g.repo.SaveImage(r.Context(), img)
	if err != nil {
		sendError(w, g.logger, err)
		return
	}

	status := "uploaded"
	if duplicate {
		status = "duplicate"
	}
	sendJSONOrLog(w, g.logger, map[string]any{
		"status":  status,
		"imageId": img.ID,
	})
}

// ServeImage writes an image blob with its stored mime type. Default
// images are visible to everyone; custom ones only to their owner.
func (g GameHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var playerID int64
	if claims, ok := middleware.PlayerClaims(r); ok {
		playerID = claims.PlayerID
	}

	img, err := g.repo.GetImage(r.Context(), playerID, imageID)
	if err != nil {
		sendError(w, g.logger, err)
		return
	}

	w.Header().Set("Content-Type", img.Mime)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err = w.Write(img.Data); err != nil {
		g.logger.Error("unable to write image response", "error", err)
	}
}
