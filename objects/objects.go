// Package objects bridges the client to blob storage: it hands out signed
// upload URLs, accepts the bytes and serves them back.
package objects

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Thumbnailer is implemented by stores that can render resized images.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, key string, width int) (io.ReadCloser, Info, error)
}

var (
	store          Store
	signer         = NewSigner("", 15*time.Minute)
	publicBaseURL  string
	maxUploadBytes int64 = 10 << 20

	// ids with a PUT in flight
	uploading sync.Map
)

type baseKey struct{}

func Configure(s Store, sg *Signer, baseURL string, maxBytes int64) {
	store = s
	signer = sg
	publicBaseURL = strings.TrimRight(baseURL, "/")
	if maxBytes > 0 {
		maxUploadBytes = maxBytes
	}
}

func baseFor(r *http.Request) string {
	if publicBaseURL != "" {
		return publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// RequestContext returns r's context carrying the public base URL, so
// OpenByPath can recognise absolute upload URLs minted for this request's host.
func RequestContext(r *http.Request) context.Context {
	return context.WithValue(r.Context(), baseKey{}, baseFor(r))
}

func baseFromContext(ctx context.Context) string {
	if publicBaseURL != "" {
		return publicBaseURL
	}
	base, _ := ctx.Value(baseKey{}).(string)
	return base
}

// uploadType decides the stored content type from the leading bytes. Only
// images and audio are accepted. Browsers record voice as webm, mp4 or ogg,
// which sniff as containers, so those take the declared audio type.
func uploadType(head []byte, declared string) (string, bool) {
	sniffed := http.DetectContentType(head)
	mediaType, _, _ := strings.Cut(sniffed, ";")
	switch {
	case strings.HasPrefix(mediaType, "image/"), strings.HasPrefix(mediaType, "audio/"):
		return mediaType, true
	case mediaType == "video/webm", mediaType == "video/mp4", mediaType == "application/ogg":
		declaredType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(declared)), ";")
		if strings.HasPrefix(declaredType, "audio/") {
			return declaredType, true
		}
	}
	return "", false
}

func RequestUploadURL(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, uploadURL, err := signer.UploadURL(baseFor(r))
	if err != nil {
		globals.Logger.Error("issue upload url", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get upload URL")
		return
	}
	globals.Logger.Debug("upload url issued", zap.String("id", id))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"uploadURL": uploadURL})
}

func UploadObject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	switch err := signer.Verify(r.URL.Query().Get("token"), id); {
	case errors.Is(err, ErrWrongObject):
		utils.RespondWithError(w, http.StatusForbidden, "Upload token does not match object")
		return
	case err != nil:
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired upload token")
		return
	}

	key := "uploads/" + id
	if _, busy := uploading.LoadOrStore(id, struct{}{}); busy {
		utils.RespondWithError(w, http.StatusConflict, "Upload already completed")
		return
	}
	defer uploading.Delete(id)
	switch _, err := store.Stat(r.Context(), key); {
	case err == nil:
		utils.RespondWithError(w, http.StatusConflict, "Upload already completed")
		return
	case !errors.Is(err, ErrNotFound):
		globals.Logger.Error("stat upload", zap.String("id", id), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	var tooBig *http.MaxBytesError
	body := bufio.NewReaderSize(http.MaxBytesReader(w, r.Body, maxUploadBytes), 512)
	head, err := body.Peek(512)
	if errors.As(err, &tooBig) {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	contentType, ok := uploadType(head, r.Header.Get("Content-Type"))
	if !ok {
		globals.Logger.Info("upload rejected", zap.String("id", id), zap.String("declared", r.Header.Get("Content-Type")))
		utils.RespondWithError(w, http.StatusUnsupportedMediaType, "Only image or audio uploads are accepted")
		return
	}

	info, err := store.Put(r.Context(), key, body, contentType)
	if err != nil {
		if errors.As(err, &tooBig) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		globals.Logger.Error("store upload", zap.String("id", id), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"objectPath":  objectPrefix + info.Key,
		"size":        info.Size,
		"contentType": info.ContentType,
	})
}

type plantImageRequest struct {
	ImageURL string `json:"imageURL"`
}

func SetPlantImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req plantImageRequest
	if err := utils.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.ImageURL) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "imageURL is required")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"objectPath": NormalizeObjectPath(req.ImageURL, baseFor(r)),
	})
}

func ServeObject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	key := strings.TrimPrefix(ps.ByName("path"), "/")

	var (
		rc   io.ReadCloser
		info Info
		err  error
	)
	if ws := r.URL.Query().Get("w"); ws != "" {
		width, perr := strconv.Atoi(ws)
		if perr != nil || width <= 0 || width > maxThumbWidth {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid width")
			return
		}
		th, ok := store.(Thumbnailer)
		if !ok {
			utils.RespondWithError(w, http.StatusNotImplemented, "Thumbnails not supported")
			return
		}
		rc, info, err = th.Thumbnail(r.Context(), key, width)
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidKey) {
			globals.Logger.Warn("thumbnail failed", zap.String("key", key), zap.Error(err))
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "Object is not an image")
			return
		}
	} else {
		rc, info, err = store.Open(r.Context(), key)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
		utils.RespondWithError(w, http.StatusNotFound, "Object not found")
		return
	}
	if err != nil {
		globals.Logger.Error("open object", zap.String("key", key), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "sandbox")
	if !strings.HasPrefix(info.ContentType, "image/") {
		w.Header().Set("Content-Disposition", "attachment")
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", info.ModTime, rs)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		globals.Logger.Warn("stream object", zap.String("key", key), zap.Error(err))
	}
}

// OpenByPath opens an object referenced by its /objects/... path or by an
// upload URL issued by this service. Absolute URLs are matched against the
// configured public base, or the one carried by RequestContext.
func OpenByPath(ctx context.Context, imageURL string) (io.ReadCloser, error) {
	if store == nil {
		return nil, ErrNotFound
	}
	u, err := url.Parse(NormalizeObjectPath(imageURL, baseFromContext(ctx)))
	if err != nil || u.IsAbs() || !strings.HasPrefix(u.Path, objectPrefix) {
		return nil, ErrNotFound
	}
	rc, _, err := store.Open(ctx, strings.TrimPrefix(u.Path, objectPrefix))
	return rc, err
}
