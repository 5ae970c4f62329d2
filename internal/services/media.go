package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
)

const mediaUploadTimeout = 30 * time.Second

// MediaResolver turns a local media handle into a durable URL.
type MediaResolver interface {
	Resolve(ctx context.Context, handle any, folder string) (string, error)
}

type CloudinaryResolver struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryResolver(cld *cloudinary.Cloudinary) *CloudinaryResolver {
	return &CloudinaryResolver{cld: cld}
}

func (cr *CloudinaryResolver) Resolve(ctx context.Context, handle any, folder string) (string, error) {
	return helpers.UploadImage(ctx, cr.cld, handle, folder)
}

// resolveImage returns ref unchanged when it is already a remote URL and
// uploads inline image data URIs within the media budget. Anything else is
// rejected; files from disk only arrive through Upload.
func resolveImage(ctx context.Context, media MediaResolver, field, ref, folder string) (string, error) {
	if helpers.IsRemoteURL(ref) {
		return ref, nil
	}
	if !helpers.IsImageDataURI(ref) {
		return "", models.NewValidationError(field, "must be an http(s) URL or an image data URI")
	}
	if media == nil {
		return "", models.NewValidationError(field, "must be an http(s) URL")
	}

	ctx, cancel := context.WithTimeout(ctx, mediaUploadTimeout)
	defer cancel()
	url, err := media.Resolve(ctx, ref, folder)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image: %w", err)
	}
	return url, nil
}

// MediaService uploads files on behalf of signed-in users.
type MediaService struct {
	media MediaResolver
}

func NewMediaService(media MediaResolver) *MediaService {
	return &MediaService{media: media}
}

// Upload stores file under the folder for kind ("avatar" or "event") and
// returns its URL. Event images are limited to hotel operators.
func (ms *MediaService) Upload(ctx context.Context, p models.Principal, file any, kind string) (string, error) {
	if p.IsAnonymous() {
		return "", &models.AuthorizationError{Action: "upload media", Reason: "sign in required"}
	}

	var folder string
	switch kind {
	case "", "avatar":
		folder = helpers.AvatarFolder
	case "event":
		if err := authorize(p, models.CapManageEvents); err != nil {
			return "", err
		}
		folder = helpers.EventsFolder
	default:
		return "", models.NewValidationError("kind", "must be avatar or event")
	}
	if ms.media == nil {
		return "", errors.New("media storage is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, mediaUploadTimeout)
	defer cancel()
	url, err := ms.media.Resolve(ctx, file, folder)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	return url, nil
}
