package helpers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const TicketsFolder = "tickets"

// CloudinaryTicketStore keeps a copy of every issued ticket PDF as a raw asset.
type CloudinaryTicketStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryTicketStore(cld *cloudinary.Cloudinary, folder string) *CloudinaryTicketStore {
	if folder == "" {
		folder = TicketsFolder
	}
	return &CloudinaryTicketStore{cld: cld, folder: folder}
}

func (s *CloudinaryTicketStore) StoreTicket(ctx context.Context, bookingID string, pdf []byte) (string, error) {
	if s.cld == nil {
		return "", fmt.Errorf("cloudinary client is not initialized")
	}
	if len(pdf) == 0 {
		return "", fmt.Errorf("empty ticket for booking %s", bookingID)
	}

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(pdf), TicketUploadParams(s.folder, bookingID))
	if err != nil {
		return "", fmt.Errorf("failed to upload ticket %s: %v", bookingID, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload ticket %s: %s", bookingID, res.Error.Message)
	}
	return res.SecureURL, nil
}

func TicketUploadParams(folder, bookingID string) uploader.UploadParams {
	return uploader.UploadParams{
		Folder:       folder,
		PublicID:     "ticket-" + bookingID,
		ResourceType: "raw",
		Tags:         []string{"eventzo-ticket"},
	}
}
