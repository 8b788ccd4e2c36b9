package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/qamaster/personaqa/internal/models"
)

// blobAPI is the subset of *azblob.Client the uploader needs.
type blobAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
}

// BlobUploader publishes session reports to an Azure Storage container.
type BlobUploader struct {
	client    blobAPI
	container string
	logger    *slog.Logger
}

// NewBlobUploader authenticates against accountURL (ex:
// https://myaccount.blob.core.windows.net) with the default Azure credential
// chain.
func NewBlobUploader(accountURL, container string, logger *slog.Logger) (*BlobUploader, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return newBlobUploaderWithCredential(accountURL, container, cred, logger)
}

func newBlobUploaderWithCredential(accountURL, container string, cred azcore.TokenCredential, logger *slog.Logger) (*BlobUploader, error) {
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client for %s: %w", accountURL, err)
	}
	return newBlobUploader(client, container, logger), nil
}

func newBlobUploader(client blobAPI, container string, logger *slog.Logger) *BlobUploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BlobUploader{client: client, container: container, logger: logger}
}

// Upload writes data to name. A missing container is created once.
func (u *BlobUploader) Upload(ctx context.Context, name, contentType string, data []byte) error {
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	}

	_, err := u.client.UploadBuffer(ctx, u.container, name, data, opts)
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		u.logger.Info("Creating blob container", "container", u.container)
		if _, cerr := u.client.CreateContainer(ctx, u.container, nil); cerr != nil && !bloberror.HasCode(cerr, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("creating container %s: %w", u.container, cerr)
		}
		_, err = u.client.UploadBuffer(ctx, u.container, name, data, opts)
	}
	if err != nil {
		return fmt.Errorf("uploading %s/%s: %w", u.container, name, err)
	}

	u.logger.Debug("Uploaded blob", "container", u.container, "name", name, "bytes", len(data))
	return nil
}

// UploadSession uploads s as sessions/{session_id}.json and returns the blob name.
func (u *BlobUploader) UploadSession(ctx context.Context, s *models.ConsolidatedSession) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	name := path.Join("sessions", s.SessionID+".json")
	if err := u.Upload(ctx, name, "application/json", data); err != nil {
		return "", err
	}
	return name, nil
}
