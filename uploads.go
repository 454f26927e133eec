package main

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/utils"
	"github.com/mmdatafocus/lostfound_backend/workflow"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var errUploadTooLarge = errors.New("file size exceeds 5MB limit")
var errUnsupportedImage = errors.New("unsupported image type")

// processReportImage handles the optional image on a report submission: it
// normalizes the upload to a 224x224 JPEG, stores it in GCS and extracts the
// feature embedding. Missing file is fine; an extractor outage just leaves the
// embedding empty.
func processReportImage(c *gin.Context, entity string) (imageUrl string, imageFeatures string, err error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// No image attached.
		return "", "", nil
	}
	if fileHeader.Size > maxUploadSizeBytes {
		return "", "", errUploadTooLarge
	}
	if !imageMimeTypes[fileHeader.Header.Get("Content-Type")] {
		return "", "", errUnsupportedImage
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		return "", "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", errUnsupportedImage
	}
	normalized := imaging.Fill(img, 224, 224, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, normalized, imaging.JPEG); err != nil {
		return "", "", err
	}

	objectName := path.Join(entity, utils.GenerateUniqueFilename()+".jpg")
	url, err := utils.SaveImageToGCS(c.Request.Context(), objectName, buf.Bytes())
	if err != nil {
		config.LogError(config.GetLogger(), "server", "processReportImage", "gcs upload", objectName, err)
		return "", "", err
	}

	features := workflow.ExtractImageFeatures(c.Request.Context(), fileHeader.Filename, buf.Bytes())
	return url, models.EncodeEmbedding(features), nil
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSizeBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxUploadSizeBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func isUploadError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, errUploadTooLarge) ||
		errors.Is(err, errUnsupportedImage) ||
		strings.Contains(err.Error(), "GCS_BUCKET")
}
