package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

// CosineSimilarity compares two feature embeddings. Mismatched dimensions are
// reported with utils.ErrorDimensionMismatch; callers degrade the image score
// to zero instead of failing the match.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, utils.ErrorDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp float drift so downstream weights stay in [0, 1].
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

type featureResponse struct {
	Features []float64 `json:"features"`
}

var featureClient = &http.Client{Timeout: 15 * time.Second}

// ExtractImageFeatures posts the image to the feature-extractor sidecar and
// returns its embedding. A missing FEATURE_EXTRACTOR_URL or any transport
// error yields nil; reports without embeddings simply score zero on the image
// component.
func ExtractImageFeatures(ctx context.Context, filename string, imageData []byte) []float64 {
	baseURL := os.Getenv("FEATURE_EXTRACTOR_URL")
	if baseURL == "" {
		return nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil
	}
	if _, err := part.Write(imageData); err != nil {
		return nil
	}
	if err := writer.Close(); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/extract", &body)
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := featureClient.Do(req)
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "ExtractImageFeatures", "feature extractor unavailable", filename, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var fr featureResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		config.LogError(config.GetLogger(), "workflow", "ExtractImageFeatures", "decode response", filename, err)
		return nil
	}
	return fr.Features
}
