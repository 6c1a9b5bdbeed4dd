package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// uploadPart is one element of a multi-part chat upload.
type uploadPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

// OCRResult is the data of an OCR_RESULT response.
type OCRResult struct {
	InvoiceText string `json:"invoiceText"`
	ImageURL    string `json:"imageUrl"`
}

var errNoImage = errors.New("No image URL found in upload")

// FirstImageURL returns the first image url in a multi-part upload.
func FirstImageURL(upload string) (string, error) {
	var parts []uploadPart
	if err := json.Unmarshal([]byte(upload), &parts); err != nil {
		return "", fmt.Errorf("parsing upload: %w", err)
	}
	for _, p := range parts {
		if p.Type == "image_url" && p.ImageURL != nil && p.ImageURL.URL != "" {
			return p.ImageURL.URL, nil
		}
	}
	return "", errNoImage
}

func (d *Dispatcher) ocrUpload(ctx context.Context, match []string) Response {
	imageURL, err := FirstImageURL(match[0])
	if err != nil {
		return ocrFailed(err)
	}
	if d.ocr == nil {
		return ocrFailed(errors.New("OCR is not configured"))
	}

	text, err := d.ocr.ImageToText(ctx, imageURL)
	if err != nil {
		return ocrFailed(err)
	}
	return Response{
		Type:    TypeOCRResult,
		Message: "OCR completed for uploaded image",
		Data:    OCRResult{InvoiceText: text, ImageURL: imageURL},
	}
}

func ocrFailed(err error) Response {
	return Response{
		Type:    TypeOCRError,
		Error:   err.Error(),
		Message: "Error in OCR processing: " + err.Error(),
	}
}
