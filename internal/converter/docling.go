package converter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultDoclingBaseURL = "http://localhost:5001"

// DoclingClient converts documents through a docling-serve instance.
type DoclingClient struct {
	baseURL string
	client  *http.Client
}

// NewDoclingClient creates a converter client. baseURL defaults to the
// local docling-serve port when empty.
func NewDoclingClient(baseURL string) *DoclingClient {
	if baseURL == "" {
		baseURL = defaultDoclingBaseURL
	}
	return &DoclingClient{
		baseURL: baseURL,
		// Conversion of a large PDF with table structure and page images
		// enabled routinely takes minutes.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

type doclingRequest struct {
	Options     doclingOptions  `json:"options"`
	FileSources []doclingSource `json:"file_sources"`
}

type doclingOptions struct {
	ToFormats          []string `json:"to_formats"`
	ImageExportMode    string   `json:"image_export_mode"`
	DoTableStructure   bool     `json:"do_table_structure"`
	GeneratePageImages bool     `json:"generate_page_images"`
	ImagesScale        float64  `json:"images_scale"`
	TableMode          string   `json:"table_mode"`
}

type doclingSource struct {
	Base64String string `json:"base64_string"`
	Filename     string `json:"filename"`
}

type doclingResponse struct {
	Document struct {
		MDContent string          `json:"md_content"`
		Pictures  []doclingMedia  `json:"pictures"`
		Tables    []doclingTable  `json:"tables"`
		Errors    []doclingStatus `json:"errors"`
	} `json:"document"`
	Status string `json:"status"`
}

type doclingMedia struct {
	Page    int    `json:"page_no"`
	Caption string `json:"caption"`
	PNG     string `json:"image_b64"`
}

type doclingTable struct {
	Page     int    `json:"page_no"`
	Caption  string `json:"caption"`
	Markdown string `json:"md"`
}

type doclingStatus struct {
	Message string `json:"error_message"`
}

func (c *DoclingClient) Convert(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	reqBody := doclingRequest{
		Options: doclingOptions{
			ToFormats:          []string{"md"},
			ImageExportMode:    "embedded",
			DoTableStructure:   true,
			GeneratePageImages: true,
			ImagesScale:        2.0,
			TableMode:          "accurate",
		},
		FileSources: []doclingSource{{
			Base64String: base64.StdEncoding.EncodeToString(data),
			Filename:     filepath.Base(path),
		}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal convert request: %w", err)
	}

	url := c.baseURL + "/v1alpha/convert/source"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create convert request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("docling request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read docling response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docling returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp doclingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal docling response: %w", err)
	}
	if len(resp.Document.Errors) > 0 {
		return nil, fmt.Errorf("docling conversion failed: %s", resp.Document.Errors[0].Message)
	}

	doc := &Document{Markdown: resp.Document.MDContent}

	for _, pic := range resp.Document.Pictures {
		if pic.PNG == "" {
			continue
		}
		png, err := base64.StdEncoding.DecodeString(pic.PNG)
		if err != nil {
			return nil, fmt.Errorf("decode figure on page %d: %w", pic.Page, err)
		}
		doc.Figures = append(doc.Figures, Figure{
			Page:    pic.Page,
			Caption: pic.Caption,
			PNG:     png,
		})
	}

	for _, tbl := range resp.Document.Tables {
		doc.Tables = append(doc.Tables, Table{
			Page:     tbl.Page,
			Caption:  tbl.Caption,
			Markdown: tbl.Markdown,
		})
	}

	return doc, nil
}
