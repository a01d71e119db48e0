package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-resty/resty/v2"
)

const convertEndpoint = "/v1alpha/convert/file"

// Options selects the OCR behavior requested from the remote service.
type Options struct {
	ForceOCR  bool
	OCREngine string
	OCRLang   string
}

// Result holds the two representations docling-serve returns for a document.
type Result struct {
	Markdown string
	JSON     json.RawMessage
}

type convertResponse struct {
	Document struct {
		MDContent   string          `json:"md_content"`
		JSONContent json.RawMessage `json:"json_content"`
	} `json:"document"`
}

// Client talks to a docling-serve instance. Conversions of large scanned
// documents can run for minutes, so the client carries no timeout; callers
// cancel through the request context.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(0),
	}
}

// Convert forwards a PDF to the remote service and returns its Markdown and
// structured-document JSON renditions.
func (c *Client) Convert(ctx context.Context, filename string, contents []byte, opts Options) (Result, error) {
	form := url.Values{
		"to_formats":        {"md", "json"},
		"image_export_mode": {"embedded"},
		"do_ocr":            {"true"},
		"abort_on_error":    {"false"},
		"return_as_file":    {"false"},
	}
	if opts.ForceOCR {
		form.Set("force_ocr", "true")
		form.Set("ocr_engine", opts.OCREngine)
		form.Set("ocr_lang", opts.OCRLang)
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetFileReader("files", filename, bytes.NewReader(contents)).
		SetFormDataFromValues(form).
		Post(convertEndpoint)

	if err != nil {
		return Result{}, fmt.Errorf("error sending document to docling-serve: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("docling-serve returned error", "status_code", res.StatusCode(), "body", res.String())
		return Result{}, fmt.Errorf("docling-serve returned status %d", res.StatusCode())
	}

	var parsed convertResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return Result{}, fmt.Errorf("error parsing docling-serve response: %w", err)
	}

	return Result{
		Markdown: parsed.Document.MDContent,
		JSON:     parsed.Document.JSONContent,
	}, nil
}
