// Package api talks to a remote Billed REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"billed/internal/bills"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/middleware/trace"
)

var _ bills.Service = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid bills api url %q", baseURL)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent(log.ComponentAPI),
	}, nil
}

// billDTO is the backend's JSON shape. Amounts travel as euros.
type billDTO struct {
	ID         string  `json:"id,omitempty"`
	Email      string  `json:"email"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	VAT        string  `json:"vat"`
	Pct        int     `json:"pct"`
	Commentary string  `json:"commentary"`
	FileURL    string  `json:"fileUrl"`
	FileName   string  `json:"fileName"`
	Status     string  `json:"status"`
}

type uploadResponse struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// List fetches every bill and keeps the ones belonging to email.
// An empty email keeps them all.
func (c *Client) List(ctx context.Context, email string) ([]core.Bill, error) {
	var dtos []billDTO
	if err := c.do(ctx, http.MethodGet, "/bills", nil, "", &dtos); err != nil {
		return nil, err
	}

	out := make([]core.Bill, 0, len(dtos))
	for _, d := range dtos {
		if email != "" && !strings.EqualFold(d.Email, email) {
			continue
		}
		b, err := fromDTO(d)
		if err != nil {
			// One corrupted record must not hide the others.
			c.logger.WarnContext(ctx, "Skipping malformed bill from api",
				log.FieldBillID, d.ID, log.FieldError, err)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// CreateOrUpdate uploads the receipt when one is given, which creates the
// record server side, then patches the bill fields onto it.
func (c *Client) CreateOrUpdate(ctx context.Context, b core.Bill, receipt core.Receipt) (core.Bill, error) {
	if !receipt.Empty() {
		up, err := c.upload(ctx, b.Email, receipt)
		if err != nil {
			return core.Bill{}, err
		}
		if b.ID == "" {
			b.ID = up.Key
		}
		b.FileURL = up.FileURL
		b.FileName = receipt.Name
	}
	if b.ID == "" {
		return core.Bill{}, fmt.Errorf("update bill without key or receipt: %w", core.ErrNotFound)
	}

	body, err := json.Marshal(toDTO(b))
	if err != nil {
		return core.Bill{}, fmt.Errorf("encode bill: %w", err)
	}
	var updated billDTO
	if err := c.do(ctx, http.MethodPatch, "/bills/"+url.PathEscape(b.ID), bytes.NewReader(body), "application/json", &updated); err != nil {
		return core.Bill{}, err
	}

	c.logger.InfoContext(ctx, "Bill sent to api",
		log.FieldBillID, b.ID,
		log.FieldEmail, b.Email,
		log.FieldFileName, b.FileName)

	if updated.ID == "" {
		return b, nil
	}
	return fromDTO(updated)
}

func (c *Client) upload(ctx context.Context, email string, receipt core.Receipt) (uploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("email", email); err != nil {
		return uploadResponse{}, fmt.Errorf("write email field: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, receipt.Name))
	h.Set("Content-Type", receipt.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return uploadResponse{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(receipt.Data); err != nil {
		return uploadResponse{}, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return uploadResponse{}, fmt.Errorf("close multipart body: %w", err)
	}

	var up uploadResponse
	if err := c.do(ctx, http.MethodPost, "/bills", &buf, mw.FormDataContentType(), &up); err != nil {
		return uploadResponse{}, err
	}
	if up.Key == "" {
		return uploadResponse{}, fmt.Errorf("upload receipt: empty key in response")
	}
	return up, nil
}

// do sends a request and decodes a JSON answer into out. Non-2xx answers
// become *core.RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if reqID := trace.GetRequestID(ctx); reqID != "" {
		req.Header.Set(trace.HeaderRequestID, reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Bills api call",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &core.RemoteError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			rerr.Message = strings.TrimSpace(er.Message)
		}
		return rerr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func toDTO(b core.Bill) billDTO {
	return billDTO{
		ID:         b.ID,
		Email:      b.Email,
		Type:       b.Type,
		Name:       b.Name,
		Date:       b.Date.Format(core.DateLayout),
		Amount:     b.Amount.Euros(),
		VAT:        b.VAT,
		Pct:        b.Pct,
		Commentary: b.Commentary,
		FileURL:    b.FileURL,
		FileName:   b.FileName,
		Status:     string(b.Status),
	}
}

func fromDTO(d billDTO) (core.Bill, error) {
	date, err := core.ParseBillDate(d.Date)
	if err != nil {
		return core.Bill{}, fmt.Errorf("parse date %q: %w", d.Date, err)
	}
	status := core.BillStatus(d.Status)
	if status == "" {
		status = core.StatusPending
	}
	return core.Bill{
		ID:         d.ID,
		Email:      d.Email,
		Type:       d.Type,
		Name:       d.Name,
		Date:       date,
		Amount:     core.Money{Cents: int64(math.Round(d.Amount * 100))},
		VAT:        d.VAT,
		Pct:        d.Pct,
		Commentary: d.Commentary,
		FileURL:    d.FileURL,
		FileName:   d.FileName,
		Status:     status,
	}, nil
}
