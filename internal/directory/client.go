package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"msgcore/internal/domain"
)

const (
	pathStore   = "/lid"
	pathResolve = "/lid/resolve"

	headerRequestID = "X-Request-ID"
)

type resolveRequest struct {
	LIDs []string `json:"lids"`
}

type mappingsBody struct {
	Mappings []domain.LIDMapping `json:"mappings"`
}

// Client is an HTTP DirectoryResolver.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a client for the directory at base.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// ResolveLIDs asks the directory for the PN of each LID.
func (c *Client) ResolveLIDs(ctx context.Context, lids []string) ([]domain.LIDMapping, error) {
	if len(lids) == 0 {
		return nil, nil
	}
	var out mappingsBody
	if err := c.post(ctx, pathResolve, resolveRequest{LIDs: lids}, &out); err != nil {
		return nil, err
	}
	return out.Mappings, nil
}

// Publish stores mappings in the directory.
func (c *Client) Publish(ctx context.Context, mappings []domain.LIDMapping) error {
	return c.post(ctx, pathStore, mappingsBody{Mappings: mappings}, nil)
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("directory post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.DirectoryResolver = (*Client)(nil)
