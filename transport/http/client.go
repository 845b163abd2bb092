package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/model"
	"github.com/autom8ter/livequery/store"
	"github.com/autom8ter/livequery/util"
	"github.com/samber/lo"
)

// ClientOpt is an option for configuring a Client
type ClientOpt func(c *Client)

// WithHTTPClient sets the http client used for requests
func WithHTTPClient(client *http.Client) ClientOpt {
	return func(c *Client) {
		c.http = client
	}
}

// Client is a client of a document server. It implements model.Loader so a live query can be
// executed against a remote store. The cursor of a loaded page is the page's last document.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ...ClientOpt) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load queries a page of documents from the collection
func (c *Client) Load(ctx context.Context, collection string, query model.Query) (*model.Page, error) {
	filters, err := json.Marshal(query.Filters)
	if err != nil {
		return nil, errors.Wrap(err, errors.Validation, "failed to encode filters")
	}
	cursor, err := requestCursor(query.StartAfter)
	if err != nil {
		return nil, err
	}
	req := QueryRequest{
		Filters:    filters,
		OrderBy:    query.OrderBy,
		Limit:      query.Limit,
		StartAfter: cursor,
	}
	if err := util.ValidateStruct(req); err != nil {
		return nil, err
	}
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, c.collectionURL(collection, "query"), req, &resp); err != nil {
		return nil, err
	}
	page := &model.Page{
		Documents: lo.Map(resp.Documents, func(doc *store.Document, _ int) model.Snapshot {
			return doc
		}),
	}
	if resp.Cursor != nil && len(resp.Documents) > 0 {
		page.Cursor = resp.Documents[len(resp.Documents)-1]
	}
	return page, nil
}

// Put writes the document to the collection
func (c *Client) Put(ctx context.Context, collection string, doc *store.Document) (*store.Document, error) {
	if doc.ID() == "" {
		return nil, errors.New(errors.Validation, "document id is required")
	}
	var out store.Document
	if err := c.do(ctx, http.MethodPut, c.collectionURL(collection, "docs", doc.ID()), json.RawMessage(doc.Bytes()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get gets a document from the collection
func (c *Client) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var out store.Document
	if err := c.do(ctx, http.MethodGet, c.collectionURL(collection, "docs", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch merges the fields into a document and returns the result
func (c *Client) Patch(ctx context.Context, collection, id string, fields map[string]any) (*store.Document, error) {
	var out store.Document
	if err := c.do(ctx, http.MethodPatch, c.collectionURL(collection, "docs", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete deletes a document from the collection
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.collectionURL(collection, "docs", id), nil, nil)
}

func (c *Client) collectionURL(collection string, elems ...string) string {
	path := []string{c.baseURL, "collections", url.PathEscape(strings.Trim(collection, "/"))}
	for _, elem := range elems {
		path = append(path, url.PathEscape(elem))
	}
	return strings.Join(path, "/")
}

// remoteError is the wire shape of an error response
type remoteError struct {
	Code     errors.Code `json:"code"`
	Messages []string    `json:"messages"`
}

func (c *Client) do(ctx context.Context, method, target string, in any, out any) error {
	var body io.Reader
	if in != nil {
		bits, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, errors.Validation, "failed to encode request")
		}
		body = bytes.NewReader(bits)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, errors.Validation, "failed to create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.Unavailable, "%s %s", method, target)
	}
	defer resp.Body.Close()
	bits, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.Unavailable, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote remoteError
		if err := json.Unmarshal(bits, &remote); err != nil || len(remote.Messages) == 0 {
			return errors.New(errors.Code(resp.StatusCode), "%s %s: %s", method, target, strings.TrimSpace(string(bits)))
		}
		return &errors.Error{
			Code:     errors.Code(resp.StatusCode),
			Messages: remote.Messages,
		}
	}
	if out == nil || len(bits) == 0 {
		return nil
	}
	if err := json.Unmarshal(bits, out); err != nil {
		return errors.Wrap(err, errors.Internal, "failed to decode %s response", method)
	}
	return nil
}
