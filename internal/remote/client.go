// Package remote talks to the spreadsheet backed web app that owns the
// work orders. Every response is wrapped in the same envelope:
//
//	{"success": true, "data": ..., "error": "...", "message": "..."}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"workOrders/internal/dashboard/models"

	"github.com/pkg/errors"
)

const (
	ActionGetWorkOrders    = "getWorkOrders"
	ActionGetFilterOptions = "getFilterOptions"
	ActionUpdateActionPlan = "updateActionPlan"
)

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ListResult struct {
	Rows []models.RawRow
	// Raw is the undecoded data array, kept so it can be cached verbatim.
	Raw json.RawMessage
}

type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type UpdateActionPlanRequest struct {
	Action     string `json:"action"`
	RequestNo  string `json:"request_no"`
	ActionPlan string `json:"action_plan"`
}

// Client makes a single attempt per call. There is no client side timeout,
// callers cancel through the context.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
	}
}

// FetchList issues a GET with the given action and every non-empty param and
// decodes the envelope data as a list of rows.
func (c *Client) FetchList(ctx context.Context, action string, params map[string]string) (*ListResult, error) {
	env, err := c.get(ctx, action, params)
	if err != nil {
		return nil, err
	}
	result := &ListResult{Rows: []models.RawRow{}, Raw: env.Data}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		result.Raw = json.RawMessage("[]")
		return result, nil
	}
	if err := json.Unmarshal(env.Data, &result.Rows); err != nil {
		return nil, &NetworkError{Err: errors.Wrapf(err, "decoding %s data", action)}
	}
	return result, nil
}

// Submit POSTs payload as JSON.
func (c *Client) Submit(ctx context.Context, payload any) (*SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Success: env.Success, Message: env.Message}, nil
}

func (c *Client) GetWorkOrders(ctx context.Context) (*ListResult, error) {
	return c.FetchList(ctx, ActionGetWorkOrders, nil)
}

type filterOptionsPayload struct {
	Hospitals []string      `json:"hospitals"`
	Years     []json.Number `json:"years"`
	Services  []string      `json:"services"`
}

// GetFilterOptions asks the backend for the distinct selector values.
func (c *Client) GetFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	env, err := c.get(ctx, ActionGetFilterOptions, nil)
	if err != nil {
		return nil, err
	}
	var payload filterOptionsPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "decoding filter options")}
	}
	opts := &models.FilterOptions{
		Hospitals: payload.Hospitals,
		Services:  payload.Services,
		Years:     []int{},
	}
	if opts.Hospitals == nil {
		opts.Hospitals = []string{}
	}
	if opts.Services == nil {
		opts.Services = []string{}
	}
	for _, y := range payload.Years {
		whole, _, _ := strings.Cut(y.String(), ".")
		if year, err := strconv.Atoi(whole); err == nil {
			opts.Years = append(opts.Years, year)
		}
	}
	return opts, nil
}

func (c *Client) UpdateActionPlan(ctx context.Context, requestNo, actionPlan string) (*SubmitResult, error) {
	return c.Submit(ctx, UpdateActionPlanRequest{
		Action:     ActionUpdateActionPlan,
		RequestNo:  requestNo,
		ActionPlan: actionPlan,
	})
}

func (c *Client) get(ctx context.Context, action string, params map[string]string) (*Envelope, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing remote url %q", c.BaseURL)
	}
	q := u.Query()
	q.Set("action", action)
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Envelope, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrapf(err, "%s %s", req.Method, req.URL.Redacted())}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, NewHTTPStatusError(resp.StatusCode)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "parsing response")}
	}
	if !env.Success {
		return nil, NewRemoteError(env.Error)
	}
	return &env, nil
}
