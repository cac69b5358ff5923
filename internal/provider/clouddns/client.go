package clouddns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evanofslack/clouddns-console/internal/provider"
)

const pageSize = 100

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

type client struct {
	baseURL      string
	token        string
	http         Httper
	pollInterval time.Duration
}

func (c *client) endpoint(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = strings.TrimSuffix(c.baseURL, "/") + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return target
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, provider.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("clouddns api request, status=%d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// async issues a mutating request and blocks until its job finishes.
// The job response, if any, is decoded into out.
func (c *client) async(ctx context.Context, method, path string, body, out any) error {
	var job asyncJob
	if err := c.do(ctx, method, path, nil, body, &job); err != nil {
		return err
	}
	return c.wait(ctx, job, out)
}

func (c *client) wait(ctx context.Context, job asyncJob, out any) error {
	for {
		switch job.Status {
		case statusCompleted:
			if out != nil && len(job.Response) > 0 {
				if err := json.Unmarshal(job.Response, out); err != nil {
					return fmt.Errorf("decode job %s response: %w", job.JobID, err)
				}
			}
			return nil
		case statusError:
			if job.Error == nil {
				return fmt.Errorf("job %s failed", job.JobID)
			}
			if job.Error.Code == http.StatusNotFound {
				return fmt.Errorf("job %s: %v: %w", job.JobID, job.Error, provider.ErrNotFound)
			}
			return fmt.Errorf("job %s: %w", job.JobID, job.Error)
		}

		// Synchronous responses carry neither status nor callback
		if job.Status == "" && job.CallbackURL == "" {
			return nil
		}
		if job.CallbackURL == "" {
			return fmt.Errorf("job %s in status %s has no callback url", job.JobID, job.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		callback := job.CallbackURL
		job = asyncJob{}
		if err := c.do(ctx, http.MethodGet, callback, url.Values{"showDetails": {"true"}}, nil, &job); err != nil {
			if errors.Is(err, provider.ErrNotFound) {
				return fmt.Errorf("poll job: status endpoint %s gone: %v", callback, err)
			}
			return fmt.Errorf("poll job: %w", err)
		}
		if job.CallbackURL == "" && job.Status != statusCompleted && job.Status != statusError {
			job.CallbackURL = callback
		}
	}
}

// paginate fetches every page of a listing. fetch decodes one page and
// reports how many items it held and the total the API claims.
func (c *client) paginate(ctx context.Context, path string, fetch func(page []byte) (int, int, error)) error {
	offset := 0
	for {
		query := url.Values{
			"limit":  {fmt.Sprint(pageSize)},
			"offset": {fmt.Sprint(offset)},
		}
		var raw json.RawMessage
		if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
			return err
		}
		n, total, err := fetch(raw)
		if err != nil {
			return err
		}
		offset += n
		if n == 0 || offset >= total {
			return nil
		}
	}
}
