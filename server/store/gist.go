package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ahadchat/server/model"
)

const (
	gistAccept = "application/vnd.github.v3+json"

	// maxGistResponseSize bounds how much of a gist response is read.
	maxGistResponseSize = 10 * 1024 * 1024
)

// GistStore keeps the document as one file inside a GitHub gist.
type GistStore struct {
	token    string
	gistID   string
	fileName string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistDocument struct {
	Files map[string]*gistFile `json:"files"`
}

// NewGistStore creates a store for file fileName of gist gistID.
func NewGistStore(token, gistID, fileName string) *GistStore {
	return &GistStore{
		token:    token,
		gistID:   gistID,
		fileName: fileName,
		baseURL:  "https://api.github.com",
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

// WithBaseURL points the store at another API root, such as a test server.
func (s *GistStore) WithBaseURL(u string) *GistStore {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

func (s *GistStore) WithTimeout(timeout time.Duration) *GistStore {
	s.client.Timeout = timeout
	return s
}

// WithRateLimit caps outgoing requests per second. Zero removes the cap.
func (s *GistStore) WithRateLimit(perSecond float64) *GistStore {
	if perSecond <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return s
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return s
}

func (s *GistStore) gistURL() string {
	return s.baseURL + "/gists/" + url.PathEscape(s.gistID)
}

func (s *GistStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+s.token)
	req.Header.Set("Accept", gistAccept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *GistStore) Load(ctx context.Context) ([]model.Message, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.gistURL(), nil)
	if err != nil {
		return nil, unavailable("load gist", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable("load gist", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGistResponseSize))
	if err != nil {
		return nil, unavailable("load gist", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("load gist", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var doc gistDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, unavailable("load gist", fmt.Errorf("decode gist: %w", err))
	}

	file, ok := doc.Files[s.fileName]
	if !ok || file == nil {
		return []model.Message{}, nil
	}

	content := []byte(file.Content)
	if file.Truncated && file.RawURL != "" {
		content, err = s.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, unavailable("load gist", err)
		}
	}

	msgs, err := Decode(content)
	if err != nil {
		return nil, unavailable("load gist", err)
	}
	return msgs, nil
}

// fetchRaw downloads a file GitHub truncated in the gist response.
func (s *GistStore) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raw content: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxGistResponseSize))
}

func (s *GistStore) Save(ctx context.Context, msgs []model.Message) error {
	content, err := Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	body, err := json.Marshal(gistDocument{
		Files: map[string]*gistFile{s.fileName: {Content: string(content)}},
	})
	if err != nil {
		return fmt.Errorf("encode gist: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPatch, s.gistURL(), bytes.NewReader(body))
	if err != nil {
		return unavailable("save gist", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return unavailable("save gist", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxGistResponseSize))

	if resp.StatusCode != http.StatusOK {
		return unavailable("save gist", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
