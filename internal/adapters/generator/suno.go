package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"musebot/internal/core/domain"

	"github.com/rs/zerolog/log"
)

const (
	sunoConnectTimeout = 10 * time.Second
	sunoRequestTimeout = 45 * time.Second

	maxPollDelay = 8 * time.Second

	// Provider bodies can be huge; debug echoes are capped.
	submitEchoLimit = 1000
	pollEchoLimit   = 800
	pollEchoEvery   = 3

	clientUserAgent = "musebot/1.0"
)

var (
	ErrMissingAPIKey = errors.New("missing generation API key")
	ErrNoJobHandle   = errors.New("no job id in generate response")
)

// The record-info endpoint is queried with every known alias for the job id;
// deployments disagree on which one they read.
var jobHandleAliases = []string{"taskId", "task_id", "workId"}

// ProviderError is a provider-level error code embedded in an otherwise
// well-formed response body. Fatal for the operation it occurred on.
type ProviderError struct {
	Op      string
	Code    int
	Message string
	Raw     map[string]any
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error on %s: code=%d msg=%q", e.Op, e.Code, e.Message)
}

// GenerationFailedError is a terminal FAILED status reported for a job. The
// raw document is kept for diagnostics.
type GenerationFailedError struct {
	JobHandle string
	Status    string
	Raw       map[string]any
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed for job %s (status %s)", e.JobHandle, e.Status)
}

// PollTimeoutError is raised when the session deadline elapses before a
// terminal result. The handle and last seen status let the caller inspect or
// resume the job out-of-band.
type PollTimeoutError struct {
	JobHandle  string
	LastStatus domain.GenerationStatus
	Attempts   int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for job %s after %d attempts (last status %s)",
		e.JobHandle, e.Attempts, e.LastStatus)
}

// Suno wraps the asynchronous music generation API: submit a job, poll its
// record until it is done, normalize whatever schema variant comes back.
type Suno struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	sessionTimeout time.Duration
	pollInterval   time.Duration
	verbose        bool

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

func NewSuno(baseURL, apiKey string, sessionTimeout, pollInterval time.Duration, verbose bool) *Suno {
	return &Suno{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: sunoRequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: sunoConnectTimeout}).DialContext,
			},
		},
		sessionTimeout: sessionTimeout,
		pollInterval:   pollInterval,
		verbose:        verbose,
		sleep:          time.Sleep,
		now:            time.Now,
	}
}

// GenerateFromPayload submits the payload and blocks until the job produces
// tracks, fails, or the session deadline elapses. The payload's creative
// content is the caller's business; only an empty prompt would have been
// rejected earlier in the pipeline.
func (s *Suno) GenerateFromPayload(ctx context.Context, payload map[string]any) (*domain.GenerationResult, error) {
	handle, err := s.submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	log.Info().Str("jobHandle", handle).Msg("generation job submitted")

	tracks, err := s.waitForTracks(ctx, handle)
	if err != nil {
		return nil, err
	}

	return &domain.GenerationResult{JobHandle: handle, Tracks: tracks}, nil
}

// CheckGeneration fetches and normalizes the current record of a job without
// waiting for completion.
func (s *Suno) CheckGeneration(ctx context.Context, jobHandle string) (domain.GenerationStatus, []domain.Track, error) {
	doc, err := s.fetchStatus(ctx, jobHandle)
	if err != nil {
		return domain.StatusUnknown, nil, err
	}

	if code, ok := providerCode(doc); ok && code != http.StatusOK {
		return domain.StatusUnknown, nil, &ProviderError{
			Op: "record-info", Code: code, Message: providerMessage(doc), Raw: doc,
		}
	}

	st := parseStatusDocument(doc)
	return st.Status, st.Tracks, nil
}

func (s *Suno) submit(ctx context.Context, payload map[string]any) (string, error) {
	if s.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error encoding generate payload: %w", err)
	}

	if s.verbose {
		log.Debug().Str("payload", truncate(string(body), submitEchoLimit)).Msg("submitting generation job")
	}

	status, buf, err := s.doRequest(ctx, http.MethodPost, s.baseURL+"/generate", nil, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}

	if status != http.StatusOK {
		return "", fmt.Errorf("generate failed: HTTP %d: %s", status, truncate(string(buf), submitEchoLimit))
	}

	var doc map[string]any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return "", fmt.Errorf("generate response is not JSON: %s", truncate(string(buf), submitEchoLimit))
	}

	if s.verbose {
		log.Debug().Str("response", truncate(string(buf), submitEchoLimit)).Msg("generate response")
	}

	if code, ok := providerCode(doc); ok && code != http.StatusOK {
		return "", &ProviderError{Op: "generate", Code: code, Message: providerMessage(doc), Raw: doc}
	}

	handle := lookupString(doc, "data.taskId", "data.task_id", "data.workId", "taskId", "task_id", "workId")
	if handle == "" {
		return "", fmt.Errorf("%w: %s", ErrNoJobHandle, truncate(string(buf), submitEchoLimit))
	}

	return handle, nil
}

// waitForTracks drives the poll loop. One logical session per call: attempt
// counter, last seen status and deadline live and die here.
func (s *Suno) waitForTracks(ctx context.Context, handle string) ([]domain.Track, error) {
	deadline := s.now().Add(s.sessionTimeout)
	attempt := 0
	lastRaw := ""
	lastStatus := domain.StatusUnknown

	for s.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation wait canceled: %w", err)
		}

		attempt++
		if attempt > 1 {
			s.sleep(pollDelay(s.pollInterval, attempt))
		}

		doc, err := s.fetchStatus(ctx, handle)
		if err != nil {
			// A no-result attempt only costs deadline time.
			log.Debug().Err(err).Int("attempt", attempt).Str("jobHandle", handle).Msg("record-info attempt failed")
			continue
		}

		if s.verbose && attempt%pollEchoEvery == 1 {
			log.Debug().Str("response", truncateDoc(doc, pollEchoLimit)).Int("attempt", attempt).Msg("record-info response")
		}

		if code, ok := providerCode(doc); ok && code != http.StatusOK {
			return nil, &ProviderError{
				Op: "record-info", Code: code, Message: providerMessage(doc), Raw: doc,
			}
		}

		st := parseStatusDocument(doc)
		if st.RawStatus != "" {
			if st.RawStatus != lastRaw {
				log.Info().Str("status", st.RawStatus).Int("attempt", attempt).
					Str("jobHandle", handle).Msg("generation status changed")
			}
			lastRaw = st.RawStatus
			lastStatus = st.Status
		}

		switch st.Status {
		case domain.StatusFailed:
			return nil, &GenerationFailedError{JobHandle: handle, Status: st.RawStatus, Raw: doc}
		case domain.StatusSuccess:
			if len(st.Tracks) > 0 {
				return st.Tracks, nil
			}
			// The provider flips to SUCCESS before the track list is
			// attached. An empty list is indistinguishable from "still
			// finalizing", so keep polling; a genuinely empty result runs
			// into the deadline instead.
		}
	}

	return nil, &PollTimeoutError{JobHandle: handle, LastStatus: lastStatus, Attempts: attempt}
}

// fetchStatus polls the job record, GET first, then POST as a fallback
// within the same attempt. Some provider deployments only answer one of the
// two methods.
func (s *Suno) fetchStatus(ctx context.Context, handle string) (map[string]any, error) {
	endpoint := s.baseURL + "/generate/record-info"

	query := url.Values{}
	for _, key := range jobHandleAliases {
		query.Set(key, handle)
	}

	doc, getErr := s.tryFetch(ctx, http.MethodGet, endpoint, query, nil)
	if getErr == nil {
		return doc, nil
	}

	body := make(map[string]any, len(jobHandleAliases))
	for _, key := range jobHandleAliases {
		body[key] = handle
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error encoding record-info body: %w", err)
	}

	doc, postErr := s.tryFetch(ctx, http.MethodPost, endpoint, nil, bytes.NewReader(buf))
	if postErr == nil {
		return doc, nil
	}

	return nil, fmt.Errorf("record-info GET failed (%v), POST fallback failed: %w", getErr, postErr)
}

func (s *Suno) tryFetch(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (map[string]any, error) {
	status, buf, err := s.doRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("record-info %s: HTTP %d", method, status)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("record-info %s response is not JSON: %w", method, err)
	}

	return doc, nil
}

func (s *Suno) doRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating %s request: %w", method, err)
	}

	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", clientUserAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error executing %s request: %w", method, err)
	}
	defer res.Body.Close()

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("error reading %s response: %w", method, err)
	}

	return res.StatusCode, buf, nil
}

// pollDelay grows slowly with the attempt count and is capped, so early
// checks stay snappy while multi-minute jobs don't get hammered.
func pollDelay(base time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * (1 + float64(attempt)*0.25))
	if d > maxPollDelay {
		return maxPollDelay
	}
	return d
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func truncateDoc(doc map[string]any, limit int) string {
	buf, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return truncate(string(buf), limit)
}
