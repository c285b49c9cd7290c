package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// defaultWatsonxURL is the regional endpoint used when none is configured.
	defaultWatsonxURL = "https://us-south.ml.cloud.ibm.com"

	// watsonxModel is the fixed model used by the enterprise provider.
	watsonxModel = "mistralai/mixtral-8x7b-instruct-v01"

	// watsonxAPIVersion pins the text-generation API version.
	watsonxAPIVersion = "2023-05-29"

	// iamTokenURL exchanges an API key for a short-lived bearer token.
	iamTokenURL = "https://iam.cloud.ibm.com/identity/token"

	// iamTokenSlack refreshes the token this long before it expires.
	iamTokenSlack = 2 * time.Minute
)

// watsonxBackend is the enterprise provider, backed by watsonx.ai.
// A per-call request carries the fixed model identifier and generation
// parameters; only the IAM token is refreshed between calls.
type watsonxBackend struct {
	baseURL   string
	apiKey    string
	projectID string
	model     string
	client    *http.Client
	logger    *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func newWatsonx(baseURL, apiKey, projectID string, logger *slog.Logger) *watsonxBackend {
	if baseURL == "" {
		baseURL = defaultWatsonxURL
	}
	return &watsonxBackend{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		projectID: projectID,
		model:     watsonxModel,
		client:    &http.Client{Timeout: 120 * time.Second},
		logger:    logger,
	}
}

func (b *watsonxBackend) Name() string { return "watsonx" }

type watsonxParameters struct {
	DecodingMethod string `json:"decoding_method"`
	MaxNewTokens   int    `json:"max_new_tokens"`
}

type watsonxRequest struct {
	Input      string            `json:"input"`
	ModelID    string            `json:"model_id"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
		StopReason    string `json:"stop_reason"`
	} `json:"results"`
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Generate sends the prompt to the text-generation endpoint and returns
// the generated text of the first result.
func (b *watsonxBackend) Generate(ctx context.Context, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	body := watsonxRequest{
		Input:     prompt,
		ModelID:   b.model,
		ProjectID: b.projectID,
		Parameters: watsonxParameters{
			DecodingMethod: "greedy",
			MaxNewTokens:   MaxOutputTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ml/v1/text/generation?version=%s", b.baseURL, watsonxAPIVersion)

	return retryWithBackoff(timeoutCtx, b.logger, "watsonx.Generate", func() (string, error) {
		token, err := b.bearerToken(timeoutCtx)
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(timeoutCtx, "POST", endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := b.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("watsonx request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("watsonx API error: status %d, body: %s", resp.StatusCode, string(respBody))
		}

		var result watsonxResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}

		if len(result.Results) == 0 || result.Results[0].GeneratedText == "" {
			return "", fmt.Errorf("no generated text in watsonx response")
		}

		return result.Results[0].GeneratedText, nil
	})
}

// bearerToken returns a cached IAM bearer token, refreshing it when
// it is close to expiry.
func (b *watsonxBackend) bearerToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token != "" && time.Now().Before(b.tokenExpiry.Add(-iamTokenSlack)) {
		return b.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", b.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", iamTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("IAM token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("IAM token request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var token iamTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("empty access token in IAM response")
	}

	b.token = token.AccessToken
	b.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return b.token, nil
}
