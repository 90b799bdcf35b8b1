package simplefin

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Veraticus/payroll-sentinel/internal/common"
)

// ClaimAccessURL exchanges a one-time setup token for the permanent access
// URL. The setup token is a base64-encoded claim URL; claiming it twice fails.
func ClaimAccessURL(ctx context.Context, httpClient *http.Client, setupToken string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(strings.TrimSpace(setupToken))
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(strings.TrimSpace(setupToken))
		if err != nil {
			return "", common.NewUserError("SimpleFIN setup token is not valid base64", err)
		}
	}

	claimURL := string(decoded)
	if !isHTTPURL(claimURL) {
		return "", common.NewUserError("SimpleFIN setup token does not contain a URL", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create claim request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to claim access URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read access URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &common.HTTPStatusError{Service: "simplefin", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	accessURL := strings.TrimSpace(string(body))
	if !isHTTPURL(accessURL) {
		return "", fmt.Errorf("%w: simplefin returned an invalid access URL", common.ErrProviderUnavailable)
	}
	return accessURL, nil
}

// Redact hides the credentials embedded in an access URL for logging.
func Redact(accessURL string) string {
	u, err := url.Parse(accessURL)
	if err != nil || u.User == nil {
		return accessURL
	}
	u.User = url.User("redacted")
	return u.String()
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
