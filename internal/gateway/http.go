package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPGateway talks to the bot gateway's internal REST API. It implements
// both IdentityService and DisplaySurface.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client for the given base URL.
func NewHTTPGateway(baseURL, token string, timeout time.Duration) *HTTPGateway {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolveMember returns the member's current display name and ordered role list.
func (g *HTTPGateway) ResolveMember(ctx context.Context, memberID string) (*MemberProfile, error) {
	var profile MemberProfile
	path := "/internal/members/" + url.PathEscape(memberID)
	if err := g.do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, fmt.Errorf("failed to resolve member %s: %w", memberID, err)
	}
	return &profile, nil
}

// GroupMembers returns all members holding the given role.
func (g *HTTPGateway) GroupMembers(ctx context.Context, roleID string) ([]*MemberProfile, error) {
	var members []*MemberProfile
	path := "/internal/roles/" + url.PathEscape(roleID) + "/members"
	if err := g.do(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, fmt.Errorf("failed to list members of role %s: %w", roleID, err)
	}
	return members, nil
}

// FetchLatestSystemMessage returns the most recent system message in the
// channel, or nil if there is none.
func (g *HTTPGateway) FetchLatestSystemMessage(ctx context.Context, channelID int64) (*Message, error) {
	var msg Message
	path := "/internal/channels/" + strconv.FormatInt(channelID, 10) + "/messages/latest"
	err := g.do(ctx, http.MethodGet, path, nil, &msg)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest message in channel %d: %w", channelID, err)
	}
	return &msg, nil
}

// Post creates a new message and returns its reference.
func (g *HTTPGateway) Post(ctx context.Context, channelID int64, content string) (string, error) {
	var msg Message
	path := "/internal/channels/" + strconv.FormatInt(channelID, 10) + "/messages"
	body := map[string]string{"content": content}
	if err := g.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return "", fmt.Errorf("failed to post message to channel %d: %w", channelID, err)
	}
	return msg.Ref, nil
}

// Edit replaces the content of an existing message.
func (g *HTTPGateway) Edit(ctx context.Context, messageRef string, content string) error {
	path := "/internal/messages/" + url.PathEscape(messageRef)
	body := map[string]string{"content": content}
	if err := g.do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", messageRef, err)
	}
	return nil
}

// statusError carries a non-2xx gateway response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, body: string(data)}
	}

	if dest != nil && len(data) > 0 {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
