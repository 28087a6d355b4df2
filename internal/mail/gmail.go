package mail

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailService is the Gmail-backed implementation of Service. It assumes an
// already-authorized user; see NewGmailService for how credentials are loaded.
type GmailService struct {
	svc      *gmail.Service
	user     string
	pageSize int64
}

// NewGmailService builds a GmailService from an OAuth client-secrets file and
// a cached token file, requesting the readonly scope. If no cached token
// exists the installed-app flow is run once and the token is saved for
// subsequent starts.
func NewGmailService(ctx context.Context, credentialsFile, tokenFile string, pageSize int64) (*GmailService, error) {
	httpClient, err := authorizedClient(ctx, credentialsFile, tokenFile)
	if err != nil {
		return nil, fmt.Errorf("NewGmailService: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("NewGmailService: creating gmail client: %w", err)
	}

	return &GmailService{
		svc:      svc,
		user:     "me",
		pageSize: pageSize,
	}, nil
}

// ListRecent implements Service.
func (s *GmailService) ListRecent(ctx context.Context) ([]Ref, error) {
	resp, err := s.svc.Users.Messages.List(s.user).MaxResults(s.pageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ListRecent: listing messages: %w", err)
	}

	refs := make([]Ref, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		refs = append(refs, Ref{ID: m.Id})
	}
	return refs, nil
}

// Get implements Service.
func (s *GmailService) Get(ctx context.Context, id string) (*Digest, error) {
	msg, err := s.svc.Users.Messages.Get(s.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Get: fetching message %s: %w", id, err)
	}
	return digestOf(msg), nil
}

// Ensure GmailService implements Service.
var _ Service = (*GmailService)(nil)
