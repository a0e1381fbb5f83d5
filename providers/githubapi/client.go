package githubapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/automate/teams-server/models/userdata"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

var (
	ErrNotFound     = errors.New("github resource not found")
	ErrUnauthorized = errors.New("github token rejected")
)

const perPage = 100

// API is the part of GitHub the teams server talks to.
type API interface {
	GetAuthenticatedUser(ctx context.Context) (*userdata.User, error)
	GetRepository(ctx context.Context, owner, repo string) (*userdata.Repository, error)
	ListCommits(ctx context.Context, owner, repo string, since time.Time) ([]userdata.Commit, error)
}

// Connector returns an API authenticated with token.
type Connector func(token string) (API, error)

type Options struct {
	// BaseURL points the client at a GitHub Enterprise or test server.
	BaseURL string
	Limiter *rate.Limiter
}

type Client struct {
	client  *github.Client
	limiter *rate.Limiter
}

func NewClient(token string, opts Options) (*Client, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, err
		}
		client.BaseURL = u
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 5)
	}

	return &Client{client: client, limiter: limiter}, nil
}

// NewConnector returns a Connector sharing opts across every token.
func NewConnector(opts Options) Connector {
	return func(token string) (API, error) {
		return NewClient(token, opts)
	}
}

func (c *Client) GetAuthenticatedUser(ctx context.Context) (*userdata.User, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return nil, translate(err)
	}

	return &userdata.User{
		GithubId: strconv.FormatInt(user.GetID(), 10),
		Username: user.GetLogin(),
		Email:    user.GetEmail(),
	}, nil
}

func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*userdata.Repository, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, translate(err)
	}

	return &userdata.Repository{
		Name:     res.GetName(),
		FullName: res.GetFullName(),
		GithubId: res.GetID(),
		Private:  res.GetPrivate(),
		Stars:    res.GetStargazersCount(),
		Forks:    res.GetForksCount(),
	}, nil
}

// ListCommits pages through the commits of the default branch made after
// since. A zero since lists the whole history.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, since time.Time) ([]userdata.Commit, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage, Page: 1},
	}

	commits := make([]userdata.Commit, 0)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, res, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, translate(err)
		}

		for _, commit := range page {
			author := commit.GetAuthor().GetLogin()
			if author == "" {
				author = commit.GetCommit().GetAuthor().GetName()
			}

			commits = append(commits, userdata.Commit{
				Sha:       commit.GetSHA(),
				Message:   commit.GetCommit().GetMessage(),
				Author:    author,
				CreatedAt: commit.GetCommit().GetAuthor().GetDate().Time,
			})
		}

		if res.NextPage == 0 {
			break
		}
		opts.Page = res.NextPage
	}

	return commits, nil
}

func translate(err error) error {
	var resErr *github.ErrorResponse
	if errors.As(err, &resErr) && resErr.Response != nil {
		switch resErr.Response.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return ErrUnauthorized
		}
	}
	return err
}
