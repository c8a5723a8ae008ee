package paapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/petitecurve/storefront/internal/domain"
)

const (
	serviceName     = "ProductAdvertisingAPI"
	searchItemsPath = "/paapi5/searchitems"
	searchItemsOp   = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	partnerType     = "Associates"
)

// Options configures a Client
type Options struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Host        string // e.g. webservices.amazon.com
	Region      string // e.g. us-east-1
	Marketplace string // e.g. www.amazon.com
	// Endpoint overrides https://{Host}; used against test servers
	Endpoint          string
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *zap.Logger
}

// Client handles communication with the Product Advertising API 5.0
type Client struct {
	httpClient  *http.Client
	signer      *v4.Signer
	credentials aws.Credentials
	partnerTag  string
	region      string
	marketplace string
	endpoint    string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient creates a new PA-API client. It fails when any credential is
// missing so callers can fall back to running without the API.
func NewClient(opts Options) (*Client, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" || opts.PartnerTag == "" {
		return nil, fmt.Errorf("%w: access key, secret key and partner tag are required", domain.ErrAPIUnavailable)
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		if opts.Host == "" {
			return nil, fmt.Errorf("%w: PA-API host is required", domain.ErrInvalidConfig)
		}
		endpoint = "https://" + opts.Host
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// PA-API starts every account at one request per second
	limit := rate.Limit(opts.RequestsPerSecond)
	if opts.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signer: v4.NewSigner(),
		credentials: aws.Credentials{
			AccessKeyID:     opts.AccessKey,
			SecretAccessKey: opts.SecretKey,
			Source:          "storefront",
		},
		partnerTag:  opts.PartnerTag,
		region:      region,
		marketplace: opts.Marketplace,
		endpoint:    strings.TrimRight(endpoint, "/"),
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger.Named("paapi"),
		now:         time.Now,
	}, nil
}

// SearchItems runs one SearchItems call. It does not retry; failures come
// back as *domain.APIError so callers can tell throttling apart.
func (c *Client) SearchItems(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &domain.APIError{Kind: domain.APIErrorTransport, Message: "rate limiter wait", Err: err}
	}

	body, err := json.Marshal(searchItemsRequest{
		Keywords:    req.Keywords,
		SearchIndex: req.SearchIndex,
		ItemCount:   req.ItemCount,
		ItemPage:    req.ItemPage,
		PartnerTag:  c.partnerTag,
		PartnerType: partnerType,
		Marketplace: c.marketplace,
		Resources:   req.Resources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := c.newSignedRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("SearchItems",
		zap.String("keywords", req.Keywords),
		zap.Int("page", req.ItemPage))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.APIError{Kind: domain.APIErrorTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{Kind: domain.APIErrorTransport, StatusCode: resp.StatusCode, Err: err}
	}

	var parsed SearchItemsResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if hasErrorCode(parsed.Errors, "NoResults") {
		return &domain.SearchResult{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyFailure(resp.StatusCode, parsed.Errors, raw)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrPAAPIFailure, decodeErr)
	}

	if parsed.SearchResult == nil && len(parsed.Errors) > 0 {
		return nil, classifyFailure(resp.StatusCode, parsed.Errors, raw)
	}

	return MapSearchResult(parsed.SearchResult), nil
}

// newSignedRequest builds the POST and signs it with SigV4
func (c *Client) newSignedRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+searchItemsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Content-Encoding", "amz-1.0")
	req.Header.Set("X-Amz-Target", searchItemsOp)
	req.Header.Set("User-Agent", "Storefront/1.0")

	sum := sha256.Sum256(body)
	if err := c.signer.SignHTTP(ctx, c.credentials, req, hex.EncodeToString(sum[:]), serviceName, c.region, c.now()); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	return req, nil
}

// classifyFailure maps a non-success response to a structured error
func classifyFailure(status int, errs []ErrorData, raw []byte) *domain.APIError {
	apiErr := &domain.APIError{StatusCode: status}
	if len(errs) > 0 {
		apiErr.Code = errs[0].Code
		apiErr.Message = errs[0].Message
	} else if len(raw) > 0 {
		apiErr.Message = truncate(string(raw), 200)
	}

	switch {
	case status == http.StatusTooManyRequests || apiErr.Code == "TooManyRequests" || apiErr.Code == "RequestThrottled":
		apiErr.Kind = domain.APIErrorThrottled
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = domain.APIErrorAuth
	case status == http.StatusBadRequest:
		apiErr.Kind = domain.APIErrorInvalidRequest
	case status == http.StatusNotFound:
		apiErr.Kind = domain.APIErrorNotFound
	case status >= 500:
		apiErr.Kind = domain.APIErrorServer
	default:
		apiErr.Kind = domain.APIErrorUnknown
	}

	return apiErr
}

func hasErrorCode(errs []ErrorData, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
