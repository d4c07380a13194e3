package registryapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURLConstant             = "https://api.kegpkg.dev"
	defaultRepositoryBaseURLConstant      = "https://repo.kegpkg.dev"
	defaultUserAgentConstant              = "keg-cli"
	defaultRequestTimeoutConstant         = 30 * time.Second
	docsArchiveURLTemplateConstant        = "%s/docs/%s-%s.tar.gz"
	releaseDocsURLTemplateConstant        = "%s/packages/%s/releases/%s/docs"
	registrySnapshotURLTemplateConstant   = "%s/registry/snapshot.gz"
	userAgentHeaderNameConstant           = "User-Agent"
	authorizationHeaderNameConstant       = "Authorization"
	authorizationHeaderTemplateConstant   = "Bearer %s"
	requestCreationErrorTemplateConstant  = "unable to create %s request: %w"
	requestExecutionErrorTemplateConstant = "%s request failed: %w"
	responseCopyErrorTemplateConstant     = "unable to read %s response: %w"
	statusErrorTemplateConstant           = "%s rejected with status %d: %s"
	statusWithoutBodyTemplateConstant     = "%s rejected with status %d"
	docsDownloadOperationConstant         = "documentation download"
	docsRevertOperationConstant           = "documentation revert"
	snapshotDownloadOperationConstant     = "registry snapshot download"
	errorBodyByteLimitConstant            = 8 * 1024
)

// HTTPClient executes HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// StatusError describes a registry response outside the success range.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

// Error renders the failed operation with the response status and body.
func (statusError *StatusError) Error() string {
	if len(statusError.Body) == 0 {
		return fmt.Sprintf(statusWithoutBodyTemplateConstant, statusError.Operation, statusError.StatusCode)
	}
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.Body)
}

// Client talks to the keg registry API and the documentation repository.
type Client struct {
	httpClient        HTTPClient
	apiBaseURL        string
	repositoryBaseURL string
	userAgent         string
}

type clientOptions struct {
	httpClient        HTTPClient
	apiBaseURL        string
	repositoryBaseURL string
	userAgent         string
	requestTimeout    time.Duration
}

// Option adjusts registry client construction.
type Option func(*clientOptions)

// WithHTTPClient substitutes the transport used for registry requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(options *clientOptions) {
		options.httpClient = httpClient
	}
}

// WithAPIBaseURL overrides the registry API endpoint.
func WithAPIBaseURL(apiBaseURL string) Option {
	return func(options *clientOptions) {
		options.apiBaseURL = apiBaseURL
	}
}

// WithRepositoryBaseURL overrides the documentation repository endpoint.
func WithRepositoryBaseURL(repositoryBaseURL string) Option {
	return func(options *clientOptions) {
		options.repositoryBaseURL = repositoryBaseURL
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(options *clientOptions) {
		options.userAgent = userAgent
	}
}

// WithRequestTimeout bounds requests issued through the default transport.
func WithRequestTimeout(requestTimeout time.Duration) Option {
	return func(options *clientOptions) {
		options.requestTimeout = requestTimeout
	}
}

// NewClient builds a registry client with defaults applied for any
// unspecified option.
func NewClient(options ...Option) *Client {
	resolvedOptions := clientOptions{
		apiBaseURL:        defaultAPIBaseURLConstant,
		repositoryBaseURL: defaultRepositoryBaseURLConstant,
		userAgent:         defaultUserAgentConstant,
		requestTimeout:    defaultRequestTimeoutConstant,
	}
	for _, applyOption := range options {
		applyOption(&resolvedOptions)
	}

	if resolvedOptions.httpClient == nil {
		resolvedOptions.httpClient = &http.Client{Timeout: resolvedOptions.requestTimeout}
	}

	return &Client{
		httpClient:        resolvedOptions.httpClient,
		apiBaseURL:        strings.TrimRight(resolvedOptions.apiBaseURL, "/"),
		repositoryBaseURL: strings.TrimRight(resolvedOptions.repositoryBaseURL, "/"),
		userAgent:         resolvedOptions.userAgent,
	}
}

// DocsArchiveURL reports the download location of a documentation archive.
func (client *Client) DocsArchiveURL(packageName string, packageVersion string) string {
	return fmt.Sprintf(docsArchiveURLTemplateConstant, client.repositoryBaseURL, packageName, packageVersion)
}

// DownloadDocsArchive streams a documentation archive into sink and reports
// the number of bytes written.
func (client *Client) DownloadDocsArchive(requestContext context.Context, packageName string, packageVersion string, sink io.Writer) (int64, error) {
	archiveURL := client.DocsArchiveURL(packageName, packageVersion)
	return client.download(requestContext, docsDownloadOperationConstant, archiveURL, sink)
}

// DownloadRegistrySnapshot streams the compressed registry snapshot into sink
// and reports the number of bytes written.
func (client *Client) DownloadRegistrySnapshot(requestContext context.Context, sink io.Writer) (int64, error) {
	snapshotURL := fmt.Sprintf(registrySnapshotURLTemplateConstant, client.repositoryBaseURL)
	return client.download(requestContext, snapshotDownloadOperationConstant, snapshotURL, sink)
}

// DeleteReleaseDocs removes the published documentation of a release.
func (client *Client) DeleteReleaseDocs(requestContext context.Context, packageName string, packageVersion string, apiKey string) error {
	revertURL := fmt.Sprintf(releaseDocsURLTemplateConstant, client.apiBaseURL, packageName, packageVersion)
	httpRequest, requestError := http.NewRequestWithContext(requestContext, http.MethodDelete, revertURL, http.NoBody)
	if requestError != nil {
		return fmt.Errorf(requestCreationErrorTemplateConstant, docsRevertOperationConstant, requestError)
	}
	httpRequest.Header.Set(userAgentHeaderNameConstant, client.userAgent)
	httpRequest.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplateConstant, apiKey))

	httpResponse, executionError := client.httpClient.Do(httpRequest)
	if executionError != nil {
		return fmt.Errorf(requestExecutionErrorTemplateConstant, docsRevertOperationConstant, executionError)
	}
	defer func() {
		_ = httpResponse.Body.Close()
	}()

	if !isSuccessStatus(httpResponse.StatusCode) {
		return &StatusError{
			Operation:  docsRevertOperationConstant,
			StatusCode: httpResponse.StatusCode,
			Body:       readErrorBody(httpResponse.Body),
		}
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(httpResponse.Body, errorBodyByteLimitConstant))
	return nil
}

func (client *Client) download(requestContext context.Context, operationName string, requestURL string, sink io.Writer) (int64, error) {
	httpRequest, requestError := http.NewRequestWithContext(requestContext, http.MethodGet, requestURL, http.NoBody)
	if requestError != nil {
		return 0, fmt.Errorf(requestCreationErrorTemplateConstant, operationName, requestError)
	}
	httpRequest.Header.Set(userAgentHeaderNameConstant, client.userAgent)

	httpResponse, executionError := client.httpClient.Do(httpRequest)
	if executionError != nil {
		return 0, fmt.Errorf(requestExecutionErrorTemplateConstant, operationName, executionError)
	}
	defer func() {
		_ = httpResponse.Body.Close()
	}()

	if !isSuccessStatus(httpResponse.StatusCode) {
		return 0, &StatusError{
			Operation:  operationName,
			StatusCode: httpResponse.StatusCode,
			Body:       readErrorBody(httpResponse.Body),
		}
	}

	writtenBytes, copyError := io.Copy(sink, httpResponse.Body)
	if copyError != nil {
		return writtenBytes, fmt.Errorf(responseCopyErrorTemplateConstant, operationName, copyError)
	}

	return writtenBytes, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func readErrorBody(bodyReader io.Reader) string {
	bodyBytes, readError := io.ReadAll(io.LimitReader(bodyReader, errorBodyByteLimitConstant))
	if readError != nil {
		return ""
	}
	return strings.TrimSpace(string(bodyBytes))
}
