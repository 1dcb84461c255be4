package elasticsearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/go-errors/errors"
	"io/ioutil"
	"net/http"
	"time"
)

const defaultRequestTimeout = 60 * time.Second

type ElasticSearch struct {
	Client         *elasticsearch.Client
	requestTimeout time.Duration
}

type Parameters struct {
	Url      string
	Username string
	Password string
	Insecure bool

	//RequestTimeout bounds every call whose context carries no deadline
	RequestTimeout time.Duration

	//Transport replaces http.DefaultTransport, e.g. with a mock in tests
	Transport http.RoundTripper
}

func NewElasticSearch(params Parameters) (*ElasticSearch, error) {
	transport := params.Transport
	if transport == nil && params.Insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: params.Insecure,
			},
		}
	}

	cfg := elasticsearch.Config{
		Addresses: []string{params.Url},
		Username:  params.Username,
		Password:  params.Password,
		Transport: transport,
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	requestTimeout := params.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &ElasticSearch{
		Client:         client,
		requestTimeout: requestTimeout,
	}, nil
}

//Ping checks the cluster answers the info endpoint
func (es *ElasticSearch) Ping(ctx context.Context) error {
	ctx, cancel := es.withDefaultTimeout(ctx)
	defer cancel()

	req := esapi.InfoRequest{}
	res, err := req.Do(ctx, es.Client)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	_, _, err = parseResponse(res)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

//withDefaultTimeout keeps the caller's deadline when one is set
func (es *ElasticSearch) withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, es.requestTimeout)
}

//ResponseError is returned for every response with a status code >= 300
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("Elasticsearch API error: %d, %s", e.StatusCode, e.Body)
}

//StatusCode returns the http status carried by err, or 0 when err did not come from a response
func StatusCode(err error) int {
	var responseError *ResponseError
	if errors.As(err, &responseError) {
		return responseError.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func parseResponse(res *esapi.Response) (int, []byte, error) {
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, errors.Wrap(err, 0)
	}

	if res.IsError() {
		return res.StatusCode, body, errors.Wrap(&ResponseError{
			StatusCode: res.StatusCode,
			Body:       string(body),
		}, 0)
	}

	return res.StatusCode, body, nil
}
