package test

import (
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/gomega"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"io/ioutil"
	"net/http"
	"sync"
)

const ElasticSearchURL = "http://localhost:9200"

//NewMockElasticSearch returns a client whose requests are answered by the returned transport.
//Requests without a registered responder fail.
func NewMockElasticSearch() (*elasticsearch.ElasticSearch, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	es, err := elasticsearch.NewElasticSearch(elasticsearch.Parameters{
		Url:       ElasticSearchURL,
		Transport: transport,
	})
	Expect(err).ToNot(HaveOccurred())
	return es, transport
}

func Url(path string) string {
	return ElasticSearchURL + path
}

func CallCount(transport *httpmock.MockTransport, method string, path string) int {
	return transport.GetCallCountInfo()[method+" "+Url(path)]
}

//RequestRecorder keeps the body of every request answered by its responders
type RequestRecorder struct {
	mutex  sync.Mutex
	bodies []string
}

func (r *RequestRecorder) Responder(status int, body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		if req.Body != nil {
			reqBody, err := ioutil.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			r.mutex.Lock()
			r.bodies = append(r.bodies, string(reqBody))
			r.mutex.Unlock()
		}
		return httpmock.NewStringResponse(status, body), nil
	}
}

func (r *RequestRecorder) Bodies() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	bodies := make([]string, len(r.bodies))
	copy(bodies, r.bodies)
	return bodies
}
