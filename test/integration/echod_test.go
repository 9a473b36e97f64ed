package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doRequest(method, path string, body io.Reader, header http.Header) (*http.Response, []byte) {
	req, err := http.NewRequest(method, server.URL+path, body)
	Expect(err).NotTo(HaveOccurred())
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := httpClient().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, data
}

func parseObject(data []byte) map[string]any {
	var m map[string]any
	Expect(json.Unmarshal(data, &m)).To(Succeed(), string(data))
	return m
}

var _ = Describe("echod", func() {
	Describe("request inspection", func() {
		It("echoes query args and the request URL on /get", func() {
			resp, data := doRequest(http.MethodGet, "/get?a=1&a=2&b=x", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))

			body := parseObject(data)
			Expect(body["args"]).To(HaveKeyWithValue("b", "x"))
			Expect(body["args"]).To(HaveKeyWithValue("a", ConsistOf("1", "2")))
			Expect(body["url"]).To(HaveSuffix("/get?a=1&a=2&b=x"))
			Expect(body).To(HaveKey("origin"))
		})

		It("echoes form fields on /post", func() {
			form := url.Values{"custname": {"Test User"}, "size": {"medium"}}
			resp, data := doRequest(http.MethodPost, "/post", strings.NewReader(form.Encode()),
				http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(parseObject(data)["form"]).To(Equal(map[string]any{"custname": "Test User", "size": "medium"}))
		})

		It("decodes JSON bodies on /put", func() {
			resp, data := doRequest(http.MethodPut, "/put", strings.NewReader(`{"n":3}`),
				http.Header{"Content-Type": {"application/json"}})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body := parseObject(data)
			Expect(body["json"]).To(Equal(map[string]any{"n": float64(3)}))
			Expect(body["data"]).To(Equal(`{"n":3}`))
		})

		It("reports the method on /anything", func() {
			_, data := doRequest(http.MethodDelete, "/anything/deep/path", nil, nil)
			Expect(parseObject(data)["method"]).To(Equal(http.MethodDelete))
		})

		It("reflects custom headers and the user agent", func() {
			_, data := doRequest(http.MethodGet, "/headers", nil, http.Header{"X-Probe": {"yes"}})
			Expect(parseObject(data)["headers"]).To(HaveKeyWithValue("X-Probe", "yes"))

			_, data = doRequest(http.MethodGet, "/user-agent", nil, http.Header{"User-Agent": {"ci-smoke/test"}})
			Expect(parseObject(data)).To(HaveKeyWithValue("user-agent", "ci-smoke/test"))
		})

		It("prefers X-Forwarded-For for the origin", func() {
			_, data := doRequest(http.MethodGet, "/ip", nil, http.Header{"X-Forwarded-For": {"203.0.113.9"}})
			Expect(parseObject(data)).To(HaveKeyWithValue("origin", "203.0.113.9"))
		})
	})

	Describe("status codes", func() {
		DescribeTable("returns the requested code",
			func(code int) {
				resp, _ := doRequest(http.MethodGet, "/status/"+strconv.Itoa(code), nil, nil)
				Expect(resp.StatusCode).To(Equal(code))
			},
			Entry("ok", 200),
			Entry("created", 201),
			Entry("not found", 404),
			Entry("teapot", 418),
			Entry("server error", 500),
		)

		It("redirects to /get", func() {
			resp, _ := doRequest(http.MethodGet, "/status/302", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusFound))
			Expect(resp.Header.Get("Location")).To(Equal("/get"))
		})

		It("picks one of several codes", func() {
			resp, _ := doRequest(http.MethodGet, "/status/201,202", nil, nil)
			Expect(resp.StatusCode).To(BeElementOf(201, 202))
		})

		DescribeTable("rejects codes that cannot be sent as a final response",
			func(path string) {
				resp, _ := doRequest(http.MethodGet, path, nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			},
			Entry("below range", "/status/99"),
			Entry("informational", "/status/100"),
			Entry("processing", "/status/102"),
			Entry("above range", "/status/600"),
		)
	})

	Describe("auth", func() {
		It("accepts only the configured bearer token", func() {
			resp, _ := doRequest(http.MethodGet, "/bearer", nil, http.Header{"Authorization": {"Bearer wrong"}})
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(Equal("Bearer"))

			resp, data := doRequest(http.MethodGet, "/bearer", nil, http.Header{"Authorization": {"Bearer " + bearerToken}})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(parseObject(data)).To(HaveKeyWithValue("token", bearerToken))
		})

		It("checks basic auth against the path", func() {
			resp, _ := doRequest(http.MethodGet, "/basic-auth/u/p", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			req, err := http.NewRequest(http.MethodGet, server.URL+"/basic-auth/u/p", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("u", "p")
			resp, err = httpClient().Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("content", func() {
		It("serves the sample slideshow", func() {
			_, data := doRequest(http.MethodGet, "/json", nil, nil)
			Expect(parseObject(data)).To(HaveKey("slideshow"))
		})

		It("serves HTML pages", func() {
			resp, data := doRequest(http.MethodGet, "/forms/post", nil, nil)
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
			Expect(string(data)).To(ContainSubstring(`name="custname"`))
		})

		It("generates images of the requested size", func() {
			resp, data := doRequest(http.MethodGet, "/image/jpeg?width=8&height=4", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
			Expect(data[:2]).To(Equal([]byte{0xFF, 0xD8}))
		})

		It("returns 404 for unknown image formats", func() {
			resp, _ := doRequest(http.MethodGet, "/image/tiff", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("operations", func() {
		It("reports health", func() {
			_, data := doRequest(http.MethodGet, "/health", nil, nil)
			Expect(parseObject(data)).To(HaveKeyWithValue("status", "ok"))
		})

		It("exposes request metrics", func() {
			doRequest(http.MethodGet, "/get", nil, nil)
			_, data := doRequest(http.MethodGet, "/metrics", nil, nil)
			Expect(string(data)).To(ContainSubstring(`smoke_echo_requests_total{code="200",method="GET",route="/get"}`))
		})

		It("answers unknown routes with a JSON 404", func() {
			resp, data := doRequest(http.MethodGet, "/nope", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(parseObject(data)).To(HaveKey("error"))
		})
	})
})
