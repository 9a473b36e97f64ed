package suite

import (
	"net/http"
	"time"
)

// TagSlow marks checks that take noticeably longer or exercise more of the
// target than the basic smoke set.
const TagSlow = "slow"

// Default returns the basic API smoke suite: status, JSON body, response
// header and a network-free arithmetic check.
func Default() Suite {
	return Suite{
		Name: "api-smoke",
		Checks: []Check{
			&StatusCheck{
				Base: Base{CheckName: "test_api_status_check"},
				Path: "/status/200",
				Want: http.StatusOK,
			},
			&JSONKeyCheck{
				Base: Base{CheckName: "test_api_json_response"},
				Path: "/json",
				Key:  "slideshow",
			},
			&HeaderCheck{
				Base:     Base{CheckName: "test_api_headers"},
				Path:     "/headers",
				Header:   "Content-Type",
				Contains: "application/json",
			},
			&ArithmeticCheck{
				Base: Base{CheckName: "test_simple_math"},
				Cases: []ArithmeticCase{
					{Expr: "2 + 2", Want: 4},
					{Expr: "10 - 5", Want: 5},
					{Expr: "3 * 3", Want: 9},
				},
			},
		},
	}
}

// Extended returns Default plus the slower end-to-end scenarios: form
// submission, request capture, page load and multi-request timing, and an
// image download.
func Extended() Suite {
	s := Default()
	s.Name = "api-smoke-extended"
	slow := []string{TagSlow}
	s.Checks = append(s.Checks,
		&FormCheck{
			Base: Base{CheckName: "test_form_submission", CheckTags: slow},
			Path: "/post",
			Fields: map[string]string{
				"custname":  "Test User",
				"custtel":   "1234567890",
				"custemail": "test@example.com",
				"size":      "medium",
				"topping":   "bacon",
			},
		},
		&EchoURLCheck{
			Base: Base{CheckName: "test_request_capture", CheckTags: slow},
			Path: "/get",
		},
		&LatencyCheck{
			Base:  Base{CheckName: "test_page_load_performance", CheckTags: slow},
			Paths: []string{"/"},
			Max:   5 * time.Second,
		},
		&LatencyCheck{
			Base:  Base{CheckName: "test_multiple_requests_performance", CheckTags: slow},
			Paths: []string{"/status/200", "/get", "/headers"},
			Max:   10 * time.Second,
		},
		&ImageCheck{
			Base:   Base{CheckName: "test_image_download", CheckTags: slow},
			Path:   "/image/png",
			Format: "png",
		},
	)
	return s
}
