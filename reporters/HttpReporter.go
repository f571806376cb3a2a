package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/reaandrew/migrationlint/core"
	log "github.com/sirupsen/logrus"
)

type ReportIdGenerator interface {
	Generate() string
}

type UuidReportGenerator struct {
}

func (u UuidReportGenerator) Generate() string {
	return uuid.New().String()
}

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHttpClient struct {
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	response, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Errorf("Error sending request to %s: %v", req.URL, err)
	} else {
		log.Debugf("%s %s: %s", req.Method, req.URL, response.Status)
	}
	return response, err
}

func NewDefaultHttpReporter(baseUrl string) HttpReporter {
	return HttpReporter{
		BaseURL:           baseUrl,
		HTTPClient:        DefaultHttpClient{},
		ReportIdGenerator: UuidReportGenerator{},
	}
}

// HttpReporter posts every stored batch to a collector and then marks the
// report as completed.
type HttpReporter struct {
	BaseURL           string
	HTTPClient        HttpClient
	ReportIdGenerator ReportIdGenerator
}

func (h HttpReporter) Report(repository core.ReportRepository) error {
	if h.BaseURL == "" {
		return fmt.Errorf("http reporter requires a base url")
	}
	iterator := repository.NewIterator()

	reportId := h.ReportIdGenerator.Generate()
	log.Infof("Reporting to %s as report %s", h.BaseURL, reportId)

	for iterator.HasNext() {
		reportSet, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve next batch: %w", err)
		}

		if err := h.postReportSet(reportSet, reportId); err != nil {
			return fmt.Errorf("failed to report batch: %w", err)
		}
	}

	if err := h.signalCompletion(reportId); err != nil {
		return fmt.Errorf("failed to signal completion: %w", err)
	}

	return nil
}

func (h HttpReporter) postReportSet(reportSet core.ReportSet, reportId string) error {
	url := fmt.Sprintf("%s/reports/%s/results", h.BaseURL, reportId)

	payload, err := json.Marshal(reportSet)
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return h.send(req)
}

func (h HttpReporter) signalCompletion(reportId string) error {
	url := fmt.Sprintf("%s/report/%s", h.BaseURL, reportId)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader([]byte(`{"status": "completed"}`)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return h.send(req)
}

func (h HttpReporter) send(req *http.Request) error {
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}
	return nil
}
