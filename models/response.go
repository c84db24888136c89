package models

import "encoding/json"

// TableRows is row-major cell text in document order.
type TableRows [][]string

// ResultData is the payload of a successful extraction. Exactly one of the
// three shapes is populated: TableData+Image, Text+Image, or Message.
type ResultData struct {
	TableData TableRows `json:"table_data,omitempty"`
	Text      *string   `json:"text,omitempty"`
	Image     *string   `json:"-"`
	Message   string    `json:"message,omitempty"`
}

// MarshalJSON keeps the "image" key present (possibly null) on extraction
// payloads and absent on the no-records payload.
func (d ResultData) MarshalJSON() ([]byte, error) {
	if d.Message != "" {
		return json.Marshal(struct {
			Message string `json:"message"`
		}{d.Message})
	}
	if d.Text != nil {
		return json.Marshal(struct {
			Text  string  `json:"text"`
			Image *string `json:"image"`
		}{*d.Text, d.Image})
	}
	rows := d.TableData
	if rows == nil {
		rows = TableRows{}
	}
	return json.Marshal(struct {
		TableData TableRows `json:"table_data"`
		Image     *string   `json:"image"`
	}{rows, d.Image})
}

// ExtractionResult is the outcome of one site adapter invocation.
type ExtractionResult struct {
	Success bool        `json:"success"`
	Data    *ResultData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TableResult builds the success shape for table extractions.
func TableResult(rows TableRows, image *string) *ExtractionResult {
	if rows == nil {
		rows = TableRows{}
	}
	return &ExtractionResult{Success: true, Data: &ResultData{TableData: rows, Image: image}}
}

// TextResult builds the success shape for container text extractions.
func TextResult(text string, image *string) *ExtractionResult {
	return &ExtractionResult{Success: true, Data: &ResultData{Text: &text, Image: image}}
}

// NoRecordsResult builds the confirmed-empty success shape.
func NoRecordsResult() *ExtractionResult {
	return &ExtractionResult{Success: true, Data: &ResultData{Message: MsgNoRecords}}
}

// FailedResult builds the failure shape.
func FailedResult(msg string) *ExtractionResult {
	return &ExtractionResult{Success: false, Error: msg}
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status         string       `json:"status"` // "healthy" or "degraded"
	Uptime         string       `json:"uptime"`
	Version        string       `json:"version"`
	ActiveSessions int          `json:"active_sessions"`
	DatasetLoaded  bool         `json:"dataset_loaded"`
	Sites          []SiteStatus `json:"sites,omitempty"`
}

// SiteStatus reports reachability of one external search portal.
type SiteStatus struct {
	Site       string `json:"site"`
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Title      string `json:"title,omitempty"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}
