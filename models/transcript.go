package models

// TranscriptSegment is one caption line. Start and Duration are in seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptResult holds the captions of a single video, fetched once per request.
type TranscriptResult struct {
	VideoID  string              `json:"videoId"`
	Language string              `json:"lang,omitempty"`
	Segments []TranscriptSegment `json:"content"`
	FullText string              `json:"fullText"`
}
