package models

// SummaryRequest is the body accepted by POST /summarize.
type SummaryRequest struct {
	URL string `json:"url"`
}

// SummaryResult is what the summary pipeline produces for one link.
type SummaryResult struct {
	VideoID          string `json:"videoId"`
	Summary          string `json:"summary"`
	OriginalURL      string `json:"originalUrl"`
	HasTranscript    bool   `json:"hasTranscript"`
	Title            string `json:"title,omitempty"`
	RemainingCredits *int   `json:"remainingCredits,omitempty"`
}

// TranscriptCheck is the body returned by the check-transcript endpoint.
type TranscriptCheck struct {
	VideoID             string `json:"videoId"`
	URL                 string `json:"url"`
	TranscriptAvailable bool   `json:"transcriptAvailable"`
	Message             string `json:"message"`
}
