package aiclient

import "strings"

const summaryPromptTemplate = `You are a professional editor and content manager. Your task is to read the transcript of a YouTube video and write a short but substantive summary.

Requirements for the summary:
1. Use bulleted lists for the main points
2. Highlight the key ideas and main thoughts
3. Keep the original context and meaning
4. If the video contains instructions or a tutorial, list the steps in order
5. Length: 5-15 bullet points depending on the length of the video

Video transcript:
---
{transcript}
---

Please write a structured summary in {language}.
`

const titlePromptTemplate = `Based on this video transcript, suggest a short title (no more than 60 characters):

{transcript}

Title:`

// titleTranscriptChars bounds the transcript excerpt used for title suggestions.
const titleTranscriptChars = 5000

// DefaultTitle is returned when no title can be generated.
const DefaultTitle = "Video summary"

func buildSummaryPrompt(transcript, language string) string {
	return strings.NewReplacer("{transcript}", transcript, "{language}", language).Replace(summaryPromptTemplate)
}

func buildTitlePrompt(transcript string) string {
	return strings.Replace(titlePromptTemplate, "{transcript}", truncateRunes(transcript, titleTranscriptChars, ""), 1)
}

// truncateRunes cuts s to at most n runes and appends suffix when it did.
func truncateRunes(s string, n int, suffix string) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}
