package domain

// RecordingFile is one file belonging to a cloud recording (video, audio,
// transcript, chat log, ...).
type RecordingFile struct {
	ID             string `json:"id"`
	MeetingID      string `json:"meeting_id"`
	RecordingStart string `json:"recording_start"`
	RecordingEnd   string `json:"recording_end"`
	FileType       string `json:"file_type"`
	FileExtension  string `json:"file_extension"`
	FileSizeBytes  int64  `json:"file_size"`
	PlayURL        string `json:"play_url"`
	DownloadURL    string `json:"download_url"`
}

// RecordingMetadata is the normalized shape of a finished cloud recording.
// Absent numeric fields normalize to 0 and absent strings to "". Immutable
// once fetched.
type RecordingMetadata struct {
	UUID            string          `json:"uuid"`
	ID              int64           `json:"id"`
	Topic           string          `json:"topic"`
	StartTime       string          `json:"start_time"`
	DurationMinutes int             `json:"duration"`
	TotalSize       int64           `json:"total_size"`
	FileCount       int             `json:"recording_count"`
	ShareURL        string          `json:"share_url"`
	Files           []RecordingFile `json:"recording_files"`

	// Transcript is the full recording transcript when one could be
	// fetched; empty means none was available.
	Transcript string `json:"transcript,omitempty"`
}
