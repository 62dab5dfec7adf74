package queue

const (
	TypeBatchRun   = "batch:run"
	TypeCompareRun = "compare:run"
	TypeJudgeAlign = "judge:align"
)

type BatchRunPayload struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	VersionID string `json:"version_id"`
	Limit     int    `json:"limit"`
}

type CompareRunPayload struct {
	JobID        string `json:"job_id"`
	SessionID    string `json:"session_id"`
	OldVersionID string `json:"old_version_id"`
	NewVersionID string `json:"new_version_id"`
}

type JudgeAlignPayload struct {
	SessionID string `json:"session_id"`
}
