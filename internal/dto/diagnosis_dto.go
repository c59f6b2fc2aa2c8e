package dto

type AnalyzeRequest struct {
	UserID   string `json:"userId"`
	Symptoms string `json:"symptoms"`
}

type AnalyzeResponse struct {
	Disease     string `json:"disease"`
	Probability string `json:"probability"`
	Advice      string `json:"advice"`
	Medicines   string `json:"medicines"`
}
