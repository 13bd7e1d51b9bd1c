package dto

type GlossaryEntryResponse struct {
	JapaneseName string   `json:"japanese_name"`
	EnglishName  string   `json:"english_name"`
	Description  string   `json:"description"`
	Similarity   *float64 `json:"similarity,omitempty"`
}

type GlossarySearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}
