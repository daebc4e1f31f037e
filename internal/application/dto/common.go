package dto

// ItemListQuery filtros y paginación de GET /api/inventory/items.
type ItemListQuery struct {
	Limit    int    `query:"limit" validate:"min=0,max=100"`
	Offset   int    `query:"offset" validate:"min=0"`
	Category string `query:"category" validate:"max=60"`
	RawOnly  bool   `query:"raw_only"`
}

// Normalize aplica el límite por defecto (20) y el tope (100).
func (q *ItemListQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// ItemListResponse página de ítems. HasMore indica que existe al menos otra página.
type ItemListResponse struct {
	Items   []ItemResponse `json:"items"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
