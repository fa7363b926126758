package handler

import (
	"time"

	"listmgmt/internal/lists/models"
)

type CreateListRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ChangeTypeRequest struct {
	Type string `json:"type"`
}

type AddValueRequest struct {
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

type EditValueRequest struct {
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	Comment  string `json:"comment,omitempty"`
}

type BulkAddRequest struct {
	Values  []string `json:"values"`
	Comment string   `json:"comment,omitempty"`
}

type BulkDeleteRequest struct {
	Values []string `json:"values"`
}

type CheckResponse struct {
	ListType string `json:"list_type"`
	Value    string `json:"value"`
	Exists   bool   `json:"exists"`
}

type ListResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemResponse struct {
	ID        int64     `json:"id"`
	Value     string    `json:"value"`
	Comment   string    `json:"comment,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemPageResponse struct {
	Items    []ItemResponse `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
}

func toListResponse(l *models.List) ListResponse {
	return ListResponse{
		ID:        l.ID,
		Name:      l.Name,
		Type:      l.Type,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toItemPageResponse(p *models.ItemPage) ItemPageResponse {
	items := make([]ItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, ItemResponse{
			ID:        it.ID,
			Value:     it.Value,
			Comment:   it.Comment,
			CreatedBy: it.CreatedBy,
			CreatedAt: it.CreatedAt,
			UpdatedBy: it.UpdatedBy,
			UpdatedAt: it.UpdatedAt,
		})
	}
	return ItemPageResponse{Items: items, Page: p.Page, PageSize: p.Size, HasMore: p.HasMore}
}
