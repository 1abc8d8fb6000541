package api

import "encoding/json"

// CreateGroupRequest is the payload for POST /groups.
type CreateGroupRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameGroupRequest is the payload for PUT /groups/:id.
type RenameGroupRequest struct {
	Title string `json:"title" binding:"required"`
}

// AddItemRequest is the payload for POST /groups/:id/items.
// ItemJSON carries the raw price history envelope: {"prices": [[date, price, quantity], ...]}.
type AddItemRequest struct {
	ItemName string          `json:"item_name" binding:"required"`
	ItemJSON json.RawMessage `json:"item_json" binding:"required"`
}

// RemoveItemRequest is the payload for DELETE /groups/:id/items.
type RemoveItemRequest struct {
	ItemName string `json:"item_name" binding:"required"`
}

// GroupResponse describes one group.
type GroupResponse struct {
	ID        uint   `json:"id"`
	GroupName string `json:"group_name"`
	HasModel  bool   `json:"has_model"`
	CreatedAt string `json:"created_at"`
}

// ItemResponse describes one item inside a group.
type ItemResponse struct {
	ID       uint   `json:"id"`
	GroupID  uint   `json:"group_id"`
	ItemName string `json:"item_name"`
}
