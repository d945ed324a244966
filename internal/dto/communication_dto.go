package dto

import (
	"time"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// ChannelCreateRequest creates a messaging channel.
type ChannelCreateRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	InternIDs   []string `json:"intern_ids" validate:"omitempty,dive,uuid"`
}

// ChannelUpdateRequest updates channel metadata or membership.
type ChannelUpdateRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	InternIDs   *[]string `json:"intern_ids" validate:"omitempty,dive,uuid"`
}

// ChannelResponse represents a channel returned to clients.
type ChannelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	InternIDs   []string  `json:"intern_ids"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewChannelResponse converts a channel model to DTO.
func NewChannelResponse(model models.Channel) ChannelResponse {
	members := []string(model.InternIDs)
	if members == nil {
		members = []string{}
	}
	return ChannelResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		InternIDs:   members,
		CreatedBy:   model.CreatedBy,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewChannelResponseSlice converts a slice of channels into DTOs.
func NewChannelResponseSlice(items []models.Channel) []ChannelResponse {
	out := make([]ChannelResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewChannelResponse(item))
	}
	return out
}

// MessageSendRequest represents the payload sent from clients to post a channel message.
type MessageSendRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// MessageHistoryQuery represents query filters for retrieving channel history.
type MessageHistoryQuery struct {
	Before *time.Time `query:"before"`
	Limit  int        `query:"limit" validate:"omitempty,min=1,max=100"`
}

// MessageResponse is the serialized representation of a channel message.
type MessageResponse struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	MediaURL   *string   `json:"media_url,omitempty"`
	MediaType  *string   `json:"media_type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessageResponse converts a model into a DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	resp := MessageResponse{
		ID:        message.ID,
		ChannelID: message.ChannelID,
		UserID:    message.UserID,
		Content:   message.Content,
		MediaURL:  message.MediaURL,
		MediaType: message.MediaType,
		CreatedAt: message.CreatedAt,
	}
	if message.Author != nil {
		resp.AuthorName = message.Author.FullName
	}
	return resp
}

// NewMessageResponseSlice converts a slice of models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}

// NotificationListQuery pages through the caller's inbox.
type NotificationListQuery struct {
	Unread bool `query:"unread"`
	Limit  int  `query:"limit"`
	Offset int  `query:"offset"`
}

// NotificationCreateRequest describes the payload to create a notification.
type NotificationCreateRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Type    string `json:"type" validate:"required,oneof=activity_submitted activity_reviewed new_message new_comment profile_updated"`
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Message string `json:"message" validate:"omitempty,max=2000"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Title:     model.Title,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// UploadResponse describes an accepted media upload.
type UploadResponse struct {
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
	FileName  string `json:"file_name"`
}
