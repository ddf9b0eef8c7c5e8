// Package chat defines the JSON request/response models exchanged between
// the gateway and the backend services. Every response carries success and
// message fields; the rest is call-specific.
package chat

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

type UserInfo struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
	LastActive int64  `json:"last_active"`
}

type SendMessageRequest struct {
	SenderID    string `json:"sender_id"`
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Timestamp int64  `json:"timestamp"`
}

type GetMessagesRequest struct {
	UserID          string `json:"user_id"`
	OtherUserID     string `json:"other_user_id"`
	Limit           int32  `json:"limit"`
	BeforeTimestamp int64  `json:"before_timestamp"`
}

// Message is one stored chat message. Timestamps are Unix milliseconds.
type Message struct {
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	IsRead      bool   `json:"is_read"`
	Timestamp   int64  `json:"timestamp"`
}

type GetMessagesResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"has_more"`
	TotalCount int       `json:"total_count"`
}

type MarkMessageReadRequest struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
}

type MarkMessageReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type NotificationRequest struct {
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}

type NotificationResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NotificationID string `json:"notification_id"`
	Timestamp      int64  `json:"timestamp"`
}

type GetNotificationsRequest struct {
	UserID          string `json:"user_id"`
	Limit           int32  `json:"limit"`
	BeforeTimestamp int64  `json:"before_timestamp"`
}

// Notification is one stored notification. Timestamps are Unix milliseconds.
type Notification struct {
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Type           string            `json:"type"`
	IsRead         bool              `json:"is_read"`
	Timestamp      int64             `json:"timestamp"`
	Metadata       map[string]string `json:"metadata"`
}

type GetNotificationsResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Notifications []Notification `json:"notifications"`
	HasMore       bool           `json:"has_more"`
	TotalCount    int            `json:"total_count"`
}
