package offline

import "strings"

const defaultPushBody = "New products are available in the store!"

// NotificationAction is a button rendered on a push notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// Notification describes what the client should display for a push.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Vibrate []int                `json:"vibrate"`
	Actions []NotificationAction `json:"actions"`
}

// OnPush builds the notification for a push payload. An empty payload gets
// the default body.
func (w *Worker) OnPush(payload []byte) Notification {
	body := strings.TrimSpace(string(payload))
	if body == "" {
		body = defaultPushBody
	}
	return Notification{
		Title:   "Storefront",
		Body:    body,
		Icon:    "/logo192.png",
		Badge:   "/logo192.png",
		Vibrate: []int{100, 50, 100},
		Actions: []NotificationAction{
			{Action: "explore", Title: "View products", Icon: "/logo192.png"},
			{Action: "close", Title: "Close", Icon: "/logo192.png"},
		},
	}
}

// OnNotificationClick returns the URL to open for a clicked action.
func (w *Worker) OnNotificationClick(action string) (string, bool) {
	if action == "explore" {
		return "/", true
	}
	return "", false
}
