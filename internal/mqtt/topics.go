package mqtt

import "fmt"

func TopicTerminalOnline(prefix string) string {
	return fmt.Sprintf("%s/terminal/+/online", prefix)
}

func TopicOnline(prefix, terminalID string) string {
	return fmt.Sprintf("%s/terminal/%s/online", prefix, terminalID)
}

func TopicRoute(prefix, terminalID string) string {
	return fmt.Sprintf("%s/terminal/%s/route", prefix, terminalID)
}

func TopicEvent(prefix, eventType string) string {
	return fmt.Sprintf("%s/events/%s", prefix, eventType)
}
