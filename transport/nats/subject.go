package nats

import (
	"fmt"
)

func GetPresenceSubject(session string) string {
	return fmt.Sprintf("controlpad.%s.presence", session)
}

// GetClient2TableSubject is the subject a controlpad publishes its messages on.
func GetClient2TableSubject(session string, handle string) string {
	return fmt.Sprintf("controlpad.%s.in.%s", session, handle)
}

func GetAllClients2TableSubject(session string) string {
	return fmt.Sprintf("controlpad.%s.in.*", session)
}

func GetTable2ClientSubject(session string, handle string) string {
	return fmt.Sprintf("controlpad.%s.out.%s", session, handle)
}
