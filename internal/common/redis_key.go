package common

import "fmt"

func RedisKeyEvent(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

func RedisKeyClaimedNullifier(eventID, nullifier string) string {
	return fmt.Sprintf("claimed:%s:%s", eventID, nullifier)
}
