package profile

import "github.com/KirkDiggler/rpg-community-bot/internal/entities"

// QueueLengths reports how many events an identity has in its handling wave
// and waiting for the next one
func QueueLengths(svc Service, profileType entities.ProfileType, identity string) (handling, pending int) {
	o := svc.(*orchestrator)
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.records[recordKey(profileType, identity)]
	if !ok {
		return 0, 0
	}
	return len(rec.handling), len(rec.pending)
}
