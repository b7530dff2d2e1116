package telegram

import "sync"

// chatState keeps per-chat settings for the lifetime of the process.
type chatState struct {
	engine  sync.Map // chatID -> provider name
	running sync.Map // chatID -> run in progress
}

func (s *chatState) setEngine(chatID int64, name string) { s.engine.Store(chatID, name) }

func (s *chatState) getEngine(chatID int64) string {
	if v, ok := s.engine.Load(chatID); ok {
		if name, _ := v.(string); name != "" {
			return name
		}
	}
	return ""
}

// begin marks a run as started; false means one is already in progress.
func (s *chatState) begin(chatID int64) bool {
	_, busy := s.running.LoadOrStore(chatID, struct{}{})
	return !busy
}

func (s *chatState) end(chatID int64) { s.running.Delete(chatID) }
