package event

import (
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

const (
	MessageBroadcastType    Type = "MESSAGE_BROADCAST"
	TranslationFailedType   Type = "TRANSLATION_FAILED"
	CensorshipHitType       Type = "CENSORSHIP_HIT"
	ConnectionOpenedType    Type = "CONNECTION_OPENED"
	ConnectionClosedType    Type = "CONNECTION_CLOSED"
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	ProcessStatsType        Type = "PROCESS_STATS"
)

type MessageBroadcast struct {
	MessageID            uuid.UUID
	Sender               domain.Identity
	ReceivedAt           time.Time
	Delivered            int
	SkippedByModeration  int
	ModerationFailures   int
	TranslationFallbacks int
	TransportFailures    int
	Languages            []domain.Language
}

type TranslationFailed struct {
	Language domain.Language
	TimedOut bool
	Reason   string
}

type Censored struct {
	Sender domain.Identity
	Words  []string
}

type ConnectionChanged struct {
	Identity domain.Identity
	Language domain.Language
	Replaced bool
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type ProcessStats struct {
	PID         int32
	Cpu         float64
	Ram         uint64
	Connections int
}
