package service

import (
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/progress"
	"menu-lens-be/internal/repository/memory"
	"menu-lens-be/internal/websocket"
	"menu-lens-be/pkg/eventbus"
)

// IConsumerService bridges the pipeline's event firehose to the websocket
// hub: every progress event is forwarded to the session's watchers, followed
// by a coordinator snapshot so late joiners and lossy clients can always
// resync from the latest frame.
type IConsumerService interface {
	Consume() error
	Stop()
}

type consumerService struct {
	bus      *eventbus.Bus
	hub      *websocket.Hub
	registry *memory.CoordinatorRegistry
	logger   logger.ILogger
	release  func()
}

func NewConsumerService(
	bus *eventbus.Bus,
	hub *websocket.Hub,
	registry *memory.CoordinatorRegistry,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		bus:      bus,
		hub:      hub,
		registry: registry,
		logger:   log,
	}
}

func (cs *consumerService) Consume() error {
	events, release, err := cs.bus.SubscribeFirehose()
	if err != nil {
		return err
	}
	cs.release = release
	cs.logger.Info("ConsumerService", "Websocket bridge subscribed to progress firehose", nil)

	go func() {
		for ev := range events {
			cs.forward(ev)
		}
	}()

	return nil
}

func (cs *consumerService) Stop() {
	if cs.release != nil {
		cs.release()
	}
}

// progressFrame is the resync snapshot pushed after every forwarded event.
type progressFrame struct {
	SessionID   string                 `json:"session_id"`
	State       string                 `json:"state"`
	Stages      []progress.StageRecord `json:"stages"`
	Overall     float64                `json:"overall"`
	Determinate bool                   `json:"determinate"`
	StreamOnly  bool                   `json:"stream_only"`
	Completed   []string               `json:"completed_categories"`
}

func (cs *consumerService) forward(ev progress.Event) {
	cs.hub.Send(ev.SessionID, "event", ev)

	coord, ok := cs.registry.Get(ev.SessionID)
	if !ok {
		return
	}
	overall, determinate := coord.OverallProgress()
	cs.hub.Send(ev.SessionID, "progress", progressFrame{
		SessionID:   ev.SessionID,
		State:       string(coord.State()),
		Stages:      coord.CurrentStageSnapshot(),
		Overall:     overall,
		Determinate: determinate,
		StreamOnly:  coord.StreamOnly(),
		Completed:   coord.CompletedCategories(),
	})
}
